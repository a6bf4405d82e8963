// internal/adapters/out/firestore/drop_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	dropdom "solstyle/internal/domain/drop"
)

const dropsCollection = "drops"

// DropRepositoryFS implements drop.RepositoryPort using Firestore.
type DropRepositoryFS struct {
	Client *firestore.Client
}

func NewDropRepositoryFS(client *firestore.Client) *DropRepositoryFS {
	return &DropRepositoryFS{Client: client}
}

// Firestore ドキュメント形。Price は Firestore の整数 (int64) で保持する。
type dropDoc struct {
	Seller         string    `firestore:"seller"`
	Price          int64     `firestore:"price"`
	CommissionBps  int       `firestore:"commissionBps"`
	MetadataURI    string    `firestore:"metadataUri"`
	OnChainAccount string    `firestore:"onChainAccount,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

func (d dropDoc) toDomain(id string) dropdom.Drop {
	return dropdom.Drop{
		ID:             id,
		Seller:         d.Seller,
		Price:          uint64(d.Price),
		CommissionBps:  uint16(d.CommissionBps),
		MetadataURI:    d.MetadataURI,
		OnChainAccount: d.OnChainAccount,
		CreatedAt:      d.CreatedAt,
	}
}

func (r *DropRepositoryFS) Create(ctx context.Context, in dropdom.CreateDropInput) (*dropdom.Drop, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	docRef := r.Client.Collection(dropsCollection).NewDoc()

	// 書き込み前に domain 検証を通す（Drop はここ以外で生まれない）
	ent, err := dropdom.New(docRef.ID, in.Seller, in.Price, in.CommissionBps, in.MetadataURI, in.OnChainAccount, time.Now())
	if err != nil {
		return nil, err
	}

	price, err := lamportsToInt64(ent.Price)
	if err != nil {
		return nil, fmt.Errorf("drop price: %w", err)
	}

	doc := dropDoc{
		Seller:         ent.Seller,
		Price:          price,
		CommissionBps:  int(ent.CommissionBps),
		MetadataURI:    ent.MetadataURI,
		OnChainAccount: ent.OnChainAccount,
		CreatedAt:      ent.CreatedAt,
	}
	if _, err := docRef.Create(ctx, doc); err != nil {
		return nil, err
	}
	return &ent, nil
}

func (r *DropRepositoryFS) GetByID(ctx context.Context, id string) (*dropdom.Drop, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dropdom.ErrInvalidID
	}

	snap, err := r.Client.Collection(dropsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, dropdom.ErrNotFound
		}
		return nil, err
	}

	var doc dropDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	ent := doc.toDomain(snap.Ref.ID)
	return &ent, nil
}

func (r *DropRepositoryFS) List(ctx context.Context, filter dropdom.Filter, s dropdom.Sort, page dropdom.Page) (dropdom.PageResult, error) {
	items, err := r.queryAll(ctx, filter)
	if err != nil {
		return dropdom.PageResult{}, err
	}

	sortDrops(items, s)
	return paginateDrops(items, page), nil
}

func (r *DropRepositoryFS) Count(ctx context.Context, filter dropdom.Filter) (int, error) {
	items, err := r.queryAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *DropRepositoryFS) Delete(ctx context.Context, id string) error {
	if r == nil || r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return dropdom.ErrInvalidID
	}
	_, err := r.Client.Collection(dropsCollection).Doc(id).Delete(ctx)
	return err
}

// ========================
// helpers
// ========================

func (r *DropRepositoryFS) queryAll(ctx context.Context, filter dropdom.Filter) ([]dropdom.Drop, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	q := r.Client.Collection(dropsCollection).Query
	if s := strings.TrimSpace(filter.Seller); s != "" {
		q = q.Where("seller", "==", s)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	out := make([]dropdom.Drop, 0, 16)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var doc dropDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		ent := doc.toDomain(snap.Ref.ID)

		// 価格帯フィルタは client 側で適用（複合 index 不要にするため）
		if filter.MinPrice != nil && ent.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && ent.Price > *filter.MaxPrice {
			continue
		}
		if id := strings.TrimSpace(filter.ID); id != "" && ent.ID != id {
			continue
		}
		out = append(out, ent)
	}
	return out, nil
}

func sortDrops(items []dropdom.Drop, s dropdom.Sort) {
	desc := s.Order == dropdom.SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch s.Column {
		case dropdom.SortByPrice:
			less = items[i].Price < items[j].Price
		case dropdom.SortByID:
			less = items[i].ID < items[j].ID
		default: // createdAt
			less = items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}

func paginateDrops(items []dropdom.Drop, page dropdom.Page) dropdom.PageResult {
	number := page.Number
	if number < 1 {
		number = 1
	}
	perPage := page.PerPage
	if perPage < 1 {
		perPage = 20
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage

	start := (number - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return dropdom.PageResult{
		Items:      items[start:end],
		TotalCount: total,
		TotalPages: totalPages,
		Page:       number,
		PerPage:    perPage,
	}
}
