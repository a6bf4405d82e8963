// internal/adapters/out/firestore/purchase_repository_fs.go
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
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	purchasedom "solstyle/internal/domain/purchase"
)

const purchasesCollection = "purchases"

// PurchaseRepositoryFS implements purchase.RepositoryPort using Firestore.
type PurchaseRepositoryFS struct {
	Client *firestore.Client
}

func NewPurchaseRepositoryFS(client *firestore.Client) *PurchaseRepositoryFS {
	return &PurchaseRepositoryFS{Client: client}
}

// Firestore ドキュメント形。lamports は int64 で保持する。
type purchaseDoc struct {
	DropID             string    `firestore:"dropId"`
	Buyer              string    `firestore:"buyer"`
	Seller             string    `firestore:"seller"`
	PaymentLamports    int64     `firestore:"paymentLamports"`
	SellerLamports     int64     `firestore:"sellerLamports"`
	CommissionLamports int64     `firestore:"commissionLamports"`
	MintAddress        string    `firestore:"mintAddress"`
	TxSignature        string    `firestore:"txSignature"`
	PurchasedAt        time.Time `firestore:"purchasedAt"`
}

func (d purchaseDoc) toDomain(id string) purchasedom.Purchase {
	return purchasedom.Purchase{
		ID:                 id,
		DropID:             d.DropID,
		Buyer:              d.Buyer,
		Seller:             d.Seller,
		PaymentLamports:    uint64(d.PaymentLamports),
		SellerLamports:     uint64(d.SellerLamports),
		CommissionLamports: uint64(d.CommissionLamports),
		MintAddress:        d.MintAddress,
		TxSignature:        d.TxSignature,
		PurchasedAt:        d.PurchasedAt,
	}
}

func (r *PurchaseRepositoryFS) Create(ctx context.Context, p purchasedom.Purchase) (*purchasedom.Purchase, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	docRef := r.Client.Collection(purchasesCollection).NewDoc()
	if strings.TrimSpace(p.ID) != "" {
		docRef = r.Client.Collection(purchasesCollection).Doc(p.ID)
	}

	payment, err := lamportsToInt64(p.PaymentLamports)
	if err != nil {
		return nil, fmt.Errorf("payment lamports: %w", err)
	}
	sellerCut, err := lamportsToInt64(p.SellerLamports)
	if err != nil {
		return nil, fmt.Errorf("seller lamports: %w", err)
	}
	commission, err := lamportsToInt64(p.CommissionLamports)
	if err != nil {
		return nil, fmt.Errorf("commission lamports: %w", err)
	}

	doc := purchaseDoc{
		DropID:             p.DropID,
		Buyer:              p.Buyer,
		Seller:             p.Seller,
		PaymentLamports:    payment,
		SellerLamports:     sellerCut,
		CommissionLamports: commission,
		MintAddress:        p.MintAddress,
		TxSignature:        p.TxSignature,
		PurchasedAt:        p.PurchasedAt,
	}
	if _, err := docRef.Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, purchasedom.ErrConflict
		}
		return nil, err
	}

	p.ID = docRef.ID
	return &p, nil
}

func (r *PurchaseRepositoryFS) GetByID(ctx context.Context, id string) (*purchasedom.Purchase, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, purchasedom.ErrNotFound
	}

	snap, err := r.Client.Collection(purchasesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, purchasedom.ErrNotFound
		}
		return nil, err
	}

	var doc purchaseDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	ent := doc.toDomain(snap.Ref.ID)
	return &ent, nil
}

func (r *PurchaseRepositoryFS) List(ctx context.Context, filter purchasedom.Filter, s purchasedom.Sort, page purchasedom.Page) (purchasedom.PageResult, error) {
	items, err := r.queryAll(ctx, filter)
	if err != nil {
		return purchasedom.PageResult{}, err
	}

	sortPurchases(items, s)
	return paginatePurchases(items, page), nil
}

func (r *PurchaseRepositoryFS) Count(ctx context.Context, filter purchasedom.Filter) (int, error) {
	items, err := r.queryAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// ========================
// helpers
// ========================

func (r *PurchaseRepositoryFS) queryAll(ctx context.Context, filter purchasedom.Filter) ([]purchasedom.Purchase, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	q := r.Client.Collection(purchasesCollection).Query
	if v := strings.TrimSpace(filter.DropID); v != "" {
		q = q.Where("dropId", "==", v)
	}
	if v := strings.TrimSpace(filter.Buyer); v != "" {
		q = q.Where("buyer", "==", v)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	out := make([]purchasedom.Purchase, 0, 16)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var doc purchaseDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		ent := doc.toDomain(snap.Ref.ID)

		if id := strings.TrimSpace(filter.ID); id != "" && ent.ID != id {
			continue
		}
		if v := strings.TrimSpace(filter.Seller); v != "" && ent.Seller != v {
			continue
		}
		out = append(out, ent)
	}
	return out, nil
}

func sortPurchases(items []purchasedom.Purchase, s purchasedom.Sort) {
	desc := s.Order == purchasedom.SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch s.Column {
		case purchasedom.SortByID:
			less = items[i].ID < items[j].ID
		default: // purchasedAt
			less = items[i].PurchasedAt.Before(items[j].PurchasedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}

func paginatePurchases(items []purchasedom.Purchase, page purchasedom.Page) purchasedom.PageResult {
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

	return purchasedom.PageResult{
		Items:      items[start:end],
		TotalCount: total,
		TotalPages: totalPages,
		Page:       number,
		PerPage:    perPage,
	}
}
