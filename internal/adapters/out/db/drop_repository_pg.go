// internal/adapters/out/db/drop_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	dropdom "solstyle/internal/domain/drop"
)

// DropRepositoryPG implements drop.RepositoryPort on PostgreSQL (lib/pq).
type DropRepositoryPG struct {
	DB *sql.DB
}

func NewDropRepositoryPG(db *sql.DB) *DropRepositoryPG {
	return &DropRepositoryPG{DB: db}
}

const dropColumns = `id, seller, price, commission_bps, metadata_uri, drop_account, created_at`

func scanDrop(row interface{ Scan(...any) error }) (*dropdom.Drop, error) {
	var (
		d             dropdom.Drop
		price         int64
		commissionBps int
		createdAt     time.Time
	)
	if err := row.Scan(&d.ID, &d.Seller, &price, &commissionBps, &d.MetadataURI, &d.OnChainAccount, &createdAt); err != nil {
		return nil, err
	}
	d.Price = uint64(price)
	d.CommissionBps = uint16(commissionBps)
	d.CreatedAt = createdAt.UTC()
	return &d, nil
}

func (r *DropRepositoryPG) Create(ctx context.Context, in dropdom.CreateDropInput) (*dropdom.Drop, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("db is nil")
	}

	ent, err := dropdom.New(newID(), in.Seller, in.Price, in.CommissionBps, in.MetadataURI, in.OnChainAccount, time.Now())
	if err != nil {
		return nil, err
	}

	price, err := lamportsToInt64(ent.Price)
	if err != nil {
		return nil, fmt.Errorf("drop price: %w", err)
	}

	const q = `
		INSERT INTO drops (id, seller, price, commission_bps, metadata_uri, drop_account, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.DB.ExecContext(ctx, q,
		ent.ID, ent.Seller, price, int(ent.CommissionBps), ent.MetadataURI, ent.OnChainAccount, ent.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, dropdom.ErrConflict
		}
		return nil, err
	}
	return &ent, nil
}

func (r *DropRepositoryPG) GetByID(ctx context.Context, id string) (*dropdom.Drop, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("db is nil")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dropdom.ErrInvalidID
	}

	q := `SELECT ` + dropColumns + ` FROM drops WHERE id = $1`
	d, err := scanDrop(r.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dropdom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DropRepositoryPG) List(ctx context.Context, filter dropdom.Filter, s dropdom.Sort, page dropdom.Page) (dropdom.PageResult, error) {
	if r == nil || r.DB == nil {
		return dropdom.PageResult{}, errors.New("db is nil")
	}

	where, args := buildDropWhere(filter)

	total, err := r.Count(ctx, filter)
	if err != nil {
		return dropdom.PageResult{}, err
	}

	number := page.Number
	if number < 1 {
		number = 1
	}
	perPage := page.PerPage
	if perPage < 1 {
		perPage = 20
	}

	q := `SELECT ` + dropColumns + ` FROM drops` + where +
		` ORDER BY ` + dropOrderBy(s) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, (number-1)*perPage)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return dropdom.PageResult{}, err
	}
	defer rows.Close()

	items := make([]dropdom.Drop, 0, perPage)
	for rows.Next() {
		d, err := scanDrop(rows)
		if err != nil {
			return dropdom.PageResult{}, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return dropdom.PageResult{}, err
	}

	return dropdom.PageResult{
		Items:      items,
		TotalCount: total,
		TotalPages: (total + perPage - 1) / perPage,
		Page:       number,
		PerPage:    perPage,
	}, nil
}

func (r *DropRepositoryPG) Count(ctx context.Context, filter dropdom.Filter) (int, error) {
	if r == nil || r.DB == nil {
		return 0, errors.New("db is nil")
	}

	where, args := buildDropWhere(filter)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM drops`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *DropRepositoryPG) Delete(ctx context.Context, id string) error {
	if r == nil || r.DB == nil {
		return errors.New("db is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return dropdom.ErrInvalidID
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM drops WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dropdom.ErrNotFound
	}
	return nil
}

// ========================
// helpers
// ========================

func buildDropWhere(filter dropdom.Filter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if v := strings.TrimSpace(filter.ID); v != "" {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Seller); v != "" {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("seller = $%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, int64(*filter.MinPrice))
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, int64(*filter.MaxPrice))
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func dropOrderBy(s dropdom.Sort) string {
	col := "created_at"
	switch s.Column {
	case dropdom.SortByID:
		col = "id"
	case dropdom.SortByPrice:
		col = "price"
	}
	dir := "ASC"
	if s.Order == dropdom.SortDesc {
		dir = "DESC"
	}
	return col + " " + dir
}

// isUniqueViolation は一意制約違反 (23505) の判定。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
