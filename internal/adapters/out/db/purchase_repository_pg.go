// internal/adapters/out/db/purchase_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	purchasedom "solstyle/internal/domain/purchase"
)

// PurchaseRepositoryPG implements purchase.RepositoryPort on PostgreSQL (lib/pq).
type PurchaseRepositoryPG struct {
	DB *sql.DB
}

func NewPurchaseRepositoryPG(db *sql.DB) *PurchaseRepositoryPG {
	return &PurchaseRepositoryPG{DB: db}
}

const purchaseColumns = `id, drop_id, buyer, seller, payment_lamports, seller_lamports, commission_lamports, mint_address, tx_signature, purchased_at`

func scanPurchase(row interface{ Scan(...any) error }) (*purchasedom.Purchase, error) {
	var (
		p           purchasedom.Purchase
		payment     int64
		sellerCut   int64
		commission  int64
		purchasedAt time.Time
	)
	if err := row.Scan(
		&p.ID, &p.DropID, &p.Buyer, &p.Seller,
		&payment, &sellerCut, &commission,
		&p.MintAddress, &p.TxSignature, &purchasedAt,
	); err != nil {
		return nil, err
	}
	p.PaymentLamports = uint64(payment)
	p.SellerLamports = uint64(sellerCut)
	p.CommissionLamports = uint64(commission)
	p.PurchasedAt = purchasedAt.UTC()
	return &p, nil
}

func (r *PurchaseRepositoryPG) Create(ctx context.Context, p purchasedom.Purchase) (*purchasedom.Purchase, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("db is nil")
	}

	if strings.TrimSpace(p.ID) == "" {
		p.ID = newID()
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

	const q = `
		INSERT INTO purchases
			(id, drop_id, buyer, seller, payment_lamports, seller_lamports, commission_lamports, mint_address, tx_signature, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.DB.ExecContext(ctx, q,
		p.ID, p.DropID, p.Buyer, p.Seller,
		payment, sellerCut, commission,
		p.MintAddress, p.TxSignature, p.PurchasedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, purchasedom.ErrConflict
		}
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepositoryPG) GetByID(ctx context.Context, id string) (*purchasedom.Purchase, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("db is nil")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, purchasedom.ErrNotFound
	}

	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	p, err := scanPurchase(r.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, purchasedom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PurchaseRepositoryPG) List(ctx context.Context, filter purchasedom.Filter, s purchasedom.Sort, page purchasedom.Page) (purchasedom.PageResult, error) {
	if r == nil || r.DB == nil {
		return purchasedom.PageResult{}, errors.New("db is nil")
	}

	where, args := buildPurchaseWhere(filter)

	total, err := r.Count(ctx, filter)
	if err != nil {
		return purchasedom.PageResult{}, err
	}

	number := page.Number
	if number < 1 {
		number = 1
	}
	perPage := page.PerPage
	if perPage < 1 {
		perPage = 20
	}

	q := `SELECT ` + purchaseColumns + ` FROM purchases` + where +
		` ORDER BY ` + purchaseOrderBy(s) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, (number-1)*perPage)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return purchasedom.PageResult{}, err
	}
	defer rows.Close()

	items := make([]purchasedom.Purchase, 0, perPage)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return purchasedom.PageResult{}, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return purchasedom.PageResult{}, err
	}

	return purchasedom.PageResult{
		Items:      items,
		TotalCount: total,
		TotalPages: (total + perPage - 1) / perPage,
		Page:       number,
		PerPage:    perPage,
	}, nil
}

func (r *PurchaseRepositoryPG) Count(ctx context.Context, filter purchasedom.Filter) (int, error) {
	if r == nil || r.DB == nil {
		return 0, errors.New("db is nil")
	}

	where, args := buildPurchaseWhere(filter)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ========================
// helpers
// ========================

func buildPurchaseWhere(filter purchasedom.Filter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if v := strings.TrimSpace(filter.ID); v != "" {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if v := strings.TrimSpace(filter.DropID); v != "" {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("drop_id = $%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Buyer); v != "" {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("buyer = $%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Seller); v != "" {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("seller = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func purchaseOrderBy(s purchasedom.Sort) string {
	col := "purchased_at"
	if s.Column == purchasedom.SortByID {
		col = "id"
	}
	dir := "ASC"
	if s.Order == purchasedom.SortDesc {
		dir = "DESC"
	}
	return col + " " + dir
}
