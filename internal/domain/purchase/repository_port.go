// internal/domain/purchase/repository_port.go
package purchase

import (
	"context"
	"errors"
)

// ========================================
// 検索条件/ソート/ページング（契約のみ）
// ========================================

type Filter struct {
	ID     string
	DropID string
	Buyer  string
	Seller string
}

type Sort struct {
	Column SortColumn
	Order  SortOrder
}

type SortColumn string

const (
	SortByID          SortColumn = "id"
	SortByPurchasedAt SortColumn = "purchasedAt"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type Page struct {
	Number  int
	PerPage int
}

type PageResult struct {
	Items      []Purchase
	TotalCount int
	TotalPages int
	Page       int
	PerPage    int
}

// ========================================
// Repository Port（契約のみ）
// ========================================
//
// Purchase は成功した buy_drop の事後レコード。Update は存在しない。
type RepositoryPort interface {
	GetByID(ctx context.Context, id string) (*Purchase, error)
	List(ctx context.Context, filter Filter, sort Sort, page Page) (PageResult, error)
	Count(ctx context.Context, filter Filter) (int, error)

	Create(ctx context.Context, p Purchase) (*Purchase, error)
}

// 共通エラー（契約）
var (
	ErrConflict = errors.New("purchase: conflict")
)
