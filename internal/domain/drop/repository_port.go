// internal/domain/drop/repository_port.go
package drop

import (
	"context"
	"errors"
)

// ========================================
// 入出力DTO（UseCase/Service -> Repository）
// ========================================

type CreateDropInput struct {
	Seller         string `json:"seller"`
	Price          uint64 `json:"price"`
	CommissionBps  uint16 `json:"commissionBps"`
	MetadataURI    string `json:"metadataUri"`
	OnChainAccount string `json:"onChainAccount,omitempty"`
}

// ========================================
// 検索条件/ソート/ページング（契約のみ）
// ========================================

type Filter struct {
	ID     string
	Seller string

	// 価格帯でのフィルタ（nil は無条件）
	MinPrice *uint64
	MaxPrice *uint64
}

type Sort struct {
	Column SortColumn
	Order  SortOrder
}

type SortColumn string

const (
	SortByID        SortColumn = "id"
	SortByCreatedAt SortColumn = "createdAt"
	SortByPrice     SortColumn = "price"
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
	Items      []Drop
	TotalCount int
	TotalPages int
	Page       int
	PerPage    int
}

// ========================================
// Repository Port（契約のみ）
// ========================================
//
// Drop は作成後イミュータブル。Update は契約に存在しない。
// Delete は運用上の掃除用で、販売ロジックからは呼ばない。
type RepositoryPort interface {
	// 取得系
	GetByID(ctx context.Context, id string) (*Drop, error)
	List(ctx context.Context, filter Filter, sort Sort, page Page) (PageResult, error)
	Count(ctx context.Context, filter Filter) (int, error)

	// 変更系
	Create(ctx context.Context, in CreateDropInput) (*Drop, error)
	Delete(ctx context.Context, id string) error
}

// 共通エラー（契約）
var (
	ErrConflict = errors.New("drop: conflict")
)
