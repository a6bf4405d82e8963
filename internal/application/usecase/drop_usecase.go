// internal/application/usecase/drop_usecase.go
package usecase

/*
責任と機能:
- create_drop: 出品者ウォレットを seller として束縛した Drop レコードを 1 件作成する。
  検証は domain (drop.New) に寄せ、Usecase は採番・時刻・保存の手順のみを担う。
- Drop は作成後イミュータブル。更新系のユースケースは存在しない。
- metadata_uri を持っていない出品者向けに、metadata.json を GCS へ置いて
  URI を作る補助操作 (PrepareMetadata) を提供する。
*/

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	dropdom "solstyle/internal/domain/drop"
)

// ============================================================
// Ports
// ============================================================

// MetadataUploader uploads a metadata JSON document and returns its public URI.
// GCS 実装は adapters/out/gcs 側。
type MetadataUploader interface {
	UploadMetadata(ctx context.Context, objectName string, data []byte) (string, error)
}

// ============================================================
// Usecase
// ============================================================

type DropUsecase struct {
	dropRepo dropdom.RepositoryPort
	uploader MetadataUploader

	now func() time.Time
}

func NewDropUsecase(
	dropRepo dropdom.RepositoryPort,
	uploader MetadataUploader,
) *DropUsecase {
	return &DropUsecase{
		dropRepo: dropRepo,
		uploader: uploader,
		now:      time.Now,
	}
}

// ============================================================
// create_drop
// ============================================================

type CreateDropInput struct {
	Seller        string `json:"seller"`
	Price         uint64 `json:"price"`
	CommissionBps uint16 `json:"commissionBps"`
	MetadataURI   string `json:"metadataUri"`

	// オンチェーン実行モード用。デプロイ済みプログラムの Drop アカウント address。
	OnChainAccount string `json:"onChainAccount,omitempty"`
}

// CreateDrop creates exactly one new Drop bound to the caller as seller.
// 他の状態には一切触れない。再実行は独立した 2 レコード目を作るだけ。
func (u *DropUsecase) CreateDrop(ctx context.Context, in CreateDropInput) (*dropdom.Drop, error) {
	if u == nil || u.dropRepo == nil {
		return nil, errors.New("drop usecase is not initialized")
	}

	// ID は repository 側の自動採番に任せるため、ここでは domain 検証のみ行う。
	if _, err := dropdom.New("", in.Seller, in.Price, in.CommissionBps, in.MetadataURI, in.OnChainAccount, u.now()); err != nil {
		return nil, err
	}

	created, err := u.dropRepo.Create(ctx, dropdom.CreateDropInput{
		Seller:         strings.TrimSpace(in.Seller),
		Price:          in.Price,
		CommissionBps:  in.CommissionBps,
		MetadataURI:    strings.TrimSpace(in.MetadataURI),
		OnChainAccount: strings.TrimSpace(in.OnChainAccount),
	})
	if err != nil {
		return nil, fmt.Errorf("create drop: %w", err)
	}

	log.Printf(
		"[drop_usecase] CreateDrop done id=%s seller=%s price=%d commissionBps=%d",
		created.ID, maskWallet(created.Seller), created.Price, created.CommissionBps,
	)
	return created, nil
}

// ============================================================
// Queries
// ============================================================

func (u *DropUsecase) GetByID(ctx context.Context, id string) (*dropdom.Drop, error) {
	if u == nil || u.dropRepo == nil {
		return nil, errors.New("drop usecase is not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dropdom.ErrInvalidID
	}
	return u.dropRepo.GetByID(ctx, id)
}

func (u *DropUsecase) List(ctx context.Context, filter dropdom.Filter, sort dropdom.Sort, page dropdom.Page) (dropdom.PageResult, error) {
	if u == nil || u.dropRepo == nil {
		return dropdom.PageResult{}, errors.New("drop usecase is not initialized")
	}
	return u.dropRepo.List(ctx, filter, sort, page)
}

// ============================================================
// PrepareMetadata (補助: metadata.json → URI)
// ============================================================

type PrepareMetadataInput struct {
	Seller      string `json:"seller"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// PrepareMetadata puts a minimal metadata.json to object storage and returns
// the URI suitable for CreateDrop.MetadataURI.
func (u *DropUsecase) PrepareMetadata(ctx context.Context, in PrepareMetadataInput) (string, error) {
	if u == nil || u.uploader == nil {
		return "", errors.New("metadata uploader is not configured")
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", errors.New("metadata name is empty")
	}

	doc := map[string]any{
		"name":        strings.TrimSpace(in.Name),
		"description": strings.TrimSpace(in.Description),
		"image":       strings.TrimSpace(in.Image),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	objectName := fmt.Sprintf("drops/%s/%d/metadata.json", strings.TrimSpace(in.Seller), u.now().UnixNano())
	uri, err := u.uploader.UploadMetadata(ctx, objectName, data)
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}

	if len(uri) > dropdom.MaxMetadataURILen {
		// 上限を超える URI は Drop に入らないので、ここで弾いて無駄な出品失敗を防ぐ
		return "", dropdom.ErrInvalidMetadataURI
	}

	log.Printf("[drop_usecase] PrepareMetadata done uri=%s", uri)
	return uri, nil
}
