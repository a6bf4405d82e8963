// internal/domain/drop/entity.go
package drop

import (
	"errors"
	"strings"
	"time"

	"github.com/mr-tron/base58"
)

// ========================================
// Entity: Drop (drops テーブル 1 レコード)
// ========================================
//
// 1出品 = 1 Drop。作成後は一切更新しない（イミュータブル）。
// 購入で状態を持たせない方針のため、sold フラグは存在しない。
// 購入ごとの状態は purchase ドメイン側のレコードが持つ。
//
// - seller         : 出品者ウォレット (base58, 32byte pubkey)
// - price          : 販売価格 (lamports, u64)
// - commissionBps  : 手数料率 (basis points, 0..10000)
// - metadataUri    : metadata.json の URL (最大200文字)
// - onChainAccount : オンチェーン実行モードで使う Drop アカウントの address
//   (base58, 32byte)。custody モードでは空。
type Drop struct {
	ID             string    `json:"id"`
	Seller         string    `json:"seller"`
	Price          uint64    `json:"price"`
	CommissionBps  uint16    `json:"commissionBps"`
	MetadataURI    string    `json:"metadataUri"`
	OnChainAccount string    `json:"onChainAccount,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID             = errors.New("drop: invalid id")
	ErrInvalidSeller         = errors.New("drop: invalid seller wallet")
	ErrInvalidCommissionRate = errors.New("drop: commission bps must be <= 10000")
	ErrInvalidMetadataURI    = errors.New("drop: invalid metadataUri")
	ErrInvalidOnChainAccount = errors.New("drop: invalid onChainAccount address")
	ErrNotFound              = errors.New("drop: not found")
)

// ========================================
// Policy (align with solstyle_program Drop::INIT_SPACE)
// ========================================

const (
	// Commission max 100% = 10,000 basis points
	MaxCommissionBps = 10000

	// On-chain アカウント確保分に合わせた URI 長の上限
	MaxMetadataURILen = 200

	// ed25519 pubkey
	walletByteLen = 32
)

// ========================================
// Constructors
// ========================================

func New(
	id, seller string,
	price uint64,
	commissionBps uint16,
	metadataURI, onChainAccount string,
	createdAt time.Time,
) (Drop, error) {
	d := Drop{
		ID:             strings.TrimSpace(id),
		Seller:         strings.TrimSpace(seller),
		Price:          price,
		CommissionBps:  commissionBps,
		MetadataURI:    strings.TrimSpace(metadataURI),
		OnChainAccount: strings.TrimSpace(onChainAccount),
		CreatedAt:      createdAt.UTC(),
	}
	if err := d.validate(); err != nil {
		return Drop{}, err
	}
	return d, nil
}

// ========================================
// Validation
// ========================================

func (d Drop) validate() error {
	if !WalletAddressValid(d.Seller) {
		return ErrInvalidSeller
	}
	if d.CommissionBps > MaxCommissionBps {
		return ErrInvalidCommissionRate
	}
	if d.MetadataURI == "" || len(d.MetadataURI) > MaxMetadataURILen {
		return ErrInvalidMetadataURI
	}
	// 任意項目。設定されているなら 32byte pubkey であること。
	if d.OnChainAccount != "" && !WalletAddressValid(d.OnChainAccount) {
		return ErrInvalidOnChainAccount
	}
	return nil
}

// WalletAddressValid reports whether s is a base58-encoded 32-byte pubkey.
func WalletAddressValid(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	b, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(b) == walletByteLen
}

// DropsTableDDL defines the SQL for the drops table migration.
const DropsTableDDL = `
-- Migration: Initialize Drop domain
-- Mirrors internal/domain/drop/entity.go

BEGIN;

CREATE TABLE IF NOT EXISTS drops (
  id             TEXT      PRIMARY KEY,
  seller         TEXT      NOT NULL,
  price          BIGINT    NOT NULL,
  commission_bps INTEGER   NOT NULL,
  metadata_uri   TEXT      NOT NULL,
  drop_account   TEXT      NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT chk_drops_non_empty CHECK (
    char_length(trim(id)) > 0
    AND char_length(trim(seller)) > 0
  ),
  CONSTRAINT chk_drops_price_non_negative CHECK (price >= 0),
  CONSTRAINT chk_drops_commission_bps CHECK (commission_bps BETWEEN 0 AND 10000),
  CONSTRAINT chk_drops_metadata_uri_len CHECK (char_length(metadata_uri) BETWEEN 1 AND 200)
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_drops_seller ON drops(seller);

COMMIT;
`
