// internal/domain/purchase/entity.go
package purchase

import (
	"errors"
	"strings"
	"time"
)

// ========================================
// Entity: Purchase (purchases テーブル 1 レコード)
// ========================================
//
// buy_drop 成功 1 回につき 1 レコード。Drop 側は購入で一切変化しないため、
// 「何がいつ誰に売れてどのトークンが発行されたか」はすべてこちらが持つ。
//
// - dropId             : 対象 Drop
// - buyer              : 購入者ウォレット (base58)
// - seller             : 支払い先（Drop.Seller のスナップショット）
// - paymentLamports    : 支払総額（= Drop.Price）
// - sellerLamports     : 出品者取り分
// - commissionLamports : プラットフォーム手数料
// - mintAddress        : 発行した NFT の mint (base58)
// - txSignature        : 決済+発行を載せた Solana トランザクション署名
type Purchase struct {
	ID                 string    `json:"id"`
	DropID             string    `json:"dropId"`
	Buyer              string    `json:"buyer"`
	Seller             string    `json:"seller"`
	PaymentLamports    uint64    `json:"paymentLamports"`
	SellerLamports     uint64    `json:"sellerLamports"`
	CommissionLamports uint64    `json:"commissionLamports"`
	MintAddress        string    `json:"mintAddress"`
	TxSignature        string    `json:"txSignature"`
	PurchasedAt        time.Time `json:"purchasedAt"`
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidDropID      = errors.New("purchase: invalid dropId")
	ErrInvalidBuyer       = errors.New("purchase: invalid buyer wallet")
	ErrInvalidSeller      = errors.New("purchase: invalid seller wallet")
	ErrInvalidAmounts     = errors.New("purchase: split does not sum to payment")
	ErrInvalidMintAddress = errors.New("purchase: invalid mintAddress")
	ErrInvalidTxSignature = errors.New("purchase: invalid txSignature")
	ErrNotFound           = errors.New("purchase: not found")
)

// ========================================
// Constructors
// ========================================

func New(
	id, dropID, buyer, seller string,
	payment uint64,
	split PaymentSplit,
	mintAddress, txSignature string,
	purchasedAt time.Time,
) (Purchase, error) {
	p := Purchase{
		ID:                 strings.TrimSpace(id),
		DropID:             strings.TrimSpace(dropID),
		Buyer:              strings.TrimSpace(buyer),
		Seller:             strings.TrimSpace(seller),
		PaymentLamports:    payment,
		SellerLamports:     split.SellerLamports,
		CommissionLamports: split.CommissionLamports,
		MintAddress:        strings.TrimSpace(mintAddress),
		TxSignature:        strings.TrimSpace(txSignature),
		PurchasedAt:        purchasedAt.UTC(),
	}
	if err := p.validate(); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

// ========================================
// Validation
// ========================================

func (p Purchase) validate() error {
	if p.DropID == "" {
		return ErrInvalidDropID
	}
	if p.Buyer == "" {
		return ErrInvalidBuyer
	}
	if p.Seller == "" {
		return ErrInvalidSeller
	}
	// 分配の完全性: 取り分の和は必ず支払総額
	if p.SellerLamports+p.CommissionLamports != p.PaymentLamports {
		return ErrInvalidAmounts
	}
	if p.MintAddress == "" {
		return ErrInvalidMintAddress
	}
	if p.TxSignature == "" {
		return ErrInvalidTxSignature
	}
	return nil
}

// PurchasesTableDDL defines the SQL for the purchases table migration.
const PurchasesTableDDL = `
-- Migration: Initialize Purchase domain
-- Mirrors internal/domain/purchase/entity.go

BEGIN;

CREATE TABLE IF NOT EXISTS purchases (
  id                  TEXT      PRIMARY KEY,
  drop_id             TEXT      NOT NULL,
  buyer               TEXT      NOT NULL,
  seller              TEXT      NOT NULL,
  payment_lamports    BIGINT    NOT NULL,
  seller_lamports     BIGINT    NOT NULL,
  commission_lamports BIGINT    NOT NULL,
  mint_address        TEXT      NOT NULL,
  tx_signature        TEXT      NOT NULL,
  purchased_at        TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT chk_purchases_non_empty CHECK (
    char_length(trim(id)) > 0
    AND char_length(trim(drop_id)) > 0
    AND char_length(trim(buyer)) > 0
    AND char_length(trim(seller)) > 0
  ),
  -- 分配の完全性は DB 側でも守る
  CONSTRAINT chk_purchases_split_sum CHECK (
    seller_lamports + commission_lamports = payment_lamports
  )
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_purchases_drop_id ON purchases(drop_id);
CREATE INDEX IF NOT EXISTS idx_purchases_buyer ON purchases(buyer);

COMMIT;
`
