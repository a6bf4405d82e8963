// internal/infra/solana/drop_account.go
package solana

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
)

// オンチェーンの Drop アカウントのワイヤレイアウト。
// Anchor: 8 (discriminator) + 32 (seller) + 8 (price) + 2 (commission_bps)
//         + 4+200 (metadata_uri)
//
// サービス側 DB の Drop レコードとオンチェーン状態の突き合わせ
// （cmd/devnet_buy_test や運用時の検証）に使う。

const (
	dropAccountDiscriminatorLen = 8

	// INIT_SPACE 相当（discriminator を除いた確保量）
	dropAccountDataSpace = 32 + 8 + 2 + 4 + 200
)

var (
	ErrDropAccountTooShort         = errors.New("drop_account: data too short")
	ErrDropAccountBadDiscriminator = errors.New("drop_account: discriminator mismatch")
)

// DropAccount mirrors the on-chain Drop account state.
type DropAccount struct {
	Seller        [32]uint8
	Price         uint64
	CommissionBps uint16
	MetadataURI   string
}

// SellerBase58 returns the seller pubkey as base58.
func (a DropAccount) SellerBase58() string {
	return base58.Encode(a.Seller[:])
}

// dropAccountDiscriminator returns sha256("account:Drop")[:8] — the Anchor
// account discriminator.
func dropAccountDiscriminator() []byte {
	h := sha256.Sum256([]byte("account:Drop"))
	return h[:dropAccountDiscriminatorLen]
}

// EncodeDropAccount serializes the account including the discriminator.
func EncodeDropAccount(a DropAccount) ([]byte, error) {
	body, err := borsh.Serialize(a)
	if err != nil {
		return nil, fmt.Errorf("drop_account: serialize: %w", err)
	}
	return append(dropAccountDiscriminator(), body...), nil
}

// DecodeDropAccount deserializes raw on-chain account data.
func DecodeDropAccount(data []byte) (DropAccount, error) {
	if len(data) < dropAccountDiscriminatorLen {
		return DropAccount{}, ErrDropAccountTooShort
	}
	if !bytes.Equal(data[:dropAccountDiscriminatorLen], dropAccountDiscriminator()) {
		return DropAccount{}, ErrDropAccountBadDiscriminator
	}

	var out DropAccount
	if err := borsh.Deserialize(&out, data[dropAccountDiscriminatorLen:]); err != nil {
		return DropAccount{}, fmt.Errorf("drop_account: deserialize: %w", err)
	}
	return out, nil
}

// FetchDropAccount loads and decodes a Drop account from the chain.
func FetchDropAccount(ctx context.Context, c *client.Client, address string) (DropAccount, error) {
	if c == nil {
		return DropAccount{}, errors.New("drop_account: rpc client is nil")
	}
	addr := strings.TrimSpace(address)
	if addr == "" {
		return DropAccount{}, errors.New("drop_account: address is empty")
	}

	info, err := c.GetAccountInfo(ctx, addr)
	if err != nil {
		return DropAccount{}, fmt.Errorf("drop_account: GetAccountInfo: %w", err)
	}
	return DecodeDropAccount(info.Data)
}
