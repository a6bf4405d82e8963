// internal/domain/drop/entity_test.go
package drop

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wallet(b byte) string {
	return base58.Encode(bytes.Repeat([]byte{b}, 32))
}

func TestNew_Valid(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	d, err := New("drop-1", wallet(7), 1_000_000, 250, "https://example.com/metadata.json", "", now)
	require.NoError(t, err)

	assert.Equal(t, "drop-1", d.ID)
	assert.Equal(t, wallet(7), d.Seller)
	assert.Equal(t, uint64(1_000_000), d.Price)
	assert.Equal(t, uint16(250), d.CommissionBps)
	assert.Equal(t, now, d.CreatedAt)
}

func TestNew_TrimsWhitespace(t *testing.T) {
	d, err := New("  id  ", "  "+wallet(1)+"  ", 1, 0, "  https://x/m.json  ", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "id", d.ID)
	assert.Equal(t, wallet(1), d.Seller)
	assert.Equal(t, "https://x/m.json", d.MetadataURI)
}

func TestNew_SellerValidation(t *testing.T) {
	cases := []struct {
		name   string
		seller string
	}{
		{"empty", ""},
		{"not base58", "0OIl+/"},
		{"too short", base58.Encode([]byte{1, 2, 3})},
		{"too long", base58.Encode(bytes.Repeat([]byte{9}, 33))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("id", tc.seller, 1, 0, "https://x/m.json", "", time.Now())
			assert.ErrorIs(t, err, ErrInvalidSeller)
		})
	}
}

func TestNew_CommissionBounds(t *testing.T) {
	// ちょうど 100% は許可
	_, err := New("id", wallet(2), 1, MaxCommissionBps, "https://x/m.json", "", time.Now())
	require.NoError(t, err)

	_, err = New("id", wallet(2), 1, MaxCommissionBps+1, "https://x/m.json", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidCommissionRate)
}

func TestNew_MetadataURIBounds(t *testing.T) {
	_, err := New("id", wallet(3), 1, 0, "", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidMetadataURI)

	// ちょうど 200 文字は許可
	uri := "https://x/" + strings.Repeat("a", MaxMetadataURILen-10)
	require.Len(t, uri, MaxMetadataURILen)
	_, err = New("id", wallet(3), 1, 0, uri, "", time.Now())
	require.NoError(t, err)

	_, err = New("id", wallet(3), 1, 0, uri+"a", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidMetadataURI)
}

func TestNew_OnChainAccount(t *testing.T) {
	// 空は許可（custody モードの Drop は on-chain アカウントを持たない）
	d, err := New("id", wallet(6), 1, 0, "https://x/m.json", "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, d.OnChainAccount)

	d, err = New("id", wallet(6), 1, 0, "https://x/m.json", "  "+wallet(8)+"  ", time.Now())
	require.NoError(t, err)
	assert.Equal(t, wallet(8), d.OnChainAccount)

	_, err = New("id", wallet(6), 1, 0, "https://x/m.json", "not-a-pubkey", time.Now())
	assert.ErrorIs(t, err, ErrInvalidOnChainAccount)
}

func TestNew_ZeroPriceAllowed(t *testing.T) {
	// 無料 Drop も記録としては valid（支払検証側で price==payment を要求するだけ）
	_, err := New("id", wallet(4), 0, 0, "https://x/m.json", "", time.Now())
	assert.NoError(t, err)
}

func TestWalletAddressValid(t *testing.T) {
	assert.True(t, WalletAddressValid(wallet(5)))
	assert.True(t, WalletAddressValid("11111111111111111111111111111111")) // system program
	assert.False(t, WalletAddressValid(""))
	assert.False(t, WalletAddressValid("   "))
	assert.False(t, WalletAddressValid("abc"))
}
