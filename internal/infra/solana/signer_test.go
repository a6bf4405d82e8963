// internal/infra/solana/signer_test.go
package solana

import (
	"encoding/json"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeToAccount_Account(t *testing.T) {
	acc := types.NewAccount()

	got, err := normalizeToAccount(acc)
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, got.PublicKey)

	got, err = normalizeToAccount(&acc)
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, got.PublicKey)
}

func TestNormalizeToAccount_Bytes(t *testing.T) {
	acc := types.NewAccount()

	got, err := normalizeToAccount([]byte(acc.PrivateKey))
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, got.PublicKey)

	_, err = normalizeToAccount([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrSignerInvalidPrivKey)
}

func TestNormalizeToAccount_JSONString(t *testing.T) {
	acc := types.NewAccount()

	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)

	got, err := normalizeToAccount(string(raw))
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, got.PublicKey)
}

func TestNormalizeToAccount_Invalid(t *testing.T) {
	_, err := normalizeToAccount(nil)
	assert.ErrorIs(t, err, ErrSignerEmpty)

	_, err = normalizeToAccount("   ")
	assert.ErrorIs(t, err, ErrSignerEmpty)

	_, err = normalizeToAccount("not json")
	assert.ErrorIs(t, err, ErrSignerInvalidType)

	_, err = normalizeToAccount(42)
	assert.ErrorIs(t, err, ErrSignerInvalidType)
}
