// internal/adapters/out/firestore/common_test.go
package firestore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLamportsToInt64(t *testing.T) {
	v, err := lamportsToInt64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	// ちょうど int64 上限は許可
	v, err = lamportsToInt64(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), v)

	// それを超える u64 は黙って符号反転させずエラー
	_, err = lamportsToInt64(math.MaxInt64 + 1)
	assert.ErrorIs(t, err, ErrLamportsOverflow)

	_, err = lamportsToInt64(math.MaxUint64)
	assert.ErrorIs(t, err, ErrLamportsOverflow)
}
