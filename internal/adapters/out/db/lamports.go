// internal/adapters/out/db/lamports.go
package db

import (
	"errors"
	"math"
)

// ErrLamportsOverflow means a u64 lamports value does not fit the BIGINT column.
var ErrLamportsOverflow = errors.New("db: lamports value exceeds int64 range")

// lamportsToInt64 converts a u64 lamports value into the BIGINT representation.
// 黙って符号反転させないための境界チェック。
func lamportsToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, ErrLamportsOverflow
	}
	return int64(v), nil
}
