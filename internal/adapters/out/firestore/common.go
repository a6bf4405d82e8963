// internal/adapters/out/firestore/common.go
package firestore

import (
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// isNotFound reports whether err is a Firestore document-not-found error.
func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ErrLamportsOverflow means a u64 lamports value does not fit the stored int64.
var ErrLamportsOverflow = errors.New("firestore: lamports value exceeds int64 range")

// lamportsToInt64 converts a u64 lamports value into the Firestore integer
// representation. 黙って符号反転させないための境界チェック。
func lamportsToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, ErrLamportsOverflow
	}
	return int64(v), nil
}
