// internal/adapters/out/db/id.go
package db

import (
	"crypto/rand"
	"encoding/hex"
)

// newID は 16 バイト乱数の hex 文字列 (32 桁) を返す。
func newID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand が壊れている環境では続行不能
	}
	return hex.EncodeToString(b)
}
