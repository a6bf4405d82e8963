// internal/infra/solana/signer.go
package solana

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrSignerEmpty          = errors.New("solana signer: signer is nil")
	ErrSignerInvalidType    = errors.New("solana signer: invalid signer type")
	ErrSignerInvalidPrivKey = errors.New("solana signer: invalid private key bytes")
)

// normalizeToAccount converts signer material to a blocto types.Account.
// Supports:
// - types.Account / *types.Account
// - []byte (len 64)
// - string: JSON array "[1,2,...]" (Secret Manager format)
func normalizeToAccount(signerAny any) (types.Account, error) {
	switch t := signerAny.(type) {
	case types.Account:
		return t, nil
	case *types.Account:
		if t == nil {
			return types.Account{}, ErrSignerEmpty
		}
		return *t, nil
	case []byte:
		if len(t) != 64 {
			return types.Account{}, fmt.Errorf("%w: want 64 bytes, got %d", ErrSignerInvalidPrivKey, len(t))
		}
		acc, err := types.AccountFromBytes(t)
		if err != nil {
			return types.Account{}, fmt.Errorf("solana signer: AccountFromBytes: %w", err)
		}
		return acc, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return types.Account{}, ErrSignerEmpty
		}
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return types.Account{}, fmt.Errorf("%w: signer string is not json int array: %v", ErrSignerInvalidType, err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return types.Account{}, fmt.Errorf("%w: byte out of range at %d: %d", ErrSignerInvalidPrivKey, i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != 64 {
			return types.Account{}, fmt.Errorf("%w: want 64 bytes, got %d", ErrSignerInvalidPrivKey, len(b))
		}
		acc, err := types.AccountFromBytes(b)
		if err != nil {
			return types.Account{}, fmt.Errorf("solana signer: AccountFromBytes(json): %w", err)
		}
		return acc, nil
	case nil:
		return types.Account{}, ErrSignerEmpty
	default:
		return types.Account{}, fmt.Errorf("%w: %T", ErrSignerInvalidType, signerAny)
	}
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
