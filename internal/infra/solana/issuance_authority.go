// internal/infra/solana/issuance_authority.go
package solana

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
)

// AuthoritySeed は issuance authority PDA の固定ラベル。
// デプロイ済み solstyle プログラム側の seeds = [b"authority"] と一致させること。
const AuthoritySeed = "authority"

var ErrProgramIDEmpty = errors.New("issuance_authority: programID is empty")

// IssuanceAuthority is the deterministic, keyless signing identity used to
// authorize mint / metadata registration on behalf of the sale logic.
//
// - PublicKey: ed25519 曲線上に乗らない program-derived address
// - Bump     : 「秘密鍵が存在しない」ことの証明になる discriminator
//
// 毎回の呼び出しで導出し直す（保存しない）。誰でも導出できるが、
// signer として使えるのはプログラムロジック自身だけ。
type IssuanceAuthority struct {
	PublicKey common.PublicKey
	Bump      uint8
}

// DeriveIssuanceAuthority derives the issuance authority for the program.
//
// 純関数: (label, bump) -> identity。bump は 255 から降順に探索し、
// 曲線外に落ちる最初のアドレスを採用する（Solana の PDA 規約そのもの）。
func DeriveIssuanceAuthority(programID string) (IssuanceAuthority, error) {
	pid := strings.TrimSpace(programID)
	if pid == "" {
		return IssuanceAuthority{}, ErrProgramIDEmpty
	}
	program := common.PublicKeyFromString(pid)

	for bump := 255; bump >= 0; bump-- {
		addr, err := common.CreateProgramAddress(
			[][]byte{[]byte(AuthoritySeed), {byte(bump)}},
			program,
		)
		if err != nil {
			// 曲線上に乗ってしまった bump はスキップして次を試す
			continue
		}
		return IssuanceAuthority{PublicKey: addr, Bump: uint8(bump)}, nil
	}

	return IssuanceAuthority{}, fmt.Errorf("issuance_authority: no valid bump for program %s", pid)
}
