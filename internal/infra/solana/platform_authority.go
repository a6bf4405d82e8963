// internal/infra/solana/platform_authority.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

// PlatformAuthority は Secret Manager に保存してあるプラットフォーム運用鍵です。
// オフチェーン実行モードでは mint authority / update authority / 手数料の
// fee payer 相当として、この鍵がトランザクションに署名します。
type PlatformAuthority struct {
	Account types.Account
}

// LoadPlatformAuthority は secretName（Secret Version のフルパス、例:
//
//	"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
//
// ）から solana-keygen の keypair(JSON配列 [u8;64]) を復元して返します。
func LoadPlatformAuthority(ctx context.Context, secretName string) (*PlatformAuthority, error) {
	secretName = strings.TrimSpace(secretName)
	if secretName == "" {
		return nil, fmt.Errorf("platform_authority: secret name is empty")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return nil, fmt.Errorf("AccessSecretVersion: %w", err)
	}

	keyBytes, err := decodeKeypairJSON(resp.Payload.Data)
	if err != nil {
		return nil, err
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("AccountFromBytes: %w", err)
	}

	log.Printf(
		"[solstyle-authority] loaded platform authority from Secret Manager: secret=%s pubkey=%s",
		secretName,
		acc.PublicKey.ToBase58(),
	)

	return &PlatformAuthority{Account: acc}, nil
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
	}

	// フォールバック: [int,int,...] の形式
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}
