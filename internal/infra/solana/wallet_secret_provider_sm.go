// internal/infra/solana/wallet_secret_provider_sm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWalletSecretNotConfigured = errors.New("wallet_secret_provider: not configured")
	ErrWalletSecretEmptyWallet   = errors.New("wallet_secret_provider: walletAddress is empty")
	ErrWalletSecretNotFound      = errors.New("wallet_secret_provider: secret not found")
)

// WalletSecretProviderSM resolves buyer wallet signers from Secret Manager.
// 署名素材は string(JSON int array) のまま返し、SaleExecutorSolana 側の
// normalizeToAccount で types.Account に復元する。
//
// Secret 名の規約: secretId = prefix + walletAddress
// default prefix = "solstyle-wallet-"
type WalletSecretProviderSM struct {
	Client    *secretmanager.Client
	ProjectID string

	SecretIDPrefix string
}

func NewWalletSecretProviderSM(ctx context.Context, projectID string) (*WalletSecretProviderSM, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		pid = strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
	}
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrWalletSecretNotConfigured)
	}

	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSpace(os.Getenv("SOLANA_WALLET_SECRET_PREFIX"))
	if prefix == "" {
		prefix = "solstyle-wallet-"
	}

	return &WalletSecretProviderSM{
		Client:         c,
		ProjectID:      pid,
		SecretIDPrefix: prefix,
	}, nil
}

func (p *WalletSecretProviderSM) GetSigner(ctx context.Context, walletAddress string) (any, error) {
	if p == nil || p.Client == nil {
		return nil, ErrWalletSecretNotConfigured
	}

	w := strings.TrimSpace(walletAddress)
	if w == "" {
		return nil, ErrWalletSecretEmptyWallet
	}

	secretID := strings.TrimSpace(p.SecretIDPrefix) + w
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.ProjectID, secretID)

	res, err := p.Client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: wallet=%s", ErrWalletSecretNotFound, maskShort(w))
		}
		return nil, fmt.Errorf("wallet_secret_provider: AccessSecretVersion: %w", err)
	}
	if res == nil || res.Payload == nil {
		return nil, ErrWalletSecretNotFound
	}

	s := strings.TrimSpace(string(res.Payload.Data))
	if s == "" {
		return nil, ErrWalletSecretNotFound
	}

	return s, nil
}

func (p *WalletSecretProviderSM) Close() error {
	if p == nil || p.Client == nil {
		return nil
	}
	return p.Client.Close()
}
