// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	httpadapter "solstyle/internal/adapters/in/http"
	"solstyle/internal/adapters/in/http/middleware"
	dbadapter "solstyle/internal/adapters/out/db"
	fsadapter "solstyle/internal/adapters/out/firestore"
	"solstyle/internal/adapters/out/gcs"
	"solstyle/internal/adapters/out/mail"
	usecase "solstyle/internal/application/usecase"
	dropdom "solstyle/internal/domain/drop"
	purchasedom "solstyle/internal/domain/purchase"
	"solstyle/internal/infra/arweave"
	"solstyle/internal/infra/config"
	"solstyle/internal/infra/database"
	firestoreinfra "solstyle/internal/infra/firestore"
	solanainfra "solstyle/internal/infra/solana"
)

// Container は依存を組み立てて保持します。
//
// 永続化:
//   - DATABASE_URL があれば PostgreSQL が主ストア
//   - なければ Firestore（Cloud Run デフォルト）
//
// Solana:
//   - SOLANA_AUTHORITY_KEY_SECRET が設定されていれば実行系 (buy_drop) が有効
//   - 未設定なら read-only で起動し、buy_drop は 502 を返す
type Container struct {
	Cfg *config.Config

	// infra clients
	Firestore *firestoreinfra.ClientWrapper
	DB        *database.DB
	GCS       *gcs.MetadataRepositoryGCS
	Secrets   *solanainfra.WalletSecretProviderSM

	// repositories
	DropRepo     dropdom.RepositoryPort
	PurchaseRepo purchasedom.RepositoryPort

	// usecases
	DropUC     *usecase.DropUsecase
	PurchaseUC *usecase.PurchaseUsecase

	// HTTP
	FirebaseAuth *middleware.FirebaseAuthClient
}

// NewContainer builds the whole dependency graph from environment config.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := config.Load()
	c := &Container{Cfg: cfg}

	// ─────────────────────────────────────────────
	// 1) 永続化層
	// ─────────────────────────────────────────────
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := database.NewConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("di: postgres: %w", err)
		}
		c.DB = db
		c.DropRepo = dbadapter.NewDropRepositoryPG(db.Client)
		c.PurchaseRepo = dbadapter.NewPurchaseRepositoryPG(db.Client)
		log.Println("[di] store=postgres")
	} else {
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("di: firestore: %w", err)
		}
		c.Firestore = fs
		c.DropRepo = fsadapter.NewDropRepositoryFS(fs.Client)
		c.PurchaseRepo = fsadapter.NewPurchaseRepositoryFS(fs.Client)
		log.Println("[di] store=firestore")
	}

	// ─────────────────────────────────────────────
	// 2) metadata.json 置き場 (GCS 優先、無ければ Arweave/Irys、どちらも任意)
	// ─────────────────────────────────────────────
	var uploader usecase.MetadataUploader
	switch {
	case strings.TrimSpace(cfg.GCSBucket) != "":
		g, err := gcs.NewMetadataRepositoryGCS(ctx, cfg.GCSBucket, cfg.GCPCreds)
		if err != nil {
			return nil, fmt.Errorf("di: gcs: %w", err)
		}
		c.GCS = g
		uploader = g
		log.Println("[di] metadata uploader=gcs")
	case strings.TrimSpace(cfg.ArweaveUploaderURL) != "":
		uploader = arweave.NewHTTPUploader(cfg.ArweaveUploaderURL, cfg.ArweaveAPIKey)
		log.Println("[di] metadata uploader=arweave")
	default:
		log.Println("[di] no metadata uploader configured; PrepareMetadata disabled")
	}

	// ─────────────────────────────────────────────
	// 3) Solana 実行系 (SOLANA_EXECUTION_MODE で選択)
	//   custody — プラットフォーム鍵が mint authority。鍵の Secret が必須
	//   program — buy_drop 命令 1 本。issuance authority PDA が CPI 署名者で、
	//             プラットフォーム鍵は不要
	// ─────────────────────────────────────────────
	var (
		executor usecase.SaleExecutor
		secrets  usecase.BuyerWalletSecretProvider
	)
	switch strings.TrimSpace(cfg.SolanaExecutionMode) {
	case "program":
		executor = solanainfra.NewSaleExecutorProgram(cfg.SolanaRPCURL, cfg.SolanaProgramID)
		log.Printf("[di] sale executor=program programId=%s", cfg.SolanaProgramID)
	default: // custody
		if strings.TrimSpace(cfg.AuthorityKeySecret) != "" {
			authority, err := solanainfra.LoadPlatformAuthority(ctx, cfg.AuthorityKeySecret)
			if err != nil {
				return nil, fmt.Errorf("di: platform authority: %w", err)
			}
			executor = solanainfra.NewSaleExecutorSolana(cfg.SolanaRPCURL, authority, cfg.SolanaProgramID)
			log.Println("[di] sale executor=custody")
		} else {
			log.Println("[di] SOLANA_AUTHORITY_KEY_SECRET not set; buy_drop disabled")
		}
	}
	if executor != nil {
		sp, err := solanainfra.NewWalletSecretProviderSM(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, fmt.Errorf("di: wallet secret provider: %w", err)
		}
		c.Secrets = sp
		secrets = sp
	}

	// ─────────────────────────────────────────────
	// 4) SendGrid (任意)
	// ─────────────────────────────────────────────
	var mailer usecase.ReceiptMailer
	if strings.TrimSpace(cfg.SendGridAPIKey) != "" {
		m, err := mail.NewReceiptMailerSendGrid(cfg.SendGridAPIKey, cfg.MailFrom)
		if err != nil {
			return nil, fmt.Errorf("di: sendgrid: %w", err)
		}
		mailer = m
	}

	// ─────────────────────────────────────────────
	// 5) Usecases
	// ─────────────────────────────────────────────
	c.DropUC = usecase.NewDropUsecase(c.DropRepo, uploader)
	c.PurchaseUC = usecase.NewPurchaseUsecase(
		c.DropRepo, c.PurchaseRepo,
		secrets, executor, mailer,
		usecase.SaleConstants{
			CommissionWallet: cfg.CommissionWallet,
			NFTName:          cfg.NFTName,
			NFTSymbol:        cfg.NFTSymbol,
		},
	)

	// ─────────────────────────────────────────────
	// 6) Firebase Auth (任意: 未設定なら POST も未認証で通す)
	// ─────────────────────────────────────────────
	if strings.TrimSpace(cfg.FirebaseProjectID) != "" {
		auth, err := newFirebaseAuth(ctx, cfg)
		if err != nil {
			// ローカル開発では認証なしで起動できるようにする
			log.Printf("[di] WARN: firebase auth unavailable: %v", err)
		} else {
			c.FirebaseAuth = auth
		}
	}

	return c, nil
}

// Router assembles the HTTP handler tree from the container.
func (c *Container) Router() http.Handler {
	return httpadapter.NewRouter(httpadapter.RouterDeps{
		DropUC:       c.DropUC,
		PurchaseUC:   c.PurchaseUC,
		FirebaseAuth: c.FirebaseAuth,
	})
}

// Close releases all held clients (reverse order of acquisition).
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Secrets != nil {
		if err := c.Secrets.Close(); err != nil {
			log.Printf("[di] close secrets: %v", err)
		}
	}
	if c.GCS != nil {
		if err := c.GCS.Close(); err != nil {
			log.Printf("[di] close gcs: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("[di] close db: %v", err)
		}
	}
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			log.Printf("[di] close firestore: %v", err)
		}
	}
}

func newFirebaseAuth(ctx context.Context, cfg *config.Config) (*middleware.FirebaseAuthClient, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(cfg.GCPCreds) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCreds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	auth, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}

	log.Printf("[di] firebase auth ready project=%s", cfg.FirebaseProjectID)
	return auth, nil
}
