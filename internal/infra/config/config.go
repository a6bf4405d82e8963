// internal/infra/config/config.go
package config

import "os"

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port string

	// GCP
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string
	GCSBucket                string
	GCPCreds                 string

	// PostgreSQL (空なら PG ミラーは無効)
	DatabaseURL string

	// Solana
	SolanaRPCURL string
	// デプロイ済み solstyle プログラムの Program ID（issuance authority の導出に使用）
	SolanaProgramID string
	// 実行モード:
	//   custody — プラットフォーム鍵を mint authority に使い、命令列をサービス側で組む
	//   program — デプロイ済みプログラムの buy_drop 命令 1 本。PDA が CPI 署名者
	SolanaExecutionMode string
	// プラットフォーム運用鍵 (Secret Manager の Secret Version フルパス、custody モードのみ)
	AuthorityKeySecret string

	// buy_drop のデプロイ固定値
	CommissionWallet string
	NFTName          string
	NFTSymbol        string

	// Arweave/Irys uploader（GCS_BUCKET が無い場合の metadata 置き場）
	ArweaveUploaderURL string
	ArweaveAPIKey      string

	// SendGrid（空ならレシートメールはスキップ）
	SendGridAPIKey string
	MailFrom       string
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	// ベースとなる GCP プロジェクト ID
	defaultProject := getenvDefault("GCP_PROJECT_ID", "solstyle-development")

	cfg := &Config{
		Port: getenvDefault("PORT", "8080"),

		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),
		GCSBucket:                os.Getenv("GCS_BUCKET"),
		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		SolanaRPCURL:        os.Getenv("SOLANA_RPC_URL"),
		SolanaProgramID:     getenvDefault("SOLSTYLE_PROGRAM_ID", "8ZRrkfYETaq36m1rcrnMgjEUZobzXBkpMyiTbvkCP5QG"),
		SolanaExecutionMode: getenvDefault("SOLANA_EXECUTION_MODE", "custody"),
		AuthorityKeySecret:  os.Getenv("SOLANA_AUTHORITY_KEY_SECRET"),

		// 手数料受取ウォレットは呼び出し側から指定できない固定値
		CommissionWallet: os.Getenv("COMMISSION_WALLET"),
		NFTName:          getenvDefault("NFT_DISPLAY_NAME", "SolStyle Fit"),
		NFTSymbol:        getenvDefault("NFT_SYMBOL", "SOLSTYL"),

		ArweaveUploaderURL: os.Getenv("ARWEAVE_UPLOADER_URL"),
		ArweaveAPIKey:      os.Getenv("IRYS_SERVICE_API_KEY"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getenvDefault("MAIL_FROM", "receipts@solstyle.app"),
	}

	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
