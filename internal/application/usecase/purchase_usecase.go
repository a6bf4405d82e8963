// internal/application/usecase/purchase_usecase.go
package usecase

/*
責任と機能:
- buy_drop: Drop を読み、支払額・出品者の検証と分配計算を行ったうえで、
  「出品者への送金 + 手数料送金 + NFT ミント + メタデータ登録」を
  1 本の Solana トランザクションとして SaleExecutor に実行させる。
- 途中のどの段階で失敗しても、オンチェーン効果はトランザクション単位で
  丸ごと不成立になる（部分実行なし）。Usecase 自身は何も巻き戻さない。
- 成功後に Purchase レコード（領収レコード）を保存し、任意で購入者へ
  レシートメールを送る（メールは best-effort、失敗しても購入は成立）。

重要:
- Drop レコードは購入で一切変更しない。同じ Drop への 2 回目の buy_drop は
  新しい mint を生成して同じ分配を再計算するだけ（multi-sale-by-design）。
- 検証順は固定: 支払額一致 → 出品者一致 → 分配計算。
*/

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	dropdom "solstyle/internal/domain/drop"
	purchasedom "solstyle/internal/domain/purchase"
)

// ============================================================
// Ports
// ============================================================

// SaleExecutor executes one atomic sale on the ledger:
// two lamport transfers + mint(1) + metadata registration in a single tx.
// Solana 実装は infra/solana 側。テストでは呼び出しを記録するだけの
// フェイクに差し替える。
type SaleExecutor interface {
	ExecuteSale(ctx context.Context, in ExecuteSaleInput) (ExecuteSaleResult, error)
}

type ExecuteSaleInput struct {
	// identifiers (ログ用)
	DropID string

	// オンチェーン実行モード用。デプロイ済みプログラムの Drop アカウント address。
	// custody モードの executor はこの値を使わない。
	DropAccount string

	// wallets
	BuyerWallet      string
	SellerWallet     string
	CommissionWallet string

	// signer
	BuyerSigner any // WalletSecretProvider が返す署名素材

	// split (検証済み: Seller + Commission = Drop.Price)
	SellerLamports     uint64
	CommissionLamports uint64

	// issued asset
	Name        string
	Symbol      string
	MetadataURI string
}

type ExecuteSaleResult struct {
	MintAddress string
	TxSignature string
}

// BuyerWalletSecretProvider provides a signing capability for the buyer wallet.
type BuyerWalletSecretProvider interface {
	GetSigner(ctx context.Context, walletAddress string) (any, error)
}

// ReceiptMailer sends a purchase receipt. 実装は adapters/out/mail 側。
type ReceiptMailer interface {
	SendReceipt(ctx context.Context, to string, p purchasedom.Purchase) error
}

// ============================================================
// Usecase
// ============================================================

// SaleConstants は buy_drop のデプロイ固定値。
// 呼び出し側からは指定できない（手数料受取ウォレット、表示名、シンボル）。
type SaleConstants struct {
	CommissionWallet string
	NFTName          string
	NFTSymbol        string
}

type PurchaseUsecase struct {
	dropRepo     dropdom.RepositoryPort
	purchaseRepo purchasedom.RepositoryPort

	secrets  BuyerWalletSecretProvider
	executor SaleExecutor
	mailer   ReceiptMailer // optional

	consts SaleConstants

	now func() time.Time
}

func NewPurchaseUsecase(
	dropRepo dropdom.RepositoryPort,
	purchaseRepo purchasedom.RepositoryPort,
	secrets BuyerWalletSecretProvider,
	executor SaleExecutor,
	mailer ReceiptMailer,
	consts SaleConstants,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		dropRepo:     dropRepo,
		purchaseRepo: purchaseRepo,
		secrets:      secrets,
		executor:     executor,
		mailer:       mailer,
		consts:       consts,
		now:          time.Now,
	}
}

// ============================================================
// buy_drop
// ============================================================

type BuyDropInput struct {
	DropID string `json:"dropId"`

	// 購入者
	BuyerWallet string `json:"buyerWallet"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`

	// 呼び出し側が提示する出品者。Drop.Seller と一致しなければ拒否。
	SellerWallet string `json:"sellerWallet"`

	// コミットする支払額 (lamports)。Drop.Price と完全一致のみ受け付ける。
	PaymentLamports uint64 `json:"paymentLamports"`
}

type BuyDropResult struct {
	Purchase *purchasedom.Purchase `json:"purchase"`
}

// BuyDrop runs the full purchase transition for one Drop.
func (u *PurchaseUsecase) BuyDrop(ctx context.Context, in BuyDropInput) (*BuyDropResult, error) {
	start := time.Now()

	if u == nil {
		return nil, errors.New("purchase usecase is nil")
	}
	if u.dropRepo == nil || u.purchaseRepo == nil {
		return nil, errors.New("purchase usecase: repos are not configured")
	}
	if u.secrets == nil || u.executor == nil {
		return nil, errors.New("purchase usecase: executor/secrets are not configured")
	}

	dropID := strings.TrimSpace(in.DropID)
	if dropID == "" {
		return nil, dropdom.ErrInvalidID
	}
	buyerWallet := strings.TrimSpace(in.BuyerWallet)
	if !dropdom.WalletAddressValid(buyerWallet) {
		return nil, purchasedom.ErrInvalidBuyer
	}

	log.Printf(
		"[purchase_usecase] BuyDrop start dropId=%s buyer=%s payment=%d",
		dropID, maskWallet(buyerWallet), in.PaymentLamports,
	)

	// 1) Drop を取得（read-only。購入がこのレコードを書き換えることはない）
	d, err := u.dropRepo.GetByID(ctx, dropID)
	if err != nil {
		log.Printf("[purchase_usecase] BuyDrop abort reason=drop_load_error dropId=%s err=%v elapsed=%s", dropID, err, time.Since(start))
		return nil, err
	}
	if d == nil {
		return nil, dropdom.ErrNotFound
	}

	// 2) 支払額は完全一致のみ（過不足・部分約定なし）
	if in.PaymentLamports != d.Price {
		log.Printf(
			"[purchase_usecase] BuyDrop abort reason=incorrect_payment dropId=%s want=%d got=%d",
			dropID, d.Price, in.PaymentLamports,
		)
		return nil, purchasedom.ErrIncorrectPaymentAmount
	}

	// 3) 提示された出品者が Drop の記録と一致すること（has_one 相当）
	if strings.TrimSpace(in.SellerWallet) != d.Seller {
		log.Printf("[purchase_usecase] BuyDrop abort reason=ownership_mismatch dropId=%s", dropID)
		return nil, purchasedom.ErrOwnershipMismatch
	}

	// 4) 分配計算（128bit 中間値 + checked subtraction）
	split, err := purchasedom.SplitPayment(in.PaymentLamports, d.CommissionBps)
	if err != nil {
		log.Printf("[purchase_usecase] BuyDrop abort reason=split_error dropId=%s err=%v", dropID, err)
		return nil, err
	}

	// 5) 購入者の署名素材を取得
	signer, err := u.secrets.GetSigner(ctx, buyerWallet)
	if err != nil {
		log.Printf("[purchase_usecase] BuyDrop abort reason=signer_error dropId=%s err=%v", dropID, err)
		return nil, err
	}

	// 6) 送金2本 + ミント + メタデータ登録を 1 トランザクションで実行。
	//    手数料 0 でも送金命令は必ず発行する（命令の並びを固定するため）。
	execOut, err := u.executor.ExecuteSale(ctx, ExecuteSaleInput{
		DropID:             dropID,
		DropAccount:        d.OnChainAccount,
		BuyerWallet:        buyerWallet,
		SellerWallet:       d.Seller,
		CommissionWallet:   u.consts.CommissionWallet,
		BuyerSigner:        signer,
		SellerLamports:     split.SellerLamports,
		CommissionLamports: split.CommissionLamports,
		Name:               u.consts.NFTName,
		Symbol:             u.consts.NFTSymbol,
		MetadataURI:        d.MetadataURI,
	})
	if err != nil {
		// collaborator のエラーは翻訳せずそのまま上へ（残高不足・mint 重複など）
		log.Printf("[purchase_usecase] BuyDrop abort reason=execute_error dropId=%s err=%v elapsed=%s", dropID, err, time.Since(start))
		return nil, err
	}

	// 7) 領収レコードを保存
	ent, err := purchasedom.New(
		"", dropID, buyerWallet, d.Seller,
		in.PaymentLamports, split,
		execOut.MintAddress, execOut.TxSignature,
		u.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("build purchase record: %w", err)
	}
	created, err := u.purchaseRepo.Create(ctx, ent)
	if err != nil {
		// オンチェーンは成立済み。レコード欠損として必ずログに tx を残す。
		log.Printf(
			"[purchase_usecase] BuyDrop WARN: purchase persist failed dropId=%s tx=%s mint=%s err=%v",
			dropID, execOut.TxSignature, execOut.MintAddress, err,
		)
		return nil, fmt.Errorf("persist purchase (tx=%s): %w", execOut.TxSignature, err)
	}

	// 8) レシートメール（best-effort）
	if u.mailer != nil && strings.TrimSpace(in.BuyerEmail) != "" {
		if mailErr := u.mailer.SendReceipt(ctx, strings.TrimSpace(in.BuyerEmail), *created); mailErr != nil {
			log.Printf("[purchase_usecase] BuyDrop WARN: receipt mail failed purchaseId=%s err=%v", created.ID, mailErr)
		}
	}

	log.Printf(
		"[purchase_usecase] BuyDrop done purchaseId=%s dropId=%s mint=%s tx=%s seller=%d commission=%d elapsed=%s",
		created.ID, dropID, maskWallet(created.MintAddress), maskWallet(created.TxSignature),
		split.SellerLamports, split.CommissionLamports, time.Since(start),
	)

	return &BuyDropResult{Purchase: created}, nil
}

// ============================================================
// Queries
// ============================================================

func (u *PurchaseUsecase) GetByID(ctx context.Context, id string) (*purchasedom.Purchase, error) {
	if u == nil || u.purchaseRepo == nil {
		return nil, errors.New("purchase usecase is not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, purchasedom.ErrNotFound
	}
	return u.purchaseRepo.GetByID(ctx, id)
}

func (u *PurchaseUsecase) List(ctx context.Context, filter purchasedom.Filter, sort purchasedom.Sort, page purchasedom.Page) (purchasedom.PageResult, error) {
	if u == nil || u.purchaseRepo == nil {
		return purchasedom.PageResult{}, errors.New("purchase usecase is not initialized")
	}
	return u.purchaseRepo.List(ctx, filter, sort, page)
}

// maskWallet masks an address/signature for logs (keeps head/tail only).
func maskWallet(s string) string {
	t := strings.TrimSpace(s)
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
