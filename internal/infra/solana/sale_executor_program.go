// internal/infra/solana/sale_executor_program.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"

	usecase "solstyle/internal/application/usecase"
)

var (
	ErrProgramDropAccountMissing = errors.New("sale_executor_program: drop has no on-chain account")
	ErrProgramSellerMismatch     = errors.New("sale_executor_program: on-chain seller does not match drop record")
	ErrProgramPriceMismatch      = errors.New("sale_executor_program: on-chain price does not match split total")
)

// SaleExecutorProgram implements usecase.SaleExecutor against the deployed
// solstyle プログラム本体。
//
// custody モード (SaleExecutorSolana) との違い:
//   - 送金・ミント・メタデータ登録はすべてプログラムの buy_drop 命令 1 本に
//     畳み込まれ、分配計算と検証はオンチェーン側でも再実行される。
//   - mint authority / metadata creator は seeds=["authority"] から導出される
//     PDA で、プログラムが CPI 時に署名する。サービス側は鍵を一切持たない。
//
// 送信前に Drop アカウントを読み、DB のレコードとオンチェーン状態が
// 食い違っていないことを確認してから命令を組む。
type SaleExecutorProgram struct {
	RPC     *client.Client
	Program *ProgramClient

	// ExecuteSale 全体（アカウント取得〜送信）に適用する上限
	Timeout time.Duration
}

// NewSaleExecutorProgram constructs the on-chain program executor.
// RPC URL resolves from SOLANA_RPC_URL if rpcURL is empty.
func NewSaleExecutorProgram(rpcURL, programID string) *SaleExecutorProgram {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = strings.TrimSpace(os.Getenv("SOLANA_RPC_URL"))
	}
	if u == "" {
		u = rpc.DevnetRPCEndpoint
	}
	return &SaleExecutorProgram{
		RPC:     client.NewClient(u),
		Program: NewProgramClient(strings.TrimSpace(programID)),
		Timeout: 20 * time.Second,
	}
}

func (e *SaleExecutorProgram) ExecuteSale(ctx context.Context, in usecase.ExecuteSaleInput) (usecase.ExecuteSaleResult, error) {
	if e == nil || e.RPC == nil || e.Program == nil {
		return usecase.ExecuteSaleResult{}, ErrSaleExecutorNotConfigured
	}

	buyerWallet := strings.TrimSpace(in.BuyerWallet)
	if buyerWallet == "" {
		return usecase.ExecuteSaleResult{}, ErrSaleExecutorBuyerEmpty
	}
	sellerWallet := strings.TrimSpace(in.SellerWallet)
	if sellerWallet == "" {
		return usecase.ExecuteSaleResult{}, ErrSaleExecutorSellerEmpty
	}
	commissionWallet := strings.TrimSpace(in.CommissionWallet)
	if commissionWallet == "" {
		return usecase.ExecuteSaleResult{}, ErrSaleExecutorFeeWalletGone
	}
	dropAccountAddr := strings.TrimSpace(in.DropAccount)
	if dropAccountAddr == "" {
		return usecase.ExecuteSaleResult{}, ErrProgramDropAccountMissing
	}

	buyerAcc, err := normalizeToAccount(in.BuyerSigner)
	if err != nil {
		return usecase.ExecuteSaleResult{}, err
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	// 1) オンチェーンの Drop アカウントを読み、DB レコードと突き合わせる
	onChain, err := FetchDropAccount(ctx, e.RPC, dropAccountAddr)
	if err != nil {
		return usecase.ExecuteSaleResult{}, err
	}
	if err := verifyOnChainDrop(onChain, in); err != nil {
		return usecase.ExecuteSaleResult{}, err
	}

	buyer := buyerAcc.PublicKey
	seller := common.PublicKeyFromString(sellerWallet)
	commission := common.PublicKeyFromString(commissionWallet)

	// 2) 購入ごとに新規 mint。ATA / metadata PDA はそこから導出する
	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(buyer, mint.PublicKey)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor_program: derive buyer ATA failed: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor_program: GetTokenMetaPubkey: %w", err)
	}

	// ログ用。buy_drop 命令内でも同じ導出が行われ、PDA が CPI 署名者になる
	derived, err := DeriveIssuanceAuthority(e.Program.ProgramID.ToBase58())
	if err != nil {
		return usecase.ExecuteSaleResult{}, err
	}

	// 3) buy_drop 命令 1 本。分配・ミント・メタデータ登録はプログラム側で実行
	ix, err := e.Program.BuildBuyDropInstruction(BuyDropAccounts{
		Drop:                common.PublicKeyFromString(dropAccountAddr),
		Buyer:               buyer,
		Seller:              seller,
		CommissionRecipient: commission,
		Mint:                mint.PublicKey,
		BuyerTokenAccount:   ata,
		Metadata:            metadataPubkey,
	}, onChain.Price)
	if err != nil {
		return usecase.ExecuteSaleResult{}, err
	}

	recent, err := e.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor_program: GetLatestBlockhash: %w", err)
	}

	log.Printf(
		"[sale_executor_program] start dropId=%s dropAccount=%s buyer=%s seller=%s amount=%d mint=%s issuanceAuthority=%s bump=%d",
		in.DropID,
		maskShort(dropAccountAddr),
		maskShort(buyerWallet),
		maskShort(sellerWallet),
		onChain.Price,
		maskShort(mint.PublicKey.ToBase58()),
		maskShort(derived.PublicKey.ToBase58()),
		derived.Bump,
	)

	// PDA が mint authority なのでプラットフォーム鍵の署名は不要
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{buyerAcc, mint},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        buyer,
			RecentBlockhash: recent.Blockhash,
			Instructions:    []types.Instruction{ix},
		}),
	})
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor_program: NewTransaction: %w", err)
	}

	sig, err := e.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor_program: SendTransaction: %w", err)
	}

	log.Printf(
		"[sale_executor_program] submitted tx=%s dropId=%s mint=%s ata=%s",
		maskShort(sig),
		in.DropID,
		maskShort(mint.PublicKey.ToBase58()),
		maskShort(ata.ToBase58()),
	)

	return usecase.ExecuteSaleResult{
		MintAddress: mint.PublicKey.ToBase58(),
		TxSignature: sig,
	}, nil
}

// verifyOnChainDrop checks the fetched on-chain Drop state against the
// validated sale input. 食い違いがあれば送信せずに止める。
func verifyOnChainDrop(acct DropAccount, in usecase.ExecuteSaleInput) error {
	if acct.SellerBase58() != strings.TrimSpace(in.SellerWallet) {
		return ErrProgramSellerMismatch
	}
	// usecase 側で Seller + Commission = Drop.Price を検証済みなので、
	// オンチェーン価格は分配合計と一致していなければならない
	if acct.Price != in.SellerLamports+in.CommissionLamports {
		return ErrProgramPriceMismatch
	}
	return nil
}
