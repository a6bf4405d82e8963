// internal/infra/solana/sale_executor.go
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
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"

	usecase "solstyle/internal/application/usecase"
)

var (
	ErrSaleExecutorNotConfigured = errors.New("sale_executor: not configured")
	ErrSaleExecutorBuyerEmpty    = errors.New("sale_executor: buyer wallet is empty")
	ErrSaleExecutorSellerEmpty   = errors.New("sale_executor: seller wallet is empty")
	ErrSaleExecutorFeeWalletGone = errors.New("sale_executor: commission wallet is empty")
	ErrSaleExecutorURIEmpty      = errors.New("sale_executor: metadata uri is empty")
	ErrSaleExecutorAuthorityNil  = errors.New("sale_executor: platform authority is nil")
)

// SaleExecutorSolana implements usecase.SaleExecutor.
//
// ExecuteSale は 1 回の購入の全効果を 1 本のトランザクションに積む:
//
//  1. lamports 送金: buyer -> seller（出品者取り分）
//  2. lamports 送金: buyer -> commission recipient（手数料。0 でも命令は発行）
//  3. mint アカウント作成 + InitializeMint (decimals=0)
//  4. buyer の ATA 作成
//  5. MintTo amount=1（1出品 = 1トークン）
//  6. Metaplex CreateMetadataAccountV3（creators = issuance authority 100% verified,
//     royalty 0, mutable / update authority は authority が保持）
//  7. MasterEdition v3 (MaxSupply=1)
//
// Solana のトランザクション保証により、どれか 1 命令でも失敗すれば
// 全命令が不成立になる。部分実行は起こらない。
type SaleExecutorSolana struct {
	RPC *client.Client

	// mint authority / update authority / metadata の creator 実体
	Authority *PlatformAuthority

	// issuance authority の導出元（ログと creator 検証用の導出に使用）
	ProgramID string

	// ExecuteSale 全体（blockhash 取得〜送信）に適用する上限
	Timeout time.Duration
}

// NewSaleExecutorSolana constructs executor.
// RPC URL resolves from SOLANA_RPC_URL if rpcURL is empty.
func NewSaleExecutorSolana(rpcURL string, authority *PlatformAuthority, programID string) *SaleExecutorSolana {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = strings.TrimSpace(os.Getenv("SOLANA_RPC_URL"))
	}
	if u == "" {
		u = rpc.DevnetRPCEndpoint
	}
	return &SaleExecutorSolana{
		RPC:       client.NewClient(u),
		Authority: authority,
		ProgramID: strings.TrimSpace(programID),
		Timeout:   20 * time.Second,
	}
}

func (e *SaleExecutorSolana) ExecuteSale(ctx context.Context, in usecase.ExecuteSaleInput) (usecase.ExecuteSaleResult, error) {
	if e == nil || e.RPC == nil {
		return usecase.ExecuteSaleResult{}, ErrSaleExecutorNotConfigured
	}
	if e.Authority == nil {
		return usecase.ExecuteSaleResult{}, ErrSaleExecutorAuthorityNil
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
	if strings.TrimSpace(in.MetadataURI) == "" {
		return usecase.ExecuteSaleResult{}, ErrSaleExecutorURIEmpty
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

	buyer := buyerAcc.PublicKey
	seller := common.PublicKeyFromString(sellerWallet)
	commission := common.PublicKeyFromString(commissionWallet)
	authority := e.Authority.Account

	// issuance authority（決定的導出、保存しない）
	derived, err := DeriveIssuanceAuthority(e.ProgramID)
	if err != nil {
		return usecase.ExecuteSaleResult{}, err
	}

	mint := types.NewAccount() // 購入ごとに新規 mint

	ata, _, err := common.FindAssociatedTokenAddress(buyer, mint.PublicKey)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor: derive buyer ATA failed: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor: GetTokenMetaPubkey: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor: GetMasterEdition: %w", err)
	}

	mintRent, err := e.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor: GetMinimumBalanceForRentExemption: %w", err)
	}

	recent, err := e.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor: GetLatestBlockhash: %w", err)
	}

	log.Printf(
		"[sale_executor] start dropId=%s buyer=%s seller=%s sellerLamports=%d commissionLamports=%d mint=%s issuanceAuthority=%s bump=%d",
		in.DropID,
		maskShort(buyerWallet),
		maskShort(sellerWallet),
		in.SellerLamports,
		in.CommissionLamports,
		maskShort(mint.PublicKey.ToBase58()),
		maskShort(derived.PublicKey.ToBase58()),
		derived.Bump,
	)

	instructions := buildSaleInstructions(saleInstructionParams{
		Buyer:              buyer,
		Seller:             seller,
		Commission:         commission,
		Authority:          authority.PublicKey,
		Mint:               mint.PublicKey,
		BuyerATA:           ata,
		Metadata:           metadataPubkey,
		MasterEdition:      masterEditionPubkey,
		MintRent:           mintRent,
		SellerLamports:     in.SellerLamports,
		CommissionLamports: in.CommissionLamports,
		Name:               in.Name,
		Symbol:             in.Symbol,
		MetadataURI:        in.MetadataURI,
	})

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{buyerAcc, mint, authority},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        buyer,
			RecentBlockhash: recent.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor: NewTransaction: %w", err)
	}

	sig, err := e.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return usecase.ExecuteSaleResult{}, fmt.Errorf("sale_executor: SendTransaction: %w", err)
	}

	log.Printf(
		"[sale_executor] submitted tx=%s dropId=%s mint=%s ata=%s",
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

// saleInstructionParams は 1 購入分の命令列を組むための確定値。
type saleInstructionParams struct {
	Buyer         common.PublicKey
	Seller        common.PublicKey
	Commission    common.PublicKey
	Authority     common.PublicKey
	Mint          common.PublicKey
	BuyerATA      common.PublicKey
	Metadata      common.PublicKey
	MasterEdition common.PublicKey

	MintRent           uint64
	SellerLamports     uint64
	CommissionLamports uint64

	Name        string
	Symbol      string
	MetadataURI string
}

// buildSaleInstructions assembles the sale transaction body.
//
// 命令順は固定: seller 送金 → 手数料送金 → mint → metadata。
// 手数料 0 でも送金命令は必ず発行する。metadata は mint の存在を前提にし、
// 支払いはどちらも buyer が負担する。
func buildSaleInstructions(p saleInstructionParams) []types.Instruction {
	maxSupply := uint64(1)

	return []types.Instruction{
		// 1) 出品者取り分
		system.Transfer(system.TransferParam{
			From:   p.Buyer,
			To:     p.Seller,
			Amount: p.SellerLamports,
		}),
		// 2) プラットフォーム手数料（0 でも発行する）
		system.Transfer(system.TransferParam{
			From:   p.Buyer,
			To:     p.Commission,
			Amount: p.CommissionLamports,
		}),
		// 3) Mint アカウント作成
		system.CreateAccount(system.CreateAccountParam{
			From:     p.Buyer,
			New:      p.Mint,
			Owner:    common.TokenProgramID,
			Lamports: p.MintRent,
			Space:    token.MintAccountSize,
		}),
		// 4) Mint 初期化 (decimals = 0)
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   0,
			Mint:       p.Mint,
			MintAuth:   p.Authority,
			FreezeAuth: &p.Authority,
		}),
		// 5) Buyer の ATA 作成
		associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 p.Buyer,
				Owner:                  p.Buyer,
				Mint:                   p.Mint,
				AssociatedTokenAccount: p.BuyerATA,
			},
		),
		// 6) NFT を 1 枚だけミント
		token.MintTo(token.MintToParam{
			Mint:   p.Mint,
			To:     p.BuyerATA,
			Auth:   p.Authority,
			Amount: 1,
		}),
		// 7) Metaplex Metadata（URI は Drop の記録をそのまま使用、royalty 0）
		token_metadata.CreateMetadataAccountV3(
			token_metadata.CreateMetadataAccountV3Param{
				Metadata:                p.Metadata,
				Mint:                    p.Mint,
				MintAuthority:           p.Authority,
				UpdateAuthority:         p.Authority,
				Payer:                   p.Buyer,
				UpdateAuthorityIsSigner: true,
				IsMutable:               true,
				Data: token_metadata.DataV2{
					Name:                 p.Name,
					Symbol:               p.Symbol,
					Uri:                  p.MetadataURI,
					SellerFeeBasisPoints: 0,
					Creators: &[]token_metadata.Creator{
						{
							Address:  p.Authority,
							Verified: true,
							Share:    100,
						},
					},
				},
				CollectionDetails: nil,
			},
		),
		// 8) MasterEdition v3 (1枚もの / MaxSupply=1)
		token_metadata.CreateMasterEditionV3(
			token_metadata.CreateMasterEditionParam{
				Edition:         p.MasterEdition,
				Mint:            p.Mint,
				UpdateAuthority: p.Authority,
				MintAuthority:   p.Authority,
				Metadata:        p.Metadata,
				Payer:           p.Buyer,
				MaxSupply:       &maxSupply,
			},
		),
	}
}
