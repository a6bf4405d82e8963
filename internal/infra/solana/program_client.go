// internal/infra/solana/program_client.go
package solana

import (
	"crypto/sha256"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

// オンチェーン実行モード用のクライアント。
// デプロイ済み solstyle プログラムの create_drop / buy_drop 命令を、
// Anchor のワイヤ形式（8byte discriminator + borsh 引数）で組み立てる。
//
// well-known program / sysvar ids
const (
	systemProgramID        = "11111111111111111111111111111111"
	tokenProgramID         = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	tokenMetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	rentSysvarID           = "SysvarRent111111111111111111111111111111111"
)

// ProgramClient builds instructions targeting the deployed solstyle program.
type ProgramClient struct {
	ProgramID common.PublicKey
}

func NewProgramClient(programID string) *ProgramClient {
	return &ProgramClient{ProgramID: common.PublicKeyFromString(programID)}
}

// anchorDiscriminator returns sha256("global:<name>")[:8] — the Anchor
// instruction discriminator.
func anchorDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	return h[:8]
}

// ========================================
// create_drop
// ========================================

type createDropArgs struct {
	Price         uint64
	CommissionBps uint16
	MetadataURI   string
}

// BuildCreateDropInstruction builds the on-chain create_drop instruction.
// Accounts:
// 0. [writable,signer] drop (new keypair account, init by program)
// 1. [writable,signer] seller (payer)
// 2. [] system program
func (c *ProgramClient) BuildCreateDropInstruction(
	dropAccount, seller common.PublicKey,
	price uint64,
	commissionBps uint16,
	metadataURI string,
) (types.Instruction, error) {
	args, err := borsh.Serialize(createDropArgs{
		Price:         price,
		CommissionBps: commissionBps,
		MetadataURI:   metadataURI,
	})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("program_client: serialize create_drop args: %w", err)
	}

	data := append(anchorDiscriminator("create_drop"), args...)

	return types.Instruction{
		ProgramID: c.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: dropAccount, IsSigner: true, IsWritable: true},
			{PubKey: seller, IsSigner: true, IsWritable: true},
			{PubKey: common.PublicKeyFromString(systemProgramID), IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

// ========================================
// buy_drop
// ========================================

type buyDropArgs struct {
	AmountLamports uint64
}

// BuyDropAccounts collects every account the on-chain buy_drop touches.
// 並びはプログラム側の Accounts 構造体と 1:1 で一致させること。
type BuyDropAccounts struct {
	Drop                common.PublicKey
	Buyer               common.PublicKey
	Seller              common.PublicKey
	CommissionRecipient common.PublicKey
	Mint                common.PublicKey
	BuyerTokenAccount   common.PublicKey
	Metadata            common.PublicKey
}

// BuildBuyDropInstruction builds the on-chain buy_drop instruction.
// Accounts:
//  0. [writable] drop
//  1. [writable,signer] buyer (payer)
//  2. [writable] seller
//  3. [writable] commission recipient
//  4. [] system program
//  5. [writable,signer] mint (init)
//  6. [writable] buyer token account (init_if_needed)
//  7. [] pda authority (seeds=["authority"], derived here, never stored)
//  8. [writable] metadata account (metadata PDA)
//  9. [] rent sysvar
//  10. [] token program
//  11. [] token metadata program
func (c *ProgramClient) BuildBuyDropInstruction(acc BuyDropAccounts, amountLamports uint64) (types.Instruction, error) {
	args, err := borsh.Serialize(buyDropArgs{AmountLamports: amountLamports})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("program_client: serialize buy_drop args: %w", err)
	}

	data := append(anchorDiscriminator("buy_drop"), args...)

	// issuance authority は毎回導出する
	authority, err := DeriveIssuanceAuthority(c.ProgramID.ToBase58())
	if err != nil {
		return types.Instruction{}, err
	}

	return types.Instruction{
		ProgramID: c.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: acc.Drop, IsSigner: false, IsWritable: true},
			{PubKey: acc.Buyer, IsSigner: true, IsWritable: true},
			{PubKey: acc.Seller, IsSigner: false, IsWritable: true},
			{PubKey: acc.CommissionRecipient, IsSigner: false, IsWritable: true},
			{PubKey: common.PublicKeyFromString(systemProgramID), IsSigner: false, IsWritable: false},
			{PubKey: acc.Mint, IsSigner: true, IsWritable: true},
			{PubKey: acc.BuyerTokenAccount, IsSigner: false, IsWritable: true},
			{PubKey: authority.PublicKey, IsSigner: false, IsWritable: false},
			{PubKey: acc.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: common.PublicKeyFromString(rentSysvarID), IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKeyFromString(tokenProgramID), IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKeyFromString(tokenMetadataProgramID), IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}
