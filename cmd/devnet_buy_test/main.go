// cmd/devnet_buy_test/main.go
package main

import (
	"context"
	"flag"
	"log"

	usecase "solstyle/internal/application/usecase"
	"solstyle/internal/platform/di"
)

// devnet で create_drop → buy_drop を通しで叩く動作確認コマンド。
// Cloud Run と同じ Config / Secret Manager 設定を利用する。
func main() {
	var (
		dropID   = flag.String("drop", "", "existing drop id (empty = create one first)")
		seller   = flag.String("seller", "", "seller wallet (base58)")
		buyer    = flag.String("buyer", "", "buyer wallet (base58; secret must exist in Secret Manager)")
		price    = flag.Uint64("price", 1_000_000, "price in lamports (used when creating)")
		bps      = flag.Uint("bps", 250, "commission bps (used when creating)")
		metaURI  = flag.String("uri", "https://example.com/metadata.json", "metadata uri (used when creating)")
		dropAcct = flag.String("dropAccount", "", "on-chain Drop account address (required for SOLANA_EXECUTION_MODE=program)")
	)
	flag.Parse()

	ctx := context.Background()

	container, err := di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer container.Close()

	if *buyer == "" || *seller == "" {
		log.Fatalf("usage: devnet_buy_test -seller <wallet> -buyer <wallet> [-drop <id>]")
	}

	id := *dropID
	if id == "" {
		d, err := container.DropUC.CreateDrop(ctx, usecase.CreateDropInput{
			Seller:         *seller,
			Price:          *price,
			CommissionBps:  uint16(*bps),
			MetadataURI:    *metaURI,
			OnChainAccount: *dropAcct,
		})
		if err != nil {
			log.Fatalf("create_drop failed: %v", err)
		}
		id = d.ID
		log.Printf("[devnet-buy-test] created drop id=%s price=%d bps=%d", d.ID, d.Price, d.CommissionBps)
	}

	d, err := container.DropUC.GetByID(ctx, id)
	if err != nil {
		log.Fatalf("load drop failed: %v", err)
	}

	res, err := container.PurchaseUC.BuyDrop(ctx, usecase.BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     *buyer,
		SellerWallet:    d.Seller,
		PaymentLamports: d.Price,
	})
	if err != nil {
		log.Fatalf("buy_drop failed: %v", err)
	}

	p := res.Purchase
	log.Printf(
		"[devnet-buy-test] done purchaseId=%s mint=%s tx=%s seller=%d commission=%d",
		p.ID, p.MintAddress, p.TxSignature, p.SellerLamports, p.CommissionLamports,
	)
}
