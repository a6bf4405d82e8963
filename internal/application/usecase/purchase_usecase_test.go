// internal/application/usecase/purchase_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dropdom "solstyle/internal/domain/drop"
	purchasedom "solstyle/internal/domain/purchase"
)

func testConsts() SaleConstants {
	return SaleConstants{
		CommissionWallet: testWallet(0xCC),
		NFTName:          "SolStyle Fit",
		NFTSymbol:        "SOLSTYL",
	}
}

type purchaseFixture struct {
	dropRepo     *fakeDropRepo
	purchaseRepo *fakePurchaseRepo
	secrets      *fakeSecrets
	executor     *fakeSaleExecutor
	mailer       *fakeMailer
	uc           *PurchaseUsecase
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		dropRepo:     newFakeDropRepo(),
		purchaseRepo: newFakePurchaseRepo(),
		secrets:      &fakeSecrets{},
		executor:     &fakeSaleExecutor{},
		mailer:       &fakeMailer{},
	}
	f.uc = NewPurchaseUsecase(f.dropRepo, f.purchaseRepo, f.secrets, f.executor, f.mailer, testConsts())
	return f
}

func (f *purchaseFixture) createDrop(t *testing.T, price uint64, bps uint16) *dropdom.Drop {
	t.Helper()
	d, err := f.dropRepo.Create(context.Background(), dropdom.CreateDropInput{
		Seller:        testWallet(0x5E),
		Price:         price,
		CommissionBps: bps,
		MetadataURI:   "https://example.com/metadata.json",
	})
	require.NoError(t, err)
	return d
}

func TestBuyDrop_HappyPath(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	res, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		BuyerEmail:      "buyer@example.com",
		SellerWallet:    d.Seller,
		PaymentLamports: 1_000_000,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Purchase)

	p := res.Purchase
	assert.Equal(t, d.ID, p.DropID)
	assert.Equal(t, uint64(1_000_000), p.PaymentLamports)
	// 1_000_000 * 250 / 10000 = 25_000
	assert.Equal(t, uint64(25_000), p.CommissionLamports)
	assert.Equal(t, uint64(975_000), p.SellerLamports)
	assert.Equal(t, "mint-1", p.MintAddress)
	assert.Equal(t, "tx-1", p.TxSignature)

	// executor へ渡る内容
	require.Len(t, f.executor.calls, 1)
	call := f.executor.calls[0]
	assert.Equal(t, d.Seller, call.SellerWallet)
	assert.Equal(t, testConsts().CommissionWallet, call.CommissionWallet)
	assert.Equal(t, "SolStyle Fit", call.Name)
	assert.Equal(t, "SOLSTYL", call.Symbol)
	assert.Equal(t, d.MetadataURI, call.MetadataURI)
	assert.Equal(t, "signer:"+testWallet(0xB1), call.BuyerSigner)

	// 永続化とレシートメール
	stored, err := f.purchaseRepo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.MintAddress, stored.MintAddress)
	assert.Equal(t, []string{"buyer@example.com"}, f.mailer.sent)
}

func TestBuyDrop_PassesOnChainAccountToExecutor(t *testing.T) {
	// program モードの executor は Drop レコードの on-chain アカウントで
	// オンチェーン状態を突き合わせるので、必ずそのまま渡ること
	f := newPurchaseFixture()
	d, err := f.dropRepo.Create(context.Background(), dropdom.CreateDropInput{
		Seller:         testWallet(0x5E),
		Price:          1_000_000,
		CommissionBps:  250,
		MetadataURI:    "https://example.com/metadata.json",
		OnChainAccount: testWallet(0xDA),
	})
	require.NoError(t, err)

	_, err = f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    d.Seller,
		PaymentLamports: 1_000_000,
	})
	require.NoError(t, err)

	require.Len(t, f.executor.calls, 1)
	assert.Equal(t, testWallet(0xDA), f.executor.calls[0].DropAccount)

	// custody 用の Drop（on-chain アカウント無し）では空のまま
	d2 := f.createDrop(t, 1_000_000, 250)
	_, err = f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d2.ID,
		BuyerWallet:     testWallet(0xB2),
		SellerWallet:    d2.Seller,
		PaymentLamports: 1_000_000,
	})
	require.NoError(t, err)
	require.Len(t, f.executor.calls, 2)
	assert.Empty(t, f.executor.calls[1].DropAccount)
}

func TestBuyDrop_IncorrectPayment(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	for _, payment := range []uint64{0, 999_999, 1_000_001} {
		_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
			DropID:          d.ID,
			BuyerWallet:     testWallet(0xB1),
			SellerWallet:    d.Seller,
			PaymentLamports: payment,
		})
		assert.ErrorIs(t, err, purchasedom.ErrIncorrectPaymentAmount, "payment=%d", payment)
	}

	// 検証で落ちたらオンチェーンには何も流れない
	assert.Empty(t, f.executor.calls)
	n, _ := f.purchaseRepo.Count(context.Background(), purchasedom.Filter{})
	assert.Zero(t, n)
}

func TestBuyDrop_OwnershipMismatch(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    testWallet(0xEE), // 別人を出品者として提示
		PaymentLamports: 1_000_000,
	})
	assert.ErrorIs(t, err, purchasedom.ErrOwnershipMismatch)
	assert.Empty(t, f.executor.calls)
}

func TestBuyDrop_PaymentCheckedBeforeOwnership(t *testing.T) {
	// 支払額と出品者が両方違う場合、先に支払額エラーが返る
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    testWallet(0xEE),
		PaymentLamports: 1,
	})
	assert.ErrorIs(t, err, purchasedom.ErrIncorrectPaymentAmount)
}

func TestBuyDrop_DropNotFound(t *testing.T) {
	f := newPurchaseFixture()

	_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          "no-such-drop",
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    testWallet(0x5E),
		PaymentLamports: 1,
	})
	assert.ErrorIs(t, err, dropdom.ErrNotFound)
}

func TestBuyDrop_InvalidBuyerWallet(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     "not-a-wallet",
		SellerWallet:    d.Seller,
		PaymentLamports: 1_000_000,
	})
	assert.ErrorIs(t, err, purchasedom.ErrInvalidBuyer)
}

func TestBuyDrop_ZeroCommissionStillTransfers(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 500_000, 0)

	res, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    d.Seller,
		PaymentLamports: 500_000,
	})
	require.NoError(t, err)

	// 手数料 0 でも executor には commission=0 の送金指示が渡る
	require.Len(t, f.executor.calls, 1)
	assert.Equal(t, uint64(0), f.executor.calls[0].CommissionLamports)
	assert.Equal(t, uint64(500_000), f.executor.calls[0].SellerLamports)
	assert.Equal(t, uint64(0), res.Purchase.CommissionLamports)
}

func TestBuyDrop_RepeatPurchaseMintsFreshAsset(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	buy := func(buyer string) *purchasedom.Purchase {
		res, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
			DropID:          d.ID,
			BuyerWallet:     buyer,
			SellerWallet:    d.Seller,
			PaymentLamports: 1_000_000,
		})
		require.NoError(t, err)
		return res.Purchase
	}

	p1 := buy(testWallet(0xB1))
	p2 := buy(testWallet(0xB2))

	// 2 回目も同じ検証・同じ分配で通り、mint は毎回新規
	assert.NotEqual(t, p1.MintAddress, p2.MintAddress)
	assert.Equal(t, p1.SellerLamports, p2.SellerLamports)
	assert.Equal(t, p1.CommissionLamports, p2.CommissionLamports)

	// Drop レコードは購入で変化しない
	after, err := f.dropRepo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, *d, *after)

	n, _ := f.purchaseRepo.Count(context.Background(), purchasedom.Filter{DropID: d.ID})
	assert.Equal(t, 2, n)
}

func TestBuyDrop_ExecutorFailurePersistsNothing(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	execErr := errors.New("rpc: insufficient funds for transfer")
	f.executor.err = execErr

	_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    d.Seller,
		PaymentLamports: 1_000_000,
	})
	assert.ErrorIs(t, err, execErr)

	n, _ := f.purchaseRepo.Count(context.Background(), purchasedom.Filter{})
	assert.Zero(t, n)
}

func TestBuyDrop_SignerFailureAbortsBeforeExecutor(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	f.secrets.err = errors.New("secret not found")

	_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    d.Seller,
		PaymentLamports: 1_000_000,
	})
	require.Error(t, err)
	assert.Empty(t, f.executor.calls)
}

func TestBuyDrop_PersistFailureSurfacesTxSignature(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	f.purchaseRepo.createErr = errors.New("db down")

	_, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		SellerWallet:    d.Seller,
		PaymentLamports: 1_000_000,
	})
	require.Error(t, err)
	// オンチェーンは成立済みなので tx をエラーに含めて追跡可能にする
	assert.Contains(t, err.Error(), "tx-1")
}

func TestBuyDrop_MailFailureDoesNotFailPurchase(t *testing.T) {
	f := newPurchaseFixture()
	d := f.createDrop(t, 1_000_000, 250)

	f.mailer.err = errors.New("sendgrid 500")

	res, err := f.uc.BuyDrop(context.Background(), BuyDropInput{
		DropID:          d.ID,
		BuyerWallet:     testWallet(0xB1),
		BuyerEmail:      "buyer@example.com",
		SellerWallet:    d.Seller,
		PaymentLamports: 1_000_000,
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Purchase)
}
