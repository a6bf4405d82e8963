// internal/adapters/in/http/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usecase "solstyle/internal/application/usecase"
	dropdom "solstyle/internal/domain/drop"
	purchasedom "solstyle/internal/domain/purchase"
)

func wallet(b byte) string {
	return base58.Encode(bytes.Repeat([]byte{b}, 32))
}

// ============================================================
// in-memory fakes (handler 視点での薄い実装)
// ============================================================

type memDropRepo struct {
	seq   int
	drops map[string]dropdom.Drop
}

func newMemDropRepo() *memDropRepo { return &memDropRepo{drops: map[string]dropdom.Drop{}} }

func (r *memDropRepo) Create(ctx context.Context, in dropdom.CreateDropInput) (*dropdom.Drop, error) {
	r.seq++
	d, err := dropdom.New(fmt.Sprintf("drop-%d", r.seq), in.Seller, in.Price, in.CommissionBps, in.MetadataURI, in.OnChainAccount, time.Now())
	if err != nil {
		return nil, err
	}
	r.drops[d.ID] = d
	return &d, nil
}

func (r *memDropRepo) GetByID(ctx context.Context, id string) (*dropdom.Drop, error) {
	d, ok := r.drops[id]
	if !ok {
		return nil, dropdom.ErrNotFound
	}
	return &d, nil
}

func (r *memDropRepo) List(ctx context.Context, f dropdom.Filter, s dropdom.Sort, p dropdom.Page) (dropdom.PageResult, error) {
	items := make([]dropdom.Drop, 0, len(r.drops))
	for _, d := range r.drops {
		items = append(items, d)
	}
	return dropdom.PageResult{Items: items, TotalCount: len(items), TotalPages: 1, Page: 1, PerPage: 20}, nil
}

func (r *memDropRepo) Count(ctx context.Context, f dropdom.Filter) (int, error) {
	return len(r.drops), nil
}

func (r *memDropRepo) Delete(ctx context.Context, id string) error {
	delete(r.drops, id)
	return nil
}

type memPurchaseRepo struct {
	seq       int
	purchases map[string]purchasedom.Purchase
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{purchases: map[string]purchasedom.Purchase{}}
}

func (r *memPurchaseRepo) Create(ctx context.Context, p purchasedom.Purchase) (*purchasedom.Purchase, error) {
	r.seq++
	if p.ID == "" {
		p.ID = fmt.Sprintf("purchase-%d", r.seq)
	}
	r.purchases[p.ID] = p
	return &p, nil
}

func (r *memPurchaseRepo) GetByID(ctx context.Context, id string) (*purchasedom.Purchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, purchasedom.ErrNotFound
	}
	return &p, nil
}

func (r *memPurchaseRepo) List(ctx context.Context, f purchasedom.Filter, s purchasedom.Sort, p purchasedom.Page) (purchasedom.PageResult, error) {
	items := make([]purchasedom.Purchase, 0, len(r.purchases))
	for _, pr := range r.purchases {
		items = append(items, pr)
	}
	return purchasedom.PageResult{Items: items, TotalCount: len(items), TotalPages: 1, Page: 1, PerPage: 20}, nil
}

func (r *memPurchaseRepo) Count(ctx context.Context, f purchasedom.Filter) (int, error) {
	return len(r.purchases), nil
}

type stubSecrets struct{}

func (stubSecrets) GetSigner(ctx context.Context, walletAddress string) (any, error) {
	return "stub-signer", nil
}

type stubExecutor struct{ n int }

func (e *stubExecutor) ExecuteSale(ctx context.Context, in usecase.ExecuteSaleInput) (usecase.ExecuteSaleResult, error) {
	e.n++
	return usecase.ExecuteSaleResult{
		MintAddress: fmt.Sprintf("mint-%d", e.n),
		TxSignature: fmt.Sprintf("tx-%d", e.n),
	}, nil
}

// ============================================================
// fixtures
// ============================================================

type fixture struct {
	dropRepo *memDropRepo
	dropH    http.Handler
	buyH     http.Handler
}

func newFixture() *fixture {
	dropRepo := newMemDropRepo()
	dropUC := usecase.NewDropUsecase(dropRepo, nil)
	purchaseUC := usecase.NewPurchaseUsecase(
		dropRepo, newMemPurchaseRepo(),
		stubSecrets{}, &stubExecutor{}, nil,
		usecase.SaleConstants{CommissionWallet: wallet(0xCC), NFTName: "SolStyle Fit", NFTSymbol: "SOLSTYL"},
	)
	return &fixture{
		dropRepo: dropRepo,
		dropH:    NewDropHandler(dropUC),
		buyH:     NewPurchaseHandler(purchaseUC),
	}
}

func (f *fixture) seedDrop(t *testing.T, price uint64, bps uint16) dropdom.Drop {
	t.Helper()
	d, err := f.dropRepo.Create(context.Background(), dropdom.CreateDropInput{
		Seller:        wallet(0x5E),
		Price:         price,
		CommissionBps: bps,
		MetadataURI:   "https://example.com/metadata.json",
	})
	require.NoError(t, err)
	return *d
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ============================================================
// /drops
// ============================================================

func TestDropHandler_CreateAndGet(t *testing.T) {
	f := newFixture()

	rec := doJSON(t, f.dropH, http.MethodPost, "/drops", map[string]any{
		"seller":        wallet(0x5E),
		"price":         1_000_000,
		"commissionBps": 250,
		"metadataUri":   "https://example.com/metadata.json",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dropdom.Drop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = doJSON(t, f.dropH, http.MethodGet, "/drops/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDropHandler_CreateValidation(t *testing.T) {
	f := newFixture()

	rec := doJSON(t, f.dropH, http.MethodPost, "/drops", map[string]any{
		"seller":        "not-a-wallet",
		"price":         1,
		"commissionBps": 0,
		"metadataUri":   "https://x/m.json",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, f.dropH, http.MethodPost, "/drops", map[string]any{
		"seller":        wallet(1),
		"price":         1,
		"commissionBps": 10001,
		"metadataUri":   "https://x/m.json",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDropHandler_GetNotFound(t *testing.T) {
	f := newFixture()
	rec := doJSON(t, f.dropH, http.MethodGet, "/drops/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDropHandler_List(t *testing.T) {
	f := newFixture()
	f.seedDrop(t, 100, 0)
	f.seedDrop(t, 200, 100)

	rec := doJSON(t, f.dropH, http.MethodGet, "/drops", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		TotalCount int `json:"TotalCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.TotalCount)
}

// ============================================================
// /drops/{id}/buy
// ============================================================

func TestPurchaseHandler_Buy(t *testing.T) {
	f := newFixture()
	d := f.seedDrop(t, 1_000_000, 250)

	rec := doJSON(t, f.buyH, http.MethodPost, "/drops/"+d.ID+"/buy", map[string]any{
		"buyerWallet":     wallet(0xB1),
		"sellerWallet":    d.Seller,
		"paymentLamports": 1_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, strings.Contains(rec.Body.String(), "mint-1"))
}

func TestPurchaseHandler_BuyErrorMapping(t *testing.T) {
	f := newFixture()
	d := f.seedDrop(t, 1_000_000, 250)

	// 支払額不一致 → 422
	rec := doJSON(t, f.buyH, http.MethodPost, "/drops/"+d.ID+"/buy", map[string]any{
		"buyerWallet":     wallet(0xB1),
		"sellerWallet":    d.Seller,
		"paymentLamports": 999,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// 出品者不一致 → 409
	rec = doJSON(t, f.buyH, http.MethodPost, "/drops/"+d.ID+"/buy", map[string]any{
		"buyerWallet":     wallet(0xB1),
		"sellerWallet":    wallet(0xEE),
		"paymentLamports": 1_000_000,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Drop なし → 404
	rec = doJSON(t, f.buyH, http.MethodPost, "/drops/none/buy", map[string]any{
		"buyerWallet":     wallet(0xB1),
		"sellerWallet":    d.Seller,
		"paymentLamports": 1_000_000,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// buyer ウォレット不正 → 400
	rec = doJSON(t, f.buyH, http.MethodPost, "/drops/"+d.ID+"/buy", map[string]any{
		"buyerWallet":     "bogus",
		"sellerWallet":    d.Seller,
		"paymentLamports": 1_000_000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 壊れた JSON → 400
	req := httptest.NewRequest(http.MethodPost, "/drops/"+d.ID+"/buy", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	f.buyH.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPurchaseHandler_GetAndList(t *testing.T) {
	f := newFixture()
	d := f.seedDrop(t, 1_000_000, 0)

	rec := doJSON(t, f.buyH, http.MethodPost, "/drops/"+d.ID+"/buy", map[string]any{
		"buyerWallet":     wallet(0xB1),
		"sellerWallet":    d.Seller,
		"paymentLamports": 1_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var buyRes struct {
		Purchase purchasedom.Purchase `json:"purchase"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buyRes))
	require.NotEmpty(t, buyRes.Purchase.ID)

	rec = doJSON(t, f.buyH, http.MethodGet, "/purchases/"+buyRes.Purchase.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, f.buyH, http.MethodGet, "/purchases", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, f.buyH, http.MethodGet, "/purchases/none", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
