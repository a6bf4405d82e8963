// internal/application/usecase/fakes_test.go
package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	dropdom "solstyle/internal/domain/drop"
	purchasedom "solstyle/internal/domain/purchase"
)

func testWallet(b byte) string {
	return base58.Encode(bytes.Repeat([]byte{b}, 32))
}

// ============================================================
// in-memory drop repository
// ============================================================

type fakeDropRepo struct {
	mu    sync.Mutex
	seq   int
	drops map[string]dropdom.Drop

	getErr error
}

func newFakeDropRepo() *fakeDropRepo {
	return &fakeDropRepo{drops: map[string]dropdom.Drop{}}
}

func (r *fakeDropRepo) Create(ctx context.Context, in dropdom.CreateDropInput) (*dropdom.Drop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	d, err := dropdom.New(fmt.Sprintf("drop-%d", r.seq), in.Seller, in.Price, in.CommissionBps, in.MetadataURI, in.OnChainAccount, time.Now())
	if err != nil {
		return nil, err
	}
	r.drops[d.ID] = d
	return &d, nil
}

func (r *fakeDropRepo) GetByID(ctx context.Context, id string) (*dropdom.Drop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	d, ok := r.drops[id]
	if !ok {
		return nil, dropdom.ErrNotFound
	}
	cp := d
	return &cp, nil
}

func (r *fakeDropRepo) List(ctx context.Context, filter dropdom.Filter, sort dropdom.Sort, page dropdom.Page) (dropdom.PageResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]dropdom.Drop, 0, len(r.drops))
	for _, d := range r.drops {
		if filter.Seller != "" && d.Seller != filter.Seller {
			continue
		}
		items = append(items, d)
	}
	return dropdom.PageResult{Items: items, TotalCount: len(items), TotalPages: 1, Page: 1, PerPage: len(items)}, nil
}

func (r *fakeDropRepo) Count(ctx context.Context, filter dropdom.Filter) (int, error) {
	res, _ := r.List(ctx, filter, dropdom.Sort{}, dropdom.Page{})
	return res.TotalCount, nil
}

func (r *fakeDropRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drops, id)
	return nil
}

// ============================================================
// in-memory purchase repository
// ============================================================

type fakePurchaseRepo struct {
	mu        sync.Mutex
	seq       int
	purchases map[string]purchasedom.Purchase

	createErr error
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: map[string]purchasedom.Purchase{}}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, p purchasedom.Purchase) (*purchasedom.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	if p.ID == "" {
		p.ID = fmt.Sprintf("purchase-%d", r.seq)
	}
	r.purchases[p.ID] = p
	return &p, nil
}

func (r *fakePurchaseRepo) GetByID(ctx context.Context, id string) (*purchasedom.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, purchasedom.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *fakePurchaseRepo) List(ctx context.Context, filter purchasedom.Filter, sort purchasedom.Sort, page purchasedom.Page) (purchasedom.PageResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]purchasedom.Purchase, 0, len(r.purchases))
	for _, p := range r.purchases {
		if filter.DropID != "" && p.DropID != filter.DropID {
			continue
		}
		if filter.Buyer != "" && p.Buyer != filter.Buyer {
			continue
		}
		items = append(items, p)
	}
	return purchasedom.PageResult{Items: items, TotalCount: len(items), TotalPages: 1, Page: 1, PerPage: len(items)}, nil
}

func (r *fakePurchaseRepo) Count(ctx context.Context, filter purchasedom.Filter) (int, error) {
	res, _ := r.List(ctx, filter, purchasedom.Sort{}, purchasedom.Page{})
	return res.TotalCount, nil
}

// ============================================================
// collaborators
// ============================================================

type fakeSecrets struct {
	err error
}

func (s *fakeSecrets) GetSigner(ctx context.Context, walletAddress string) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return "signer:" + walletAddress, nil
}

// fakeSaleExecutor records every call and fabricates mint/tx ids.
type fakeSaleExecutor struct {
	mu    sync.Mutex
	calls []ExecuteSaleInput
	err   error
}

func (e *fakeSaleExecutor) ExecuteSale(ctx context.Context, in ExecuteSaleInput) (ExecuteSaleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return ExecuteSaleResult{}, e.err
	}
	e.calls = append(e.calls, in)
	n := len(e.calls)
	return ExecuteSaleResult{
		MintAddress: fmt.Sprintf("mint-%d", n),
		TxSignature: fmt.Sprintf("tx-%d", n),
	}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) SendReceipt(ctx context.Context, to string, p purchasedom.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type fakeUploader struct {
	uri string
	err error

	lastObjectName string
	lastData       []byte
}

func (u *fakeUploader) UploadMetadata(ctx context.Context, objectName string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.lastObjectName = objectName
	u.lastData = data
	return u.uri, nil
}
