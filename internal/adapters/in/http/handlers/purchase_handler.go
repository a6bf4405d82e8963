// internal/adapters/in/http/handlers/purchase_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	usecase "solstyle/internal/application/usecase"
	dropdom "solstyle/internal/domain/drop"
	purchasedom "solstyle/internal/domain/purchase"
)

// PurchaseHandler は buy_drop と購入履歴のエンドポイントを担当します。
//
// - POST /drops/{id}/buy  : buy_drop（1回の原子的な購入遷移）
// - GET  /purchases       : 一覧
// - GET  /purchases/{id}  : 単一取得
type PurchaseHandler struct {
	uc *usecase.PurchaseUsecase
}

// NewPurchaseHandler はHTTPハンドラを初期化します。
func NewPurchaseHandler(uc *usecase.PurchaseUsecase) http.Handler {
	return &PurchaseHandler{uc: uc}
}

// ServeHTTP はHTTPルーティングの入口です。
func (h *PurchaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost &&
		strings.HasPrefix(r.URL.Path, "/drops/") &&
		strings.HasSuffix(r.URL.Path, "/buy"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/drops/"), "/buy")
		h.buy(w, r, strings.Trim(id, "/"))
	case r.Method == http.MethodGet && (r.URL.Path == "/purchases" || r.URL.Path == "/purchases/"):
		h.list(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/purchases/"):
		h.get(w, r, strings.TrimPrefix(r.URL.Path, "/purchases/"))
	default:
		writeErrorMsg(w, http.StatusNotFound, "not_found")
	}
}

type buyDropRequest struct {
	BuyerWallet     string `json:"buyerWallet"`
	BuyerEmail      string `json:"buyerEmail,omitempty"`
	SellerWallet    string `json:"sellerWallet"`
	PaymentLamports uint64 `json:"paymentLamports"`
}

// POST /drops/{id}/buy
func (h *PurchaseHandler) buy(w http.ResponseWriter, r *http.Request, dropID string) {
	dropID = strings.TrimSpace(dropID)
	if dropID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "invalid drop id")
		return
	}

	var req buyDropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res, err := h.uc.BuyDrop(r.Context(), usecase.BuyDropInput{
		DropID:          dropID,
		BuyerWallet:     req.BuyerWallet,
		BuyerEmail:      req.BuyerEmail,
		SellerWallet:    req.SellerWallet,
		PaymentLamports: req.PaymentLamports,
	})
	if err != nil {
		writePurchaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /purchases
func (h *PurchaseHandler) list(w http.ResponseWriter, r *http.Request) {
	number, perPage := parsePage(r)

	filter := purchasedom.Filter{
		DropID: strings.TrimSpace(r.URL.Query().Get("dropId")),
		Buyer:  strings.TrimSpace(r.URL.Query().Get("buyer")),
	}
	sort := purchasedom.Sort{Column: purchasedom.SortByPurchasedAt, Order: purchasedom.SortDesc}

	res, err := h.uc.List(r.Context(), filter, sort, purchasedom.Page{Number: number, PerPage: perPage})
	if err != nil {
		writePurchaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /purchases/{id}
func (h *PurchaseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.uc.GetByID(r.Context(), id)
	if err != nil {
		writePurchaseErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// エラーハンドリング
//
// 購入の検証エラーはすべて 4xx。collaborator 由来（残高不足・RPC 失敗など）は
// ここでは翻訳せず 502 で返し、メッセージはそのまま伝える。
func writePurchaseErr(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	switch {
	case errors.Is(err, dropdom.ErrNotFound), errors.Is(err, purchasedom.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, purchasedom.ErrIncorrectPaymentAmount):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, purchasedom.ErrOwnershipMismatch):
		code = http.StatusConflict
	case errors.Is(err, purchasedom.ErrArithmetic),
		errors.Is(err, purchasedom.ErrInvalidCommissionRate):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, purchasedom.ErrInvalidBuyer), errors.Is(err, dropdom.ErrInvalidID):
		code = http.StatusBadRequest
	}
	writeError(w, code, err)
}
