// internal/adapters/in/http/handlers/drop_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	usecase "solstyle/internal/application/usecase"
	dropdom "solstyle/internal/domain/drop"
)

// DropHandler は /drops 関連のエンドポイントを担当します。
//
// - POST /drops            : create_drop（出品）
// - POST /drops/metadata   : metadata.json を GCS へ置いて URI を返す補助
// - GET  /drops            : 一覧
// - GET  /drops/{id}       : 単一取得
type DropHandler struct {
	uc *usecase.DropUsecase
}

// NewDropHandler はHTTPハンドラを初期化します。
func NewDropHandler(uc *usecase.DropUsecase) http.Handler {
	return &DropHandler{uc: uc}
}

// ServeHTTP はHTTPルーティングの入口です。
func (h *DropHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/drops/metadata":
		h.prepareMetadata(w, r)
	case r.Method == http.MethodPost && (r.URL.Path == "/drops" || r.URL.Path == "/drops/"):
		h.create(w, r)
	case r.Method == http.MethodGet && (r.URL.Path == "/drops" || r.URL.Path == "/drops/"):
		h.list(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/drops/"):
		h.get(w, r, strings.TrimPrefix(r.URL.Path, "/drops/"))
	default:
		writeErrorMsg(w, http.StatusNotFound, "not_found")
	}
}

// POST /drops
func (h *DropHandler) create(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateDropInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json body")
		return
	}

	d, err := h.uc.CreateDrop(r.Context(), in)
	if err != nil {
		writeDropErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// POST /drops/metadata
func (h *DropHandler) prepareMetadata(w http.ResponseWriter, r *http.Request) {
	var in usecase.PrepareMetadataInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json body")
		return
	}

	uri, err := h.uc.PrepareMetadata(r.Context(), in)
	if err != nil {
		writeDropErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"metadataUri": uri})
}

// GET /drops
func (h *DropHandler) list(w http.ResponseWriter, r *http.Request) {
	number, perPage := parsePage(r)

	filter := dropdom.Filter{
		Seller: strings.TrimSpace(r.URL.Query().Get("seller")),
	}
	sort := dropdom.Sort{Column: dropdom.SortByCreatedAt, Order: dropdom.SortDesc}

	res, err := h.uc.List(r.Context(), filter, sort, dropdom.Page{Number: number, PerPage: perPage})
	if err != nil {
		writeDropErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /drops/{id}
func (h *DropHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.uc.GetByID(r.Context(), id)
	if err != nil {
		writeDropErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// エラーハンドリング
func writeDropErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, dropdom.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, dropdom.ErrInvalidID),
		errors.Is(err, dropdom.ErrInvalidSeller),
		errors.Is(err, dropdom.ErrInvalidCommissionRate),
		errors.Is(err, dropdom.ErrInvalidMetadataURI),
		errors.Is(err, dropdom.ErrInvalidOnChainAccount):
		code = http.StatusBadRequest
	}
	writeError(w, code, err)
}
