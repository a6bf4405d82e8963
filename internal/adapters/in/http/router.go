// internal/adapters/in/http/router.go
package http

import (
	"net/http"
	"strings"

	"solstyle/internal/adapters/in/http/handlers"
	"solstyle/internal/adapters/in/http/middleware"
	usecase "solstyle/internal/application/usecase"
)

// RouterDeps は DI コンテナから受け取る依存の束。
type RouterDeps struct {
	DropUC     *usecase.DropUsecase
	PurchaseUC *usecase.PurchaseUsecase

	// nil の場合、書き込み系エンドポイントも未認証で通す（ローカル開発用）
	FirebaseAuth *middleware.FirebaseAuthClient
}

// NewRouter assembles the public HTTP surface:
//
//	POST /drops            create_drop
//	POST /drops/metadata   metadata.json -> URI
//	GET  /drops            list
//	GET  /drops/{id}       get
//	POST /drops/{id}/buy   buy_drop
//	GET  /purchases        list
//	GET  /purchases/{id}   get
func NewRouter(deps RouterDeps) http.Handler {
	dropH := handlers.NewDropHandler(deps.DropUC)
	purchaseH := handlers.NewPurchaseHandler(deps.PurchaseUC)

	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		// /drops/{id}/buy は購入側へ
		case strings.HasPrefix(r.URL.Path, "/drops/") && strings.HasSuffix(r.URL.Path, "/buy"):
			purchaseH.ServeHTTP(w, r)
		case strings.HasPrefix(r.URL.Path, "/purchases"):
			purchaseH.ServeHTTP(w, r)
		case strings.HasPrefix(r.URL.Path, "/drops"):
			dropH.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	var handler http.Handler = dispatch

	// 書き込み系 (POST) のみ Firebase 認証を要求する
	if deps.FirebaseAuth != nil {
		auth := &middleware.AuthMiddleware{FirebaseAuth: deps.FirebaseAuth}
		authed := auth.Handler(dispatch)
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				authed.ServeHTTP(w, r)
				return
			}
			dispatch.ServeHTTP(w, r)
		})
	}

	return middleware.Recover(handler)
}
