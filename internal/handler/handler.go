package handler

import (
	"context"
	"net/http"

	"github.com/techassets/backend/internal/repository"
)

// Check はヘルスチェックで実行される依存先の疎通確認。
type Check func(ctx context.Context) error

type namedCheck struct {
	name string
	fn   Check
}

type Handler struct {
	frontendURL string
	checks      []namedCheck
}

// New は "database" チェックを登録済みの Handler を返す。
func New(db repository.DB, frontendURL string) *Handler {
	h := &Handler{frontendURL: frontendURL}
	h.AddCheck("database", db.Ping)
	return h
}

// AddCheck registers a dependency reported by Health under name.
func (h *Handler) AddCheck(name string, fn Check) {
	h.checks = append(h.checks, namedCheck{name: name, fn: fn})
}

func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.frontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
