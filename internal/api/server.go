package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured. Snapshot creation is
// guarded by adminAPIKey when one is set.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/nav", handler.GetNAV)
	mux.HandleFunc("GET /api/v1/ownership", handler.GetOwnership)
	mux.HandleFunc("GET /api/v1/pnl/realized", handler.GetRealizedPnL)
	mux.HandleFunc("GET /api/v1/assets/{id}/history", handler.GetAssetHistory)

	mux.HandleFunc("GET /api/v1/snapshots/latest", handler.GetLatestSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots/{id}/xlsx", handler.ExportSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots/{id}", handler.GetSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots", handler.ListSnapshots)

	createHandler := http.HandlerFunc(handler.CreateSnapshot)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/snapshots", requireAuth(adminAPIKey, createHandler))
	} else {
		mux.Handle("POST /api/v1/snapshots", createHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
