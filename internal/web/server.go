package web

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/callscribe/internal/inference"
	"github.com/hpungsan/callscribe/internal/ingest"
	"github.com/hpungsan/callscribe/internal/logger"
)

// NewServer creates and configures the HTTP server for the JSON API.
func NewServer(db *sql.DB, guard *inference.Guard, ingestor *ingest.Ingestor, addr string) *http.Server {
	h := &Handlers{
		db:       db,
		guard:    guard,
		ingestor: ingestor,
		log:      logger.Default(),
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("POST /api/call", h.HandleCreateCall)
	mux.HandleFunc("GET /api/call/{id}", h.HandleGetCall)
	mux.HandleFunc("GET /api/category", h.HandleListCategories)
	mux.HandleFunc("POST /api/category", h.HandleCreateCategory)
	mux.HandleFunc("PUT /api/category/{id}", h.HandleUpdateCategory)
	mux.HandleFunc("DELETE /api/category/{id}", h.HandleDeleteCategory)
	mux.HandleFunc("GET /healthz", h.HandleHealthz)

	return &http.Server{
		Addr:    addr,
		Handler: securityHeaders(mux),
		// No write timeout: call creation and category writes hold the
		// response open for a full pipeline or corpus scan.
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	log := logger.Default()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.WithField("addr", srv.Addr).Info("callscribe API listening")

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		// Generous deadline: an in-flight reindex scan finishes row by row.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
