// Package server exposes the link directory over a small JSON API for the
// browser front end.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bunchhieng/linkdir/internal/catalog"
	"github.com/bunchhieng/linkdir/internal/links"
	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const (
	fetchTimeout    = time.Minute
	shutdownTimeout = 5 * time.Second
)

// Server serves the directory API.
type Server struct {
	store   *links.Store
	catalog *catalog.Loader
	origins []string
	log     *slog.Logger
}

// New creates a server. An empty origins list allows any origin.
func New(store *links.Store, loader *catalog.Loader, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		store:   store,
		catalog: loader,
		origins: origins,
		log:     logging.Component("server"),
	}
}

// Handler returns the routed API wrapped in CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	// Wrong methods must answer 405; a PathPrefix subrouter reports 404 instead.
	router.HandleFunc("/api/site", s.getSite).Methods("GET")
	router.HandleFunc("/api/categories", s.getCategories).Methods("GET")
	router.HandleFunc("/api/links", s.getLinks).Methods("GET")
	router.HandleFunc("/api/links/{id}", s.getLink).Methods("GET")
	router.HandleFunc("/api/links/{id}/click", s.click).Methods("POST")
	router.HandleFunc("/api/github/fetch", s.fetchGitHub).Methods("POST")
	router.HandleFunc("/api/stats", s.getStats).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
	return c.Handler(router)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
