package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/bunchhieng/linkdir/internal/links"
	"github.com/bunchhieng/linkdir/internal/model"
	"github.com/gorilla/mux"
)

type clickResponse struct {
	ID          string     `json:"id"`
	Count       int        `json:"count"`
	LastClickAt *time.Time `json:"lastClickAt"`
}

type fetchResponse struct {
	Added int `json:"added"`
}

type statsResponse struct {
	Total int                `json:"total"`
	Top   []model.LinkRecord `json:"top"`
	Stats model.ClickStats   `json:"stats"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) getSite(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.SiteInfo())
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Categories())
}

func (s *Server) getLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, links.Filter(s.store.Links(), q.Get("q"), q.Get("category")))
}

func (s *Server) getLink(w http.ResponseWriter, r *http.Request) {
	link, ok := s.store.Link(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, model.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.store.Link(id); !ok {
		http.Error(w, model.ErrNotFound.Error(), http.StatusNotFound)
		return
	}

	stat := s.store.IncrementClickCount(id)
	writeJSON(w, http.StatusOK, clickResponse{ID: id, Count: stat.Count, LastClickAt: stat.LastClickAt})
}

func (s *Server) fetchGitHub(w http.ResponseWriter, r *http.Request) {
	// Not tied to the client connection.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), fetchTimeout)
	defer cancel()

	added := s.store.FetchGitHubRepos(ctx)
	writeJSON(w, http.StatusOK, fetchResponse{Added: added})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	stats := s.store.ClickStats()
	writeJSON(w, http.StatusOK, statsResponse{
		Total: stats.Total(),
		Top:   s.store.TopLinks(limit),
		Stats: stats,
	})
}
