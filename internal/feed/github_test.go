package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListReposRequest(t *testing.T) {
	var gotPath, gotQuery, gotAccept, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(WithAPIBase(server.URL+"/"), WithToken("abc"), WithHTTPClient(server.Client()))
	body, err := c.ListRepos(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("ListRepos failed: %v", err)
	}

	if string(body) != "[]" {
		t.Errorf("Expected raw body, got %s", body)
	}
	if gotPath != "/users/octocat/repos" {
		t.Errorf("Expected /users/octocat/repos, got %s", gotPath)
	}
	if gotQuery != "per_page=100&sort=updated" {
		t.Errorf("Expected per_page and sort query, got %s", gotQuery)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Expected v3 accept header, got %s", gotAccept)
	}
	if gotAuth != "token abc" {
		t.Errorf("Expected token auth header, got %s", gotAuth)
	}
}

func TestListReposBadStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(WithAPIBase(server.URL))
		_, err := c.ListRepos(context.Background(), "octocat")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("Status %d: expected ErrUnexpectedStatus, got %v", status, err)
		}
		server.Close()
	}
}

func TestListReposTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewClient(WithAPIBase(server.URL))
	if _, err := c.ListRepos(context.Background(), "octocat"); err == nil {
		t.Error("Expected error from closed server")
	}
}
