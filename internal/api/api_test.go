package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/testutil"
)

// testRouter sets up a snapshot holding two documents and the API router.
func testRouter(t *testing.T, authToken string) http.Handler {
	t.Helper()
	db := testutil.TestSnapshot(t)
	a := &models.Document{Name: "a.pdf", Path: "a.pdf", ContentHash: "ha", Tags: []string{"work"}, IDs: []string{"isbn:1"}}
	b := &models.Document{Name: "b.pdf", Path: "sub/b.pdf", ContentHash: "hb", Tags: []string{"work", "home"}}
	if err := db.Replace([]*models.Document{a, b}, map[string]*models.Document{"ha": a, "isbn:1": a, "hb": b}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	return NewRouter(db, authToken != "", authToken)
}

func TestGetDocument(t *testing.T) {
	router := testRouter(t, "")

	for _, target := range []string{"/documents/ha", "/documents/isbn:1", "/documents/isbn%3A1"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s = %d, body = %s", target, w.Code, w.Body.String())
		}
		var resp map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["path"] != "a.pdf" {
			t.Errorf("%s path = %v", target, resp["path"])
		}
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	router := testRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d, want 404", w.Code)
	}
}

func TestGetDocument_NoSnapshot(t *testing.T) {
	router := NewRouter(nil, false, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/ha", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("no snapshot = %d, want 503", w.Code)
	}
}

func TestListTags(t *testing.T) {
	router := testRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("tags = %d", w.Code)
	}
	var resp struct {
		Tags []struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		} `json:"tags"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tags) != 2 || resp.Tags[1].Tag != "work" || resp.Tags[1].Count != 2 {
		t.Errorf("tags = %+v", resp.Tags)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := testRouter(t, "secret123")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer secret123", http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "Bearer wrong", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret123", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tags", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestStaticHandler_HidesDotfiles(t *testing.T) {
	root, _ := testutil.TestCatalog(t)
	testutil.WriteFile(t, root, "a.pdf", "pdf bytes")
	testutil.WriteFile(t, root, ".folio.yaml", "auth:\n  mode: token\n  token: s3cret\n")
	testutil.WriteFile(t, root, ".env", "FOLIO_ROOT=/srv\n")
	testutil.WriteFile(t, root, ".git/config", "[core]\n")
	h := StaticHandler(root)

	tests := []struct {
		target string
		want   int
	}{
		{"/a.pdf", http.StatusOK},
		{"/.folio.yaml", http.StatusNotFound},
		{"/.env", http.StatusNotFound},
		{"/.git/config", http.StatusNotFound},
		{"/sub/../.env", http.StatusNotFound},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s = %d, want %d", tc.target, w.Code, tc.want)
		}
	}
}
