package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/salonbook/salonbook/libs/auth"
)

const testSecret = "test-secret"

func testToken(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.SignHS256(auth.NewClaims(7, "alice", role, time.Now(), time.Hour), testSecret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	return token
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Seen-User", r.Header.Get(headerUserID))
		w.Header().Set("Seen-Role", r.Header.Get(headerRole))
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRole(t *testing.T) {
	h := requireRole(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "admin")

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set(headerRole, "client")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}

	reqOK := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqOK.Header.Set(headerRole, "admin")
	rwOK := httptest.NewRecorder()
	h.ServeHTTP(rwOK, reqOK)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rwOK.Code)
	}
}

func TestRequireAuthHS256(t *testing.T) {
	h := requireAuth(echoIdentity(), testSecret)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "client"))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if rw.Header().Get("Seen-User") != "7" || rw.Header().Get("Seen-Role") != "client" {
		t.Fatalf("unexpected identity headers %q/%q", rw.Header().Get("Seen-User"), rw.Header().Get("Seen-Role"))
	}

	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwBad.Code)
	}

	reqNone := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	rwNone := httptest.NewRecorder()
	h.ServeHTTP(rwNone, reqNone)
	if rwNone.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwNone.Code)
	}
}

func TestOptionalAuthStripsSpoofedIdentity(t *testing.T) {
	h := optionalAuth(echoIdentity(), testSecret)

	req := httptest.NewRequest(http.MethodPost, "http://example.com", nil)
	req.Header.Set(headerRole, "admin")
	req.Header.Set(headerUserID, "1")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if rw.Header().Get("Seen-Role") != "" || rw.Header().Get("Seen-User") != "" {
		t.Fatalf("expected spoofed headers to be dropped, got %q/%q", rw.Header().Get("Seen-User"), rw.Header().Get("Seen-Role"))
	}

	reqTok := httptest.NewRequest(http.MethodPost, "http://example.com", nil)
	reqTok.Header.Set("Authorization", "Bearer "+testToken(t, "admin"))
	rwTok := httptest.NewRecorder()
	h.ServeHTTP(rwTok, reqTok)
	if rwTok.Header().Get("Seen-Role") != "admin" {
		t.Fatalf("expected admin role, got %q", rwTok.Header().Get("Seen-Role"))
	}
}

func TestAdminWrites(t *testing.T) {
	h := adminWrites(echoIdentity(), testSecret)

	cases := []struct {
		method string
		role   string
		want   int
	}{
		{http.MethodGet, "", http.StatusOK},
		{http.MethodPost, "", http.StatusUnauthorized},
		{http.MethodPost, "client", http.StatusForbidden},
		{http.MethodPut, "admin", http.StatusOK},
		{http.MethodDelete, "admin", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, "http://example.com/api/v1/salons", nil)
		if tc.role != "" {
			req.Header.Set("Authorization", "Bearer "+testToken(t, tc.role))
		}
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != tc.want {
			t.Fatalf("%s as %q: expected %d, got %d", tc.method, tc.role, tc.want, rw.Code)
		}
	}
}

func backend(t *testing.T, name string) *url.URL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Seen-Role", r.Header.Get(headerRole))
		_, _ = io.WriteString(w, name)
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse backend url: %v", err)
	}
	return u
}

func TestRegisterRoutesDispatch(t *testing.T) {
	mux := http.NewServeMux()
	registerRoutes(mux, upstreams{
		auth:      backend(t, "auth"),
		salon:     backend(t, "salon"),
		booking:   backend(t, "booking"),
		analytics: backend(t, "analytics"),
	}, testSecret)

	admin := testToken(t, "admin")
	client := testToken(t, "client")
	cases := []struct {
		method string
		path   string
		token  string
		status int
		body   string
	}{
		{http.MethodPost, "/api/v1/auth/login", "", http.StatusOK, "auth"},
		{http.MethodGet, "/api/v1/users/7", "", http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/v1/users/7", client, http.StatusOK, "auth"},
		{http.MethodGet, "/api/v1/salons", "", http.StatusOK, "salon"},
		{http.MethodPost, "/api/v1/salons", client, http.StatusForbidden, ""},
		{http.MethodPost, "/api/v1/salons", admin, http.StatusOK, "salon"},
		{http.MethodGet, "/api/v1/masters/3", "", http.StatusOK, "salon"},
		{http.MethodGet, "/api/v1/masters/3/available-slots", "", http.StatusOK, "booking"},
		{http.MethodGet, "/api/v1/services-with-prices", "", http.StatusOK, "salon"},
		{http.MethodGet, "/api/v1/clients", "", http.StatusUnauthorized, ""},
		{http.MethodGet, "/uploads/a.png", "", http.StatusOK, "salon"},
		{http.MethodPost, "/api/v1/appointments", client, http.StatusOK, "booking"},
		{http.MethodGet, "/api/v1/analytics/overview", client, http.StatusForbidden, ""},
		{http.MethodGet, "/api/v1/analytics/overview", admin, http.StatusOK, "analytics"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		rw := httptest.NewRecorder()
		mux.ServeHTTP(rw, req)
		if rw.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rw.Code)
		}
		if tc.body != "" && rw.Body.String() != tc.body {
			t.Fatalf("%s %s: expected backend %q, got %q", tc.method, tc.path, tc.body, rw.Body.String())
		}
	}
}
