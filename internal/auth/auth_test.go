package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewService("secret", time.Hour)
	token, err := s.IssueToken("sess_1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != "sess_1" {
		t.Errorf("subject = %q, want sess_1", got)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := NewService("secret", time.Hour)
	other := NewService("other", time.Hour)
	foreign, _ := other.IssueToken("sess_1")

	expired := NewService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _ := expired.IssueToken("sess_1")

	for name, token := range map[string]string{
		"garbage":   "abc.def.ghi",
		"wrong key": foreign,
		"expired":   stale,
		"empty":     "",
	} {
		if _, err := s.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestMiddleware(t *testing.T) {
	s := NewService("secret", time.Hour)
	token, _ := s.IssueToken("sess_a")

	r := mux.NewRouter()
	sub := r.PathPrefix("/sessions/{sessionId}").Subrouter()
	sub.Use(s.Middleware)
	sub.HandleFunc("/token", NewHandler(s).Refresh).Methods("POST")
	sub.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(SessionIDFromContext(r.Context())))
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"header", "/sessions/sess_a/ping", "Bearer " + token, http.StatusOK},
		{"query", "/sessions/sess_a/ping?token=" + token, "", http.StatusOK},
		{"missing", "/sessions/sess_a/ping", "", http.StatusUnauthorized},
		{"bad scheme", "/sessions/sess_a/ping", "Basic " + token, http.StatusUnauthorized},
		{"other session", "/sessions/sess_b/ping", "Bearer " + token, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != "sess_a" {
				t.Errorf("session in context = %q", rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/sessions/sess_a/token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var resp tokenResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if id, err := s.ValidateToken(resp.Token); err != nil || id != "sess_a" {
		t.Errorf("refreshed token: %q, %v", id, err)
	}
}
