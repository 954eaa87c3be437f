package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
)

type countingStore struct {
	mu   sync.Mutex
	hits map[string]int64
}

func (s *countingStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hits == nil {
		s.hits = map[string]int64{}
	}
	s.hits[key]++
	return s.hits[key], nil
}

func (s *countingStore) RateLimitKey(policy, scope, subject string) string {
	return strings.Join([]string{policy, scope, subject}, ":")
}

func loginAttempt(email, remote string) *http.Request {
	body := url.Values{"email": {email}, "password": {"secret"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = remote
	return req
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthRateLimitStatuses(t *testing.T) {
	cases := []struct {
		name   string
		policy AuthRateLimitPolicy
		email  string
		want   []int
	}{
		{"under limit", NewAuthRateLimitPolicy("login", time.Minute, 3, 3), "a@example.com", []int{200, 200, 200}},
		{"email limit ignores case and spaces", NewAuthRateLimitPolicy("login", time.Minute, 0, 2), " Blocked@Example.com", []int{200, 200, 429}},
		{"ip limit", NewAuthRateLimitPolicy("login", time.Minute, 1, 0), "b@example.com", []int{200, 429}},
		{"zero window disables", NewAuthRateLimitPolicy("login", 0, 1, 1), "c@example.com", []int{200, 200, 200}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthRateLimit(tc.policy, &countingStore{}, nil, nil)(http.HandlerFunc(okHandler))
			for i, want := range tc.want {
				email := tc.email
				if i%2 == 1 {
					email = strings.ToUpper(email)
				}
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, loginAttempt(email, "1.2.3.4:5678"))
				if rec.Code != want {
					t.Fatalf("attempt %d: expected %d, got %d", i+1, want, rec.Code)
				}
			}
		})
	}
}

func TestAuthRateLimitKeepsFormForHandler(t *testing.T) {
	var email string
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 2, 2), &countingStore{}, nil, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { email = r.PostFormValue("email") }))

	handler.ServeHTTP(httptest.NewRecorder(), loginAttempt("tester@example.com", "1.2.3.4:5678"))
	if email != "tester@example.com" {
		t.Fatalf("form lost before handler, email=%q", email)
	}
}

func TestAuthRateLimitEnvelopeAndOnLimited(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 1, 0)

	blocked := AuthRateLimit(policy, embeddedRedis(t), nil, nil)(http.HandlerFunc(okHandler))
	blocked.ServeHTTP(httptest.NewRecorder(), loginAttempt("x@example.com", "5.6.7.8:1"))
	rec := httptest.NewRecorder()
	blocked.ServeHTTP(rec, loginAttempt("x@example.com", "5.6.7.8:1"))
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected code %q", payload.Error.Code)
	}

	onLimited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	redirecting := AuthRateLimit(policy, embeddedRedis(t), onLimited, nil)(http.HandlerFunc(okHandler))
	for i, want := range []int{http.StatusOK, http.StatusSeeOther} {
		req := loginAttempt("y@example.com", "5.6.7.8:1234")
		req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		redirecting.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("attempt %d: expected %d, got %d", i+1, want, rec.Code)
		}
	}
}
