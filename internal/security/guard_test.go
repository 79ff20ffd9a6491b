package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func signupRequest(t *testing.T, form url.Values, ip, ua string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("X-Forwarded-For", ip)
	r.Header.Set("User-Agent", ua)
	return r
}

func TestGuardAllowsCleanRequest(t *testing.T) {
	g := NewGuard()
	r := signupRequest(t, url.Values{"email": {"a@example.com"}}, "10.0.0.1", "curl/8.0")
	if err := g.CheckSubscribe(r); err != nil {
		t.Fatalf("clean request rejected: %v", err)
	}
}

func TestGuardHoneypot(t *testing.T) {
	g := NewGuard()
	form := url.Values{"email": {"a@example.com"}, HoneypotField: {"http://spam.example"}}
	r := signupRequest(t, form, "10.0.0.1", "curl/8.0")
	if err := g.CheckSubscribe(r); !errors.Is(err, ErrHoneypot) {
		t.Fatalf("expected ErrHoneypot, got %v", err)
	}
}

func TestGuardRateLimit(t *testing.T) {
	g := NewGuard()
	form := url.Values{"email": {"a@example.com"}}

	for i := 0; i < defaultMaxHits; i++ {
		r := signupRequest(t, form, "10.0.0.1", "curl/8.0")
		if err := g.CheckSubscribe(r); err != nil {
			t.Fatalf("hit %d rejected early: %v", i+1, err)
		}
	}

	r := signupRequest(t, form, "10.0.0.1", "curl/8.0")
	if err := g.CheckSubscribe(r); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after window exhausted, got %v", err)
	}

	// a different client keeps its own window
	other := signupRequest(t, form, "10.0.0.2", "curl/8.0")
	if err := g.CheckSubscribe(other); err != nil {
		t.Fatalf("other client rejected: %v", err)
	}
}

func TestGuardCaptchaHook(t *testing.T) {
	g := NewGuard()
	g.Validator = func(r *http.Request) bool { return false }

	r := signupRequest(t, url.Values{"email": {"a@example.com"}}, "10.0.0.1", "curl/8.0")
	if err := g.CheckSubscribe(r); !errors.Is(err, ErrCaptcha) {
		t.Fatalf("expected ErrCaptcha, got %v", err)
	}
}
