// Package security guards the public signup intake: a honeypot field for
// bots and a fingerprint rate limit per client window. Captcha integration
// stays pluggable through the Validator hook.
package security

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrHoneypot    = errors.New("honeypot triggered")
	ErrRateLimited = errors.New("too many attempts")
	ErrCaptcha     = errors.New("captcha validation failed")
)

// HoneypotField is a hidden form input; a human never fills it.
const HoneypotField = "website"

const (
	defaultWindow  = 10 * time.Minute
	defaultMaxHits = 20
)

type bucket struct {
	hits  int
	reset time.Time
}

type Guard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	window  time.Duration
	maxHits int

	// Validator, when set, is consulted last (e.g. a captcha check).
	Validator func(r *http.Request) bool
}

func NewGuard() *Guard {
	return &Guard{
		buckets: make(map[string]*bucket),
		window:  defaultWindow,
		maxHits: defaultMaxHits,
	}
}

// CheckSubscribe runs the full guard chain. The honeypot error must be
// answered with a silent fake success so bots learn nothing.
func (g *Guard) CheckSubscribe(r *http.Request) error {
	if !g.allow(fingerprint(r)) {
		return ErrRateLimited
	}
	if strings.TrimSpace(r.FormValue(HoneypotField)) != "" {
		return ErrHoneypot
	}
	if g.Validator != nil && !g.Validator(r) {
		return ErrCaptcha
	}
	return nil
}

func (g *Guard) allow(fp string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	b := g.buckets[fp]
	if b == nil || now.After(b.reset) {
		b = &bucket{reset: now.Add(g.window)}
		g.buckets[fp] = b
	}
	b.hits++
	return b.hits <= g.maxHits
}

// fingerprint identifies a client by IP and user agent.
func fingerprint(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	return ip + "|" + r.UserAgent()
}
