// Package ratelimit throttles requests per client with token buckets.
//
// Each limiter allows `perMinute` requests in a burst and refills at the same
// rate, which approximates a "N per minute" window without bookkeeping per
// window. Buckets are keyed by client IP (chi's RealIP has already rewritten
// RemoteAddr) and dropped once idle.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter holds one token bucket per client key.
type Limiter struct {
	name      string
	perMinute int
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*entry
}

// New returns a limiter allowing perMinute requests per client per minute.
func New(name string, perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &Limiter{
		name:      name,
		perMinute: perMinute,
		now:       time.Now,
		clients:   make(map[string]*entry),
	}
}

// Allow consumes one token for key and reports whether the request may proceed.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	e, ok := l.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
		l.clients[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Sweep forgets clients not seen since cutoff and returns how many.
func (l *Limiter) Sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

// Handler rejects requests over budget with 429 and a JSON error body.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientKey(r)
		if !l.Allow(key) {
			log.Warn().Str("limiter", l.name).Str("client", key).Str("path", r.URL.Path).Msg("rate limited")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Retry-After", strconv.Itoa(int((time.Minute/time.Duration(l.perMinute)).Seconds())+1))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many requests, slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientKey returns the host part of RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
