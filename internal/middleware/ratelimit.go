package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type window struct {
	count int
	until time.Time
}

// windows tracks one fixed window per client. Expired entries are swept once
// per window length so idle clients do not accumulate.
type windows struct {
	mu        sync.Mutex
	limit     int
	per       time.Duration
	byClient  map[string]*window
	nextSweep time.Time
}

// admit counts a request for client at t. When the window is full it returns
// false and how long until the window reopens.
func (ws *windows) admit(client string, t time.Time) (bool, time.Duration) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !t.Before(ws.nextSweep) {
		for k, w := range ws.byClient {
			if !t.Before(w.until) {
				delete(ws.byClient, k)
			}
		}
		ws.nextSweep = t.Add(ws.per)
	}

	w, ok := ws.byClient[client]
	if !ok || !t.Before(w.until) {
		w = &window{until: t.Add(ws.per)}
		ws.byClient[client] = w
	}
	if w.count >= ws.limit {
		return false, w.until.Sub(t)
	}
	w.count++
	return true, 0
}

// RateLimit admits limit requests per client IP in each fixed window of length per.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return rateLimit(limit, per, time.Now)
}

func rateLimit(limit int, per time.Duration, now func() time.Time) func(http.Handler) http.Handler {
	ws := &windows{limit: limit, per: per, byClient: make(map[string]*window)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := ws.admit(clientIPForRateLimit(r), now())
			if !ok {
				retry := int(wait/time.Second) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"code":"rate_limited","message":"too many requests"}}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
