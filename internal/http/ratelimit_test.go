package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	metrics := &securityMetrics{}

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1", metrics) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.allow("10.0.0.1", metrics) {
		t.Fatalf("fourth request should be rejected")
	}
	if !rl.allow("10.0.0.2", metrics) {
		t.Fatalf("other clients have their own budget")
	}
	if metrics.snapshot()["rate_limit_hits"] != 1 {
		t.Fatalf("expected one rate limit hit, got %v", metrics.snapshot())
	}

	now = now.Add(time.Minute)
	if !rl.allow("10.0.0.1", metrics) {
		t.Fatalf("a new window should reset the budget")
	}

	now = now.Add(11 * time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 2 || rl.ActiveClients() != 0 {
		t.Fatalf("expected stale clients removed, got %d (%d active)", removed, rl.ActiveClients())
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct client", "203.0.113.7:5000", "", "203.0.113.7"},
		{"untrusted forwarder ignored", "203.0.113.7:5000", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy forwards", "10.1.2.3:5000", "198.51.100.1, 10.1.2.3", "198.51.100.1"},
		{"garbage forwarded header", "127.0.0.1:5000", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	metrics := &securityMetrics{}
	if detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/summary?currency=EUR", nil), metrics) {
		t.Errorf("normal request flagged")
	}
	if !detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/.env", nil), metrics) {
		t.Errorf("dotenv probe not flagged")
	}
	if metrics.snapshot()["suspicious_requests"] != 1 {
		t.Errorf("unexpected metrics %v", metrics.snapshot())
	}
}
