package server

import (
	"net/http/httptest"
	"testing"
)

func TestRateLimiterIsPerIP(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.stop()

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("second request from same ip should be limited")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("other ip should have its own bucket")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(5)
	rl.stop()
	rl.stop()
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.168.1.20:51234"
	if got := clientIP(r); got != "192.168.1.20" {
		t.Fatalf("expected host only, got %q", got)
	}
	r.RemoteAddr = "no-port"
	if got := clientIP(r); got != "no-port" {
		t.Fatalf("expected raw addr, got %q", got)
	}
}
