package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestGlobalLimiterMemory(t *testing.T) {
	l, err := NewGlobalLimiter(nil, "2-M", "test")
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	h := Global{Limiter: l}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i+1, want, rr.Code)
		}
		if want == http.StatusTooManyRequests {
			if rr.Header().Get("Retry-After") == "" || !strings.Contains(rr.Body.String(), "RATE_LIMITED") {
				t.Fatalf("unexpected limited response: %v %s", rr.Header(), rr.Body.String())
			}
		}
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("other client should pass, got %d", rr.Code)
	}
}

func TestGlobalLimiterRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	l, err := NewGlobalLimiter(client, "1-H", "test-global")
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	h := Global{Limiter: l}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	codes := []int{}
	for n := 0; n < 2; n++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestGlobalLimiterRejectsBadRate(t *testing.T) {
	if _, err := NewGlobalLimiter(nil, "lots", "x"); err == nil {
		t.Fatal("expected a parse error")
	}
}
