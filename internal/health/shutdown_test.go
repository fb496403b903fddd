package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drinkpos/internal/health"
)

type healthyChecker struct{}

func (healthyChecker) PingRedis(context.Context, time.Duration) error { return nil }
func (healthyChecker) MenuLoaded(context.Context) error               { return nil }

func TestReadyFlipsDuringDrain(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	h := health.Handler{Checker: healthyChecker{}}

	probe := func() (int, map[string]any) {
		rr := httptest.NewRecorder()
		h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		return rr.Code, body
	}

	health.SetReady(true)
	code, _ := probe()
	require.Equal(t, http.StatusOK, code)

	health.SetReady(false)
	code, body := probe()
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "SHUTTING_DOWN", body["error"].(map[string]any)["code"])

	rr := httptest.NewRecorder()
	h.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code, "liveness stays green while draining")
}
