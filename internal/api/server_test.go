package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/fuelprice-data/internal/cache"
	"github.com/albapepper/fuelprice-data/internal/config"
	"github.com/albapepper/fuelprice-data/internal/store"
)

type noopHealth struct{}

func (noopHealth) HealthCheck(ctx context.Context) error { return nil }

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	c := cache.New(false)
	srv := httptest.NewServer(NewRouter(store.NewMemory(), noopHealth{}, c, cfg, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouterRoutes(t *testing.T) {
	srv := newTestServer(t, &config.Config{})

	for _, path := range []string{"/", "/health", "/health/db", "/health/cache", "/metrics", "/api/v1/stations"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
		})
	}
}

func TestRouterRateLimit(t *testing.T) {
	srv := newTestServer(t, &config.Config{
		RateLimitEnabled:  true,
		RateLimitRequests: 2,
		RateLimitWindow:   time.Hour,
	})

	codes := []int{}
	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
