package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auto-service/internal/config"
)

func cacheContext(method, target, routePath string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath(routePath)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	return c, rec
}

// unreachableRedis returns a client whose every command fails fast, for
// exercising the degradation paths without a server.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCacheKeyDistinguishesResourcePaths(t *testing.T) {
	// two IDs under the same parameterised route must never share an entry
	c1, _ := cacheContext(http.MethodGet, "/api/shifts/1", "/api/shifts/:id", "id", "1")
	c2, _ := cacheContext(http.MethodGet, "/api/shifts/2", "/api/shifts/:id", "id", "2")
	require.NotEqual(t, cacheKey("cache", c1), cacheKey("cache", c2))
}

func TestCacheKeyStableForSameRequest(t *testing.T) {
	c1, _ := cacheContext(http.MethodGet, "/api/shifts/1", "/api/shifts/:id", "id", "1")
	c2, _ := cacheContext(http.MethodGet, "/api/shifts/1", "/api/shifts/:id", "id", "1")
	require.Equal(t, cacheKey("cache", c1), cacheKey("cache", c2))
}

func TestCacheKeyIncludesQueryString(t *testing.T) {
	c1, _ := cacheContext(http.MethodGet, "/api/shifts?status=open", "/api/shifts")
	c2, _ := cacheContext(http.MethodGet, "/api/shifts?status=closed", "/api/shifts")
	require.NotEqual(t, cacheKey("cache", c1), cacheKey("cache", c2))
}

func TestResponseCacheDisabledPassesThrough(t *testing.T) {
	mw := NewResponseCache(config.CacheConfig{Enabled: false}, nil)
	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, echo.Map{"id": 1})
	})

	c, rec := cacheContext(http.MethodGet, "/api/shifts/1", "/api/shifts/:id", "id", "1")
	require.NoError(t, handler(c))
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Cache"))
}

func TestResponseCacheIgnoresWrites(t *testing.T) {
	mw := NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache"}, unreachableRedis())
	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusCreated, echo.Map{"id": 1})
	})

	c, rec := cacheContext(http.MethodPost, "/api/shifts/open/7", "/api/shifts/open/:id", "id", "7")
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Empty(t, rec.Header().Get("X-Cache"))
}

func TestResponseCacheServesHandlerWhenRedisDown(t *testing.T) {
	mw := NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache"}, unreachableRedis())
	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": 1})
	})

	c, rec := cacheContext(http.MethodGet, "/api/shifts/1", "/api/shifts/:id", "id", "1")
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	require.Contains(t, rec.Body.String(), `"id":1`)
}
