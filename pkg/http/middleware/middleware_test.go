package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applogger "StockSignal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(t *testing.T, buf *bytes.Buffer) *applogger.Logger {
	t.Helper()
	return applogger.NewWithWriter(buf, "debug")
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(Recover(newLogger(t, &buf)))
	e.GET("/boom", func(c echo.Context) error { panic("kaboom") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "goroutine")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestID(), RequestLogging(newLogger(t, &buf)))
	e.GET("/predict/:symbol", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/predict/AAPL", nil))
	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), `"route":"/predict/:symbol"`)
	assert.Contains(t, buf.String(), id)

	req := httptest.NewRequest(http.MethodGet, "/predict/AAPL", nil)
	req.Header.Set(echo.HeaderXRequestID, "given")
	rec = serve(e, req)
	assert.Equal(t, "given", rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestLogging_RecordsErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogging(newLogger(t, &buf)))
	e.GET("/x", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "tea") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"status":418`)
}

func TestCORS_Preflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS(DefaultCORSConfig()))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := serve(e, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
}

func TestCORS_RestrictedOrigin(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{AllowOrigins: []string{"https://app.example"}}))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	e := echo.New()
	e.Use(Metrics(m, nil, time.Second))
	e.GET("/history/:symbol", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	serve(e, httptest.NewRequest(http.MethodGet, "/history/AAPL", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/history/MSFT", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/history/:symbol", http.MethodGet, "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("/history/:symbol", http.MethodGet)))
}

type countingAllower struct{ left int }

func (a *countingAllower) Allow(string) bool {
	if a.left == 0 {
		return false
	}
	a.left--
	return true
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(&countingAllower{left: 1}))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	require.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(echo.HeaderRetryAfter))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(422))
	assert.Equal(t, "5xx", statusClass(502))
}
