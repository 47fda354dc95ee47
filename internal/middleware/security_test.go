package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	middleware := SecurityHeaders()

	handler := middleware(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/expenses/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	headers := rec.Header()
	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", headers.Get("X-XSS-Protection"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", headers.Get("Strict-Transport-Security"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", headers.Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(), microphone=(), camera=()", headers.Get("Permissions-Policy"))
	assert.Equal(t, "no-store", headers.Get("Cache-Control"))
}

func TestSecurityHeadersNextHandlerCalled(t *testing.T) {
	e := echo.New()
	middleware := SecurityHeaders()

	nextCalled := false
	handler := middleware(func(c echo.Context) error {
		nextCalled = true
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	assert.NoError(t, err)
	assert.True(t, nextCalled, "Next handler should be called")
}

func TestSecurityHeadersOnErrorResponses(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = CustomHTTPErrorHandler
	e.Use(SecurityHeaders())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSecurityHeadersOnIdempotentReplay(t *testing.T) {
	e := echo.New()

	handler := SecurityHeaders()(func(c echo.Context) error {
		c.Response().Header().Set("X-Idempotency", "True")
		return c.JSON(http.StatusOK, map[string]interface{}{"id": 1, "amount": "150.50"})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/expenses/", nil)
	req.Header.Set("Idempotency-Key", "k1")
	rec := httptest.NewRecorder()

	assert.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "True", rec.Header().Get("X-Idempotency"))
	// a replayed create must not be answered from an intermediary cache
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
}
