// internal/middleware/middleware_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"label-service/internal/utils"
)

func TestRequestIDMiddlewareGeneratesAndEchoes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestIDMiddleware())
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	engine.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID header")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	engine.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("expected the incoming request ID to be kept, got %q", got)
	}
}

func TestLoggingMiddlewareRecordsPrinterContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	logger := utils.NewServiceLogger(zap.New(core), "http-server")

	engine := gin.New()
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggingMiddleware(logger))
	engine.POST("/printers/:id/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/printers/abc123/test", nil)
	req.Header.Set("X-Request-ID", "req-7")
	engine.ServeHTTP(w, req)

	entries := logs.FilterMessage("API request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["printer_id"] != "abc123" {
		t.Errorf("expected printer_id abc123, got %v", fields["printer_id"])
	}
	if fields["request_id"] != "req-7" {
		t.Errorf("expected request_id req-7, got %v", fields["request_id"])
	}
	if fields["status_code"] != int64(http.StatusOK) {
		t.Errorf("expected status_code 200, got %v", fields["status_code"])
	}
}
