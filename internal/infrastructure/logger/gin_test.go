package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func observedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	return router, logs
}

func TestGinMiddleware_AccessLogSeverityBands(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{name: "success logs info", status: http.StatusOK, wantLevel: zapcore.InfoLevel, wantMsg: "Request served"},
		{name: "client error logs warn", status: http.StatusBadRequest, wantLevel: zapcore.WarnLevel, wantMsg: "Request rejected"},
		{name: "server error logs error", status: http.StatusBadGateway, wantLevel: zapcore.ErrorLevel, wantMsg: "Request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, logs := observedRouter(zapcore.DebugLevel)
			router.GET("/probe", func(c *gin.Context) {
				c.Status(tt.status)
			})

			req := httptest.NewRequest("GET", "/probe", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, "/probe", fields["path"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Contains(t, fields, "latency")
			assert.Contains(t, fields, "client_ip")
		})
	}
}

func TestGinMiddleware_CarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-123")
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/probe", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", logs.All()[0].ContextMap()["request_id"])
}

func TestGetGinLogger_InsideMiddleware(t *testing.T) {
	router, logs := observedRouter(zapcore.DebugLevel)
	router.GET("/probe", func(c *gin.Context) {
		GetGinLogger(c).Info("from handler")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 2, logs.Len())
	handlerEntry := logs.All()[0]
	assert.Equal(t, "from handler", handlerEntry.Message)
	// The handler's line inherits the request-scoped fields
	assert.Equal(t, "/probe", handlerEntry.ContextMap()["path"])
}

func TestGetGinLogger_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	log := GetGinLogger(c)
	require.NotNil(t, log)
	// A no-op logger: logging must not panic
	log.Info("ignored")
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "Panic recovered", entry.Message)
	assert.Equal(t, "boom", entry.ContextMap()["panic"])
}
