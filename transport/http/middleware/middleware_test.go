package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kochabx/stepviz/log"
)

func newEngine(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := log.NewWriter(buf)
	r := gin.New()
	r.Use(Recovery(RecoveryConfig{Logger: logger}))
	r.Use(GinLoggerWithConfig(LoggerConfig{SkipPaths: []string{"/health"}, Logger: logger}))
	r.Use(Cors("http://localhost:5173"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/curves", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestLoggerSkipsPaths(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, buf.Len())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/curves", nil))
	assert.Contains(t, buf.String(), "/v1/curves")
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestCors(t *testing.T) {
	r := newEngine(&bytes.Buffer{})

	tests := []struct {
		origin string
		method string
		allow  string
		code   int
	}{
		{"http://localhost:5173", http.MethodGet, "http://localhost:5173", http.StatusOK},
		{"http://evil.example", http.MethodGet, "", http.StatusOK},
		{"http://localhost:5173", http.MethodOptions, "http://localhost:5173", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/v1/curves", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.code, w.Code)
		assert.Equal(t, tt.allow, w.Header().Get("Access-Control-Allow-Origin"))
	}
}
