package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRequestTimeout_DisabledForNonPositive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, d := range []time.Duration{0, -time.Second} {
		r := gin.New()
		r.Use(RequestTimeout(d))
		var hasDeadline bool
		r.GET("/test", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.String(http.StatusOK, "ok")
		})

		w := serve(r, http.MethodGet, "/test")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, hasDeadline, "duration %s", d)
	}
}

func TestRequestTimeout_ContextHasDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTimeout(5 * time.Second))
	var hasDeadline bool
	r.GET("/test", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.String(http.StatusOK, "ok")
	})

	w := serve(r, http.MethodGet, "/test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hasDeadline)
}

func TestRequestTimeout_TimeoutTriggered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTimeout(50 * time.Millisecond))
	r.GET("/test", func(c *gin.Context) {
		select {
		case <-time.After(200 * time.Millisecond):
			c.String(http.StatusOK, "ok")
		case <-c.Request.Context().Done():
		}
	})

	w := serve(r, http.MethodGet, "/test")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestRequestTimeout_HandlerWritesBeforeTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTimeout(50 * time.Millisecond))
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
		time.Sleep(100 * time.Millisecond)
	})

	w := serve(r, http.MethodGet, "/test")
	assert.Equal(t, http.StatusOK, w.Code)
}
