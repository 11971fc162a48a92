package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.LoginAttempt("local", true)
	m.LoginAttempt("local", false)
	m.LoginAttempt("local", false)
	m.Logout()
	m.TombstoneHit()
	m.LikeToggled("liked")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("local", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("local", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tombstoneHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.likeToggles.WithLabelValues("liked")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LoginAttempt("google", true)
		m.Logout()
		m.TombstoneHit()
		m.LikeToggled("unliked")
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/1", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `mconnect_http_requests_total{method="GET",route="/posts/:id",status="200"} 1`))
}
