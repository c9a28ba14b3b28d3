package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestPrometheusMiddlewareLabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(PrometheusMiddleware("metrics-test"))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	matched := RequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/items/:id", "204")
	unmatched := RequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "unmatched", "404")
	beforeMatched := counterValue(t, matched)
	beforeUnmatched := counterValue(t, unmatched)

	for _, path := range []string{"/items/1", "/items/2", "/missing/3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforeMatched+2, counterValue(t, matched))
	assert.Equal(t, beforeUnmatched+1, counterValue(t, unmatched))
}
