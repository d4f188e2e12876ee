package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
	RecordLookup(0, false, 3*time.Millisecond)
	RecordAssemble("wander", true)

	before := testutil.ToFloat64(codecOps.WithLabelValues("decode", "unknown", "false"))
	RecordCodec("decode", "", false)
	require.Equal(t, before+1, testutil.ToFloat64(codecOps.WithLabelValues("decode", "unknown", "false")))

	// Registered collectors must refuse a second registration.
	err := prometheus.Register(codecOps)
	var already prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &already)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger(logger), RequestMetricsMiddleware())
	r.GET("/anchors/:txid", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	label := httpRequests.WithLabelValues("GET", "/anchors/:txid", "418")
	before := testutil.ToFloat64(label)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anchors/abcd", nil))
	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, before+1, testutil.ToFloat64(label))
	require.Contains(t, buf.String(), `"route":"/anchors/:txid"`)
	require.Contains(t, buf.String(), `"txid":"abcd"`)
	require.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRequestLoggerCarriesEventAndHashdragon(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.POST("/events/encode", func(c *gin.Context) {
		SetEvent(c, "hatch")
		c.Status(http.StatusOK)
	})
	r.GET("/traits/:hashdragon", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/events/encode", nil))
	require.Contains(t, buf.String(), `"event":"hatch"`)
	require.Contains(t, buf.String(), `"level":"info"`)
	require.NotContains(t, buf.String(), `"txid"`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/traits/d4ff", nil))
	require.Contains(t, buf.String(), `"hashdragon":"d4ff"`)
	require.NotContains(t, buf.String(), `"event"`)
}
