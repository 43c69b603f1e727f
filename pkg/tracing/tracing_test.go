package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(tp))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/quiz-maps/:mapId/result", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/quiz-maps/:mapId/submit", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	return r, rec
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestGinMiddlewareRecordsRouteAndStatus(t *testing.T) {
	r, rec := newTracedRouter(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quiz-maps/7/result", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /quiz-maps/:mapId/result", spans[0].Name())
	a := attrs(spans[0])
	assert.Equal(t, int64(http.StatusOK), a["http.status_code"].AsInt64())
	assert.Equal(t, "/quiz-maps/:mapId/result", a["http.route"].AsString())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestGinMiddlewareMarksServerErrors(t *testing.T) {
	r, rec := newTracedRouter(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/quiz-maps/7/submit", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, int64(http.StatusServiceUnavailable), attrs(spans[0])["http.status_code"].AsInt64())
}

func TestGinMiddlewareSkipsHealth(t *testing.T) {
	r, rec := newTracedRouter(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rec.Ended())
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "root:AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "root:AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "root:TraceIDRatioBased{0.25}")
}
