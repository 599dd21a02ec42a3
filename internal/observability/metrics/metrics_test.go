package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("outcome", "success"),
		attribute.String("reference", "ref_123"),
		attribute.String("event_type", "charge.success"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "outcome" && attrs[1].Key != "outcome" {
		t.Fatalf("expected outcome to be retained")
	}
	if attrs[0].Key != "event_type" && attrs[1].Key != "event_type" {
		t.Fatalf("expected event_type to be retained")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordReconcile(context.Background(), "success")
	m.RecordWebhookEvent(context.Background(), "charge.success", "recorded", "")
	m.RecordGatewayCall(context.Background(), "verify", 0)
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordGatewayCall(context.Background(), "verify", http.StatusOK)
}

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWithRegistry(reg, Config{ServiceName: "payrelay", Environment: "test"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/paystack/verify/:reference", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/paystack/verify/ref_"+string(rune('a'+i)), nil))
	}

	count := testutil.ToFloat64(m.requests.WithLabelValues("/paystack/verify/:reference", http.MethodGet, "200"))
	assert.Equal(t, float64(2), count)
}

func TestRegisterProcessedReferences(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWithRegistry(reg, Config{})
	require.NoError(t, err)

	n := 3
	require.NoError(t, m.RegisterProcessedReferences(func() int { return n }))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, family := range families {
		if family.GetName() == "payrelay_processed_references" {
			found = true
			assert.Equal(t, float64(3), family.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}
