package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var testCall = Call{
	Resource:    "Contact",
	Method:      "get_customer",
	Verb:        "GET",
	HTTPMethod:  "GET",
	URLTemplate: "https://api.myob.com/accountright/cf/Contact/Customer/[uid]/",
	CompanyFile: true,
}

func setupProviders(t *testing.T) (*sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()
	ResetForTesting()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	prevMP, prevTP := otel.GetMeterProvider(), otel.GetTracerProvider()
	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
		otel.SetMeterProvider(prevMP)
		otel.SetTracerProvider(prevTP)
		ResetForTesting()
	})
	return reader, exporter
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != instrumentationName {
			continue
		}
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpanName(t *testing.T) {
	assert.Equal(t, "myob.Contact.get_customer", testCall.SpanName())
	assert.Equal(t, "myob.info", Call{Method: "info"}.SpanName())
}

func TestSuccessfulCall(t *testing.T) {
	reader, exporter := setupProviders(t)

	ctx, span := Start(context.Background(), testCall)
	End(ctx, span, testCall, time.Now().Add(-20*time.Millisecond), 200, nil, "")

	assert.True(t, IsInitialized())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "myob.Contact.get_customer", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	status, ok := attrValue(spans[0].Attributes, attrStatusCode)
	require.True(t, ok)
	assert.Equal(t, int64(200), status.AsInt64())
	tmpl, ok := attrValue(spans[0].Attributes, attrURLTemplate)
	require.True(t, ok)
	assert.Equal(t, testCall.URLTemplate, tmpl.AsString())

	m, found := findMetric(t, reader, metricCallDuration)
	require.True(t, found)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.GreaterOrEqual(t, hist.DataPoints[0].Sum, 0.02)

	_, found = findMetric(t, reader, metricCallErrors)
	assert.False(t, found, "no error recorded")
}

func TestFailedCall(t *testing.T) {
	reader, exporter := setupProviders(t)

	ctx, span := Start(context.Background(), testCall)
	End(ctx, span, testCall, time.Now(), 404, errors.New("not found"), "NotFound")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)

	m, found := findMetric(t, reader, metricCallErrors)
	require.True(t, found)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	errType, ok := sum.DataPoints[0].Attributes.Value(attribute.Key(attrErrorType))
	require.True(t, ok)
	assert.Equal(t, "NotFound", errType.AsString())
}

func TestTransportFailureHasNoStatus(t *testing.T) {
	_, exporter := setupProviders(t)

	ctx, span := Start(context.Background(), testCall)
	End(ctx, span, testCall, time.Now(), 0, errors.New("dial tcp"), "network")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	_, ok := attrValue(spans[0].Attributes, attrStatusCode)
	assert.False(t, ok)
}
