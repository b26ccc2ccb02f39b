// Package tracking records a span and metrics for every AccountRight API
// call made through a resource manager.
package tracking

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/gaborage/go-myob/manager"

	// Metric names
	metricCallDuration = "myob.client.request.duration" // Histogram in seconds
	metricCallErrors   = "myob.client.errors"           // Counter by error type

	// Attribute keys
	attrResource    = "myob.resource"
	attrMethod      = "myob.method"
	attrVerb        = "myob.verb"
	attrCompanyFile = "myob.company_file.scoped"
	attrURLTemplate = "url.template"
	attrHTTPMethod  = "http.request.method"
	attrStatusCode  = "http.response.status_code"
	attrErrorType   = "error.type"
)

var (
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	callDuration metric.Float64Histogram
	callErrors   metric.Int64Counter
)

// Call describes one compiled method invocation.
type Call struct {
	Resource    string
	Method      string
	Verb        string
	HTTPMethod  string
	URLTemplate string
	CompanyFile bool
}

func (c Call) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(attrResource, c.Resource),
		attribute.String(attrMethod, c.Method),
		attribute.String(attrVerb, c.Verb),
		attribute.String(attrHTTPMethod, c.HTTPMethod),
		attribute.Bool(attrCompanyFile, c.CompanyFile),
	}
}

// SpanName returns "myob.<Resource>.<method>", or "myob.<method>" for
// managers without a resource prefix.
func (c Call) SpanName() string {
	if c.Resource == "" {
		return "myob." + c.Method
	}
	return "myob." + c.Resource + "." + c.Method
}

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize myob metric %s: %v\n", metricName, err)
	}
}

func initMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	meter := otel.Meter(instrumentationName)

	var err error
	callDuration, err = meter.Float64Histogram(
		metricCallDuration,
		metric.WithDescription("Duration of AccountRight API calls"),
		metric.WithUnit("s"),
	)
	logMetricError(metricCallDuration, err)

	callErrors, err = meter.Int64Counter(
		metricCallErrors,
		metric.WithDescription("Number of failed AccountRight API calls"),
		metric.WithUnit("{error}"),
	)
	logMetricError(metricCallErrors, err)

	metricsInited = true
}

// Start opens the call's span. The returned context carries it.
func Start(ctx context.Context, call Call) (context.Context, trace.Span) {
	meterOnce.Do(initMeter)

	attrs := append(call.attributes(), attribute.String(attrURLTemplate, call.URLTemplate))
	return otel.Tracer(instrumentationName).Start(ctx, call.SpanName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// End records the outcome on span and in the metrics, then ends the span.
// status is 0 when no response was received. errType classifies err and is
// ignored when err is nil.
func End(ctx context.Context, span trace.Span, call Call, start time.Time, status int, err error, errType string) {
	attrs := call.attributes()
	if status > 0 {
		attrs = append(attrs, attribute.Int(attrStatusCode, status))
		span.SetAttributes(attribute.Int(attrStatusCode, status))
	}

	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorType, errType))
		span.SetAttributes(attribute.String(attrErrorType, errType))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if callErrors != nil {
			callErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if callDuration != nil {
		callDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	}
	span.End()
}

// IsInitialized returns true once the call metrics have been created.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting drops the instruments so the next call binds to the
// current global meter provider.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	callDuration = nil
	callErrors = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
