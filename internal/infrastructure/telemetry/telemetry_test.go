package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mrops-br/products-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOTLP = &config.OTLPConfig{
	ServiceName: "products-api",
	Environment: "test",
	Version:     "1.0.0",
}

func TestLoggerInjectsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, testOTLP)

	tel, err := NewNoOpTelemetry(testOTLP, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	ctx := WithRequestID(WithHTTPRoute(context.Background(), "/api/v1/products/{id}"), "req-1")
	ctx, span := tel.TracerProvider.Tracer("test").Start(ctx, "op")
	logger.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "products-api", rec["service.name"])
	assert.Equal(t, "test", rec["environment"])
	assert.Equal(t, "/api/v1/products/{id}", rec["http.route"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.NotEmpty(t, rec["span_id"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn, testOTLP)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNoOpTelemetryServesMeterThroughRegistry(t *testing.T) {
	ctx := context.Background()
	tel, err := NewNoOpTelemetry(testOTLP, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(ctx) })

	counter, err := tel.MeterProvider.Meter("test").Int64Counter("products.created.total")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	families, err := tel.Registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["products_created_total"], "got %v", names)
	assert.True(t, names["go_goroutines"])
}

func TestNewTelemetryDisabledFallsBackToNoOp(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), testOTLP, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Nil(t, tel.conn)
	require.NoError(t, tel.Shutdown(context.Background()))
}
