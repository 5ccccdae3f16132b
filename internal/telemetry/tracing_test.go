package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogExporterWritesSpans(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewLogExporter(zap.New(core))))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "harvest.period")
	_, child := tracer.Start(ctx, "harvest.task")
	child.SetAttributes(attribute.String("url", "https://conf.example/ndss-paper/x/"))
	child.RecordError(errors.New("boom"))
	child.SetStatus(codes.Error, "boom")
	child.End()
	parent.End()

	entries := logs.FilterMessage("span finished").All()
	require.Len(t, entries, 2)

	task := entries[0].ContextMap()
	assert.Equal(t, "harvest.task", task["span"])
	assert.Equal(t, "https://conf.example/ndss-paper/x/", task["url"])
	assert.Equal(t, "boom", task["error"])
	assert.Equal(t, parent.SpanContext().SpanID().String(), task["parent_id"])

	period := entries[1].ContextMap()
	assert.Equal(t, "harvest.period", period["span"])
	assert.NotContains(t, period, "parent_id")
}

func TestLogExporterStopsAfterShutdown(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	exp := NewLogExporter(zap.New(core))
	require.NoError(t, exp.Shutdown(context.Background()))

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	_, span := tp.Tracer("test").Start(context.Background(), "ignored")
	span.End()
	assert.Zero(t, logs.Len())
}

func TestInitTracerProvider(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tp, err := InitTracerProvider(context.Background(), Config{ServiceName: "harvester-test", SampleRatio: 1}, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "run")
	span.End()
	require.NoError(t, tp.ForceFlush(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("span finished").Len())
}
