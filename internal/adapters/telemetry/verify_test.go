package telemetry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = telemetry.NoOpSpan{}
}

func TestOTelTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := telemetry.NewOTelTracerWithProvider(provider, "test")

	ctx, parent := tracer.Start(context.Background(), "kiln.build")
	parent.SetAttribute("module", "answer")
	parent.SetAttribute("object", false)
	parent.SetAttribute("sources", []string{"a.cpp", "b.cpp"})

	_, child := tracer.Start(ctx, "kiln.compile")
	child.RecordError(errors.New("boom"))
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "kiln.compile", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Contains(t, spans[1].Attributes(), attribute.String("module", "answer"))
	assert.Contains(t, spans[1].Attributes(), attribute.Bool("object", false))
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "test-span")
	assert.Equal(t, ctx, got)
	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}

func TestTimingProcessor_LogsFinishedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	var lines []string
	log.EXPECT().Debug(gomock.Any()).Do(func(msg string) { lines = append(lines, msg) }).Times(2)

	tracer := telemetry.NewOTelTracerWithProvider(telemetry.NewProvider(log), telemetry.InstrumentationName)
	_, ok := tracer.Start(context.Background(), "kiln.lookup")
	ok.End()
	_, failed := tracer.Start(context.Background(), "kiln.compile")
	failed.RecordError(errors.New("exit status 1"))
	failed.End()

	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "kiln.lookup took "))
	assert.True(t, strings.HasSuffix(lines[1], "(failed)"))
}
