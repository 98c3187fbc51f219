package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

const timingPrecision = time.Microsecond

// TimingProcessor implements sdktrace.SpanProcessor by logging the duration
// of every finished span at debug level.
type TimingProcessor struct {
	logger ports.Logger
}

var _ sdktrace.SpanProcessor = (*TimingProcessor)(nil)

// NewTimingProcessor returns a new TimingProcessor.
func NewTimingProcessor(logger ports.Logger) *TimingProcessor {
	return &TimingProcessor{logger: logger}
}

// OnStart does nothing.
func (p *TimingProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, its duration and whether it failed.
func (p *TimingProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	msg := fmt.Sprintf("%s took %s", s.Name(), s.EndTime().Sub(s.StartTime()).Round(timingPrecision))
	if s.Status().Code == codes.Error {
		msg += " (failed)"
	}
	p.logger.Debug(msg)
}

// Shutdown does nothing.
func (p *TimingProcessor) Shutdown(context.Context) error {
	return nil
}

// ForceFlush does nothing.
func (p *TimingProcessor) ForceFlush(context.Context) error {
	return nil
}

// NewProvider creates an SDK tracer provider that reports span timings to logger.
func NewProvider(logger ports.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewTimingProcessor(logger)))
}
