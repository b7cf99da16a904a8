package apm

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fd1az/defi-trader/internal/logger"
)

func TestNewTraceProvider(t *testing.T) {
	ctx := context.Background()
	log := logger.NewDiscard()

	p, err := NewTraceProvider(ctx, log, Config{Exporter: ExporterNone})
	if err != nil {
		t.Fatalf("NewTraceProvider(none) error = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	if _, err := NewTraceProvider(ctx, log, Config{Exporter: "jaeger"}); err == nil {
		t.Errorf("expected error for unknown exporter")
	}
}

func TestFinish(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	_, ok := tracer.Start(context.Background(), "ok")
	Finish(ok, nil)
	_, failed := tracer.Start(context.Background(), "failed")
	Finish(failed, errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("ok span status = %v", spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error || len(spans[1].Events()) == 0 {
		t.Errorf("failed span status = %v, events = %d", spans[1].Status(), len(spans[1].Events()))
	}
}
