// Package tracing records phase runs as OpenTelemetry spans.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/viant/phaser/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/viant/phaser"

// Span attribute keys.
const (
	AttrBatchID     = "batch.id"
	AttrFlowID      = "flow.id"
	AttrExecutionID = "execution.id"
	AttrPhase       = "phase"
	AttrJob         = "job"
	AttrJobs        = "jobs"
	AttrError       = "error"
)

// Tracer starts phase spans on its own tracer provider.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	output   io.Closer
}

// New creates a tracer exporting spans synchronously through exporter.
func New(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (*Tracer, error) {
	if exporter == nil {
		return nil, fmt.Errorf("span exporter is required")
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter), sdktrace.WithResource(res))
	return &Tracer{provider: provider, tracer: provider.Tracer(instrumentation)}, nil
}

// NewFile creates a tracer writing JSON spans to outputFile, or to stdout
// when outputFile is empty.
func NewFile(serviceName, serviceVersion, outputFile string) (*Tracer, error) {
	var w io.Writer = os.Stdout
	var output io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		w, output = f, f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err == nil {
		var ret *Tracer
		if ret, err = New(serviceName, serviceVersion, exporter); err == nil {
			ret.output = output
			return ret, nil
		}
	}
	if output != nil {
		_ = output.Close()
	}
	return nil, err
}

// StartPhase starts the span of a phase run.
func (t *Tracer) StartPhase(ctx context.Context, ectx *model.Context) (context.Context, *Span) {
	ctx, span := t.tracer.Start(ctx, "phase."+ectx.Phase().Symbol(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrBatchID, ectx.BatchID()),
			attribute.String(AttrFlowID, ectx.FlowID()),
			attribute.String(AttrExecutionID, ectx.ExecutionID()),
			attribute.String(AttrPhase, ectx.Phase().Symbol()),
		))
	return ctx, &Span{span: span}
}

// Shutdown flushes pending spans and closes the trace file.
func (t *Tracer) Shutdown(ctx context.Context) error {
	err := t.provider.Shutdown(ctx)
	if t.output != nil {
		err = errors.Join(err, t.output.Close())
	}
	return err
}

// Span is a phase span; a nil Span ignores every call.
type Span struct {
	span trace.Span
}

// Opened records the number of jobs of the phase.
func (s *Span) Opened(jobs int) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.Int(AttrJobs, jobs))
}

// Event records a job event; a non-nil err is attached as an attribute.
func (s *Span) Event(name, job string, err error) {
	if s == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrJob, job)}
	if err != nil {
		attrs = append(attrs, attribute.String(AttrError, err.Error()))
	}
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// End ends the span with an error status when err is non-nil.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
