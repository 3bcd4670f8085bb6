package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Default tracer name for engine spans.
const tracerName = "vtree"

func (e *Engine) startSpan(ctx context.Context, op Op) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, fmt.Sprintf("vtree.%s", op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("vtree.op", string(op))),
	)
}

func endSpan(span trace.Span, c Cycle) {
	span.SetAttributes(
		attribute.Int64("vtree.seq", int64(c.Seq)),
		attribute.Int("vtree.patch_count", vdom.Count(c.Patches)),
	)
	for kind, n := range vdom.Kinds(c.Patches) {
		span.SetAttributes(attribute.Int("vtree.patches."+kind.String(), n))
	}
	if c.Err != nil {
		recordError(span, c.Err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
