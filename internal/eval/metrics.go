package eval

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// instruments holds the evaluation metrics.
type instruments struct {
	evaluations metric.Int64Counter
	duration    metric.Float64Histogram
	frameBytes  metric.Int64Histogram
}

func newInstruments(m metric.Meter) instruments {
	fallback := noop.NewMeterProvider().Meter(tracerName)

	evaluations, err := m.Int64Counter("weldgraph.evaluations",
		metric.WithDescription("Evaluations by outcome"))
	if err != nil {
		evaluations, _ = fallback.Int64Counter("weldgraph.evaluations")
	}
	duration, err := m.Float64Histogram("weldgraph.evaluation.duration",
		metric.WithDescription("Time spent per evaluation stage"),
		metric.WithUnit("s"))
	if err != nil {
		duration, _ = fallback.Float64Histogram("weldgraph.evaluation.duration")
	}
	frameBytes, err := m.Int64Histogram("weldgraph.frame.size",
		metric.WithDescription("Encoded call frame size"),
		metric.WithUnit("By"))
	if err != nil {
		frameBytes, _ = fallback.Int64Histogram("weldgraph.frame.size")
	}
	return instruments{evaluations: evaluations, duration: duration, frameBytes: frameBytes}
}

func (in instruments) observe(ctx context.Context, status Status, frame int, t Timings) {
	in.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	in.frameBytes.Record(ctx, int64(frame))
	for stage, d := range map[string]time.Duration{
		"encode":  t.Encode,
		"compile": t.Compile,
		"run":     t.Run,
		"decode":  t.Decode,
	} {
		in.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
	}
}
