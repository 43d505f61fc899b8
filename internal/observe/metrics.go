// Package observe holds the OpenTelemetry instruments recorded by the
// pipeline. Tests should build their own Metrics with NewMetrics and a
// ManualReader-backed MeterProvider instead of using DefaultMetrics.
package observe

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/user/lingualearn"

// Metrics holds every instrument the pipeline records to. Safe for
// concurrent use.
type Metrics struct {
	// StageDuration tracks wall time per pipeline stage. Attribute: stage.
	StageDuration metric.Float64Histogram

	// PipelineRuns counts finished runs. Attributes: media_type, status.
	PipelineRuns metric.Int64Counter

	// ChunkTranscriptions counts engine calls per chunk. Attributes:
	// engine, status (ok|error|timeout|skipped).
	ChunkTranscriptions metric.Int64Counter

	// ChunkDuration tracks engine latency per chunk. Attribute: engine.
	ChunkDuration metric.Float64Histogram
}

// stageBuckets are in seconds; transcription of long media dominates the
// upper end.
var stageBuckets = []float64{
	0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("lingualearn.pipeline.stage.duration",
		metric.WithDescription("Duration of a pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineRuns, err = m.Int64Counter("lingualearn.pipeline.runs",
		metric.WithDescription("Completed pipeline runs by media type and status."),
	); err != nil {
		return nil, err
	}
	if met.ChunkTranscriptions, err = m.Int64Counter("lingualearn.stt.chunks",
		metric.WithDescription("Audio chunks handled by the transcription orchestrator."),
	); err != nil {
		return nil, err
	}
	if met.ChunkDuration, err = m.Float64Histogram("lingualearn.stt.chunk.duration",
		metric.WithDescription("Latency of one transcription engine call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns a Metrics bound to the global MeterProvider. If
// instrument creation fails it falls back to a no-op provider.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			log.Warn().Err(err).Msg("Falling back to no-op metrics")
			m, _ = NewMetrics(noop.NewMeterProvider())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) RecordRun(ctx context.Context, mediaType, status string) {
	m.PipelineRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("media_type", mediaType),
			attribute.String("status", status),
		))
}

func (m *Metrics) RecordChunk(ctx context.Context, engine, status string, d time.Duration) {
	m.ChunkTranscriptions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("status", status),
		))
	if status != "skipped" {
		m.ChunkDuration.Record(ctx, d.Seconds(),
			metric.WithAttributes(attribute.String("engine", engine)))
	}
}
