// Package observe provides the OpenTelemetry metric instruments recorded by
// the build pipeline and an optional Prometheus endpoint that exposes them.
//
// Tests should use [NewMetrics] with a ManualReader backed provider. Builds
// without a metrics listener use [NewNopMetrics].
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all voicecorpus metrics.
const meterName = "voicecorpus"

// Metrics holds all OpenTelemetry metric instruments for a build.
type Metrics struct {
	// RecordingsProcessed counts recordings by status ("ok", "decode_failed").
	RecordingsProcessed metric.Int64Counter

	// SegmentsDetected counts voiced intervals found by the segmenter.
	SegmentsDetected metric.Int64Counter

	// ClipDecisions counts per-segment outcomes. Use with attributes:
	//   attribute.String("result", ...), attribute.String("reason", ...)
	ClipDecisions metric.Int64Counter

	// CorpusSeconds accumulates the audio duration of accepted clips.
	CorpusSeconds metric.Float64Counter

	// DecodeDuration tracks per-recording decode and resample time.
	DecodeDuration metric.Float64Histogram

	// TranscriptionDuration tracks per-clip transcription latency. Use with
	// attributes: attribute.String("backend", ...), attribute.String("status", ...)
	TranscriptionDuration metric.Float64Histogram

	// ActiveTranscriptions tracks in-flight transcriber calls.
	ActiveTranscriptions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// decode and transcription calls.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RecordingsProcessed, err = m.Int64Counter("voicecorpus.recordings.processed",
		metric.WithDescription("Source recordings processed by status."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsDetected, err = m.Int64Counter("voicecorpus.segments.detected",
		metric.WithDescription("Voiced intervals found by the segmenter."),
	); err != nil {
		return nil, err
	}
	if met.ClipDecisions, err = m.Int64Counter("voicecorpus.clips.decisions",
		metric.WithDescription("Segment outcomes by result and reason."),
	); err != nil {
		return nil, err
	}
	if met.CorpusSeconds, err = m.Float64Counter("voicecorpus.corpus.seconds",
		metric.WithDescription("Audio duration of accepted clips."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if met.DecodeDuration, err = m.Float64Histogram("voicecorpus.decode.duration",
		metric.WithDescription("Latency of decoding and resampling one recording."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("voicecorpus.transcription.duration",
		metric.WithDescription("Latency of transcribing one clip."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveTranscriptions, err = m.Int64UpDownCounter("voicecorpus.transcription.active",
		metric.WithDescription("Transcriber calls currently in flight."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// NewNopMetrics returns instruments that record nothing.
func NewNopMetrics() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observe: noop metrics: " + err.Error())
	}
	return met
}

// RecordDecision records one segment outcome. Accepted clips also add their
// duration to CorpusSeconds.
func (m *Metrics) RecordDecision(ctx context.Context, result, reason string, seconds float64) {
	m.ClipDecisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
			attribute.String("reason", reason),
		),
	)
	if result == "accepted" {
		m.CorpusSeconds.Add(ctx, seconds)
	}
}

// RecordRecording records one processed recording.
func (m *Metrics) RecordRecording(ctx context.Context, status string, decodeSeconds float64, segments int) {
	m.RecordingsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if decodeSeconds > 0 {
		m.DecodeDuration.Record(ctx, decodeSeconds)
	}
	if segments > 0 {
		m.SegmentsDetected.Add(ctx, int64(segments))
	}
}

// RecordTranscription records one transcriber call.
func (m *Metrics) RecordTranscription(ctx context.Context, backend, status string, seconds float64) {
	m.TranscriptionDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("status", status),
		),
	)
}
