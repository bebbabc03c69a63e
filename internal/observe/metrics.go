// Package observe provides application-wide observability primitives for
// cutmark: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and surface on
// /metrics through the Prometheus reader that [InitProvider] installs. Most
// call sites go through the shared [DefaultMetrics] instance; tests build
// their own via [NewMetrics] so readers do not leak across tests.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles every instrument cutmark records. The OTel instruments are
// individually safe for concurrent use, so the struct needs no locking.
type Metrics struct {
	// Latency histograms, one per analysis stage.
	CompareDuration metric.Float64Histogram
	RepeatsDuration metric.Float64Histogram
	IngestDuration  metric.Float64Histogram

	// AnalyzedWords counts transcript words fed through an analysis pass,
	// labelled by mode.
	AnalyzedWords metric.Int64Counter

	// WordMarks counts annotations written by the analysis passes, labelled
	// by mode and status.
	WordMarks metric.Int64Counter

	// MissingWords counts script words that never appeared in a recording.
	MissingWords metric.Int64Counter

	// IngestedRecords counts records emitted by the ingest builder, labelled
	// by record type.
	IngestedRecords metric.Int64Counter

	// Jobs counts finished analysis jobs, labelled by terminal state.
	Jobs metric.Int64Counter

	// ActiveJobs tracks the number of currently running analysis jobs.
	ActiveJobs metric.Int64UpDownCounter

	// HTTPRequestDuration tracks request processing time, labelled by method
	// and path. Recorded by [Middleware].
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// analysis runs, from a short take to a feature-length recording.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// instrumentSet creates instruments against a single meter and latches the
// first creation error, so NewMetrics can stay a flat literal.
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) keep(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

func (s *instrumentSet) latency(name, desc string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	s.keep(err)
	return h
}

func (s *instrumentSet) histogram(name, desc string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
	)
	s.keep(err)
	return h
}

func (s *instrumentSet) counter(name, desc string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(desc))
	s.keep(err)
	return c
}

func (s *instrumentSet) upDown(name, desc string) metric.Int64UpDownCounter {
	c, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	s.keep(err)
	return c
}

// NewMetrics creates every cutmark instrument on the given provider. The
// first instrument that fails to build aborts the whole set.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	set := instrumentSet{meter: mp.Meter(scopeName)}

	m := &Metrics{
		CompareDuration: set.latency("cutmark.compare.duration",
			"Latency of script-to-transcript comparison runs."),
		RepeatsDuration: set.latency("cutmark.repeats.duration",
			"Latency of scriptless repeat detection runs."),
		IngestDuration: set.latency("cutmark.ingest.duration",
			"Latency of word stream assembly."),

		AnalyzedWords: set.counter("cutmark.analysis.words",
			"Total transcript words fed through analysis, by mode."),
		WordMarks: set.counter("cutmark.analysis.marks",
			"Total word annotations written, by mode and status."),
		MissingWords: set.counter("cutmark.compare.missing_words",
			"Total script words reported missing from recordings."),
		IngestedRecords: set.counter("cutmark.ingest.records",
			"Total records emitted by the ingest builder, by type."),
		Jobs: set.counter("cutmark.jobs",
			"Total finished analysis jobs, by state."),

		ActiveJobs: set.upDown("cutmark.active_jobs",
			"Number of currently running analysis jobs."),

		HTTPRequestDuration: set.histogram("cutmark.http.request.duration",
			"HTTP request latency by method and path."),
	}
	if set.err != nil {
		return nil, set.err
	}
	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the shared [Metrics] instance, built on first use
// from the global meter provider. Instrument creation against the global
// provider cannot fail in practice, so a failure here panics.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr shortens [attribute.String] at recording call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAnalyzedWords records how many transcript words an analysis pass
// examined.
func (m *Metrics) RecordAnalyzedWords(ctx context.Context, mode string, n int64) {
	m.AnalyzedWords.Add(ctx, n,
		metric.WithAttributes(attribute.String("mode", mode)),
	)
}

// RecordMarks records n annotations of the given status written by an
// analysis pass.
func (m *Metrics) RecordMarks(ctx context.Context, mode, status string, n int64) {
	m.WordMarks.Add(ctx, n,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("status", status),
		),
	)
}

// RecordMissingWords records n script words reported missing by a
// comparison run.
func (m *Metrics) RecordMissingWords(ctx context.Context, n int64) {
	m.MissingWords.Add(ctx, n)
}

// RecordIngestedRecords records n records of the given type emitted by the
// ingest builder.
func (m *Metrics) RecordIngestedRecords(ctx context.Context, recordType string, n int64) {
	m.IngestedRecords.Add(ctx, n,
		metric.WithAttributes(attribute.String("type", recordType)),
	)
}

// RecordJob records one finished analysis job in the given terminal state.
func (m *Metrics) RecordJob(ctx context.Context, state string) {
	m.Jobs.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", state)),
	)
}
