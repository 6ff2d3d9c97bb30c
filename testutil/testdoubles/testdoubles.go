// Package testdoubles provides spy implementations of the loan store
// observability interfaces for asserting instrumentation in tests.
package testdoubles

import (
	"context"
	"sync"
	"time"

	"github.com/biblioline/lending-ledger-go/ledger"
)

// LogRecord is one recorded logging call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
}

// LoggerSpy implements ledger.Logger and captures every call.
type LoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record("debug", msg, args) }
func (s *LoggerSpy) Info(msg string, args ...any)  { s.record("info", msg, args) }
func (s *LoggerSpy) Warn(msg string, args ...any)  { s.record("warn", msg, args) }
func (s *LoggerSpy) Error(msg string, args ...any) { s.record("error", msg, args) }

func (s *LoggerSpy) record(level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: args})
}

// Records returns a copy of all recorded log calls.
func (s *LoggerSpy) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]LogRecord(nil), s.records...)
}

// HasLog reports whether a log call with the given level and message was recorded.
func (s *LoggerSpy) HasLog(level string, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}

var _ ledger.Logger = (*LoggerSpy)(nil)

// ContextualLoggerSpy implements ledger.ContextualLogger and captures every call.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(_ context.Context, msg string, args ...any) {
	s.record("debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(_ context.Context, msg string, args ...any) {
	s.record("info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(_ context.Context, msg string, args ...any) {
	s.record("warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(_ context.Context, msg string, args ...any) {
	s.record("error", msg, args)
}

func (s *ContextualLoggerSpy) record(level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: args})
}

// HasLog reports whether a log call with the given level and message was recorded.
func (s *ContextualLoggerSpy) HasLog(level string, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}

var _ ledger.ContextualLogger = (*ContextualLoggerSpy)(nil)

// MetricsCollectorSpy implements ledger.MetricsCollector and
// ledger.ContextualMetricsCollector, counting calls per metric name.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations map[string][]time.Duration
	counters  map[string]int
	values    map[string][]float64
	labels    map[string][]map[string]string
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{
		durations: make(map[string][]time.Duration),
		counters:  make(map[string]int),
		values:    make(map[string][]float64),
		labels:    make(map[string][]map[string]string),
	}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations[metric] = append(s.durations[metric], duration)
	s.labels[metric] = append(s.labels[metric], labels)
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[metric]++
	s.labels[metric] = append(s.labels[metric], labels)
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[metric] = append(s.values[metric], value)
	s.labels[metric] = append(s.labels[metric], labels)
}

func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.RecordDuration(metric, duration, labels)
}

func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.IncrementCounter(metric, labels)
}

func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.RecordValue(metric, value, labels)
}

// CounterValue returns how often the counter was incremented.
func (s *MetricsCollectorSpy) CounterValue(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[metric]
}

// DurationCount returns how many duration samples the metric received.
func (s *MetricsCollectorSpy) DurationCount(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.durations[metric])
}

// LastLabels returns the labels of the most recent call for the metric.
func (s *MetricsCollectorSpy) LastLabels(metric string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := s.labels[metric]
	if len(recorded) == 0 {
		return nil
	}

	return recorded[len(recorded)-1]
}

var _ ledger.MetricsCollector = (*MetricsCollectorSpy)(nil)

var _ ledger.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)

// SpanRecord is one finished span with its final status and attributes.
type SpanRecord struct {
	Name       string
	Status     string
	Attributes map[string]string
}

// TracingCollectorSpy implements ledger.TracingCollector and records
// every finished span.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []SpanRecord
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, ledger.SpanContext) {
	span := &spanContextSpy{name: name, attributes: make(map[string]string, len(attrs))}
	for key, value := range attrs {
		span.attributes[key] = value
	}

	return ctx, span
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx ledger.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*spanContextSpy)
	if !ok {
		return
	}

	for key, value := range attrs {
		span.attributes[key] = value
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, SpanRecord{
		Name:       span.name,
		Status:     status,
		Attributes: span.attributes,
	})
}

// FinishedSpans returns a copy of all finished spans.
func (s *TracingCollectorSpy) FinishedSpans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpanRecord(nil), s.spans...)
}

var _ ledger.TracingCollector = (*TracingCollectorSpy)(nil)

type spanContextSpy struct {
	name       string
	status     string
	attributes map[string]string
}

func (s *spanContextSpy) SetStatus(status string) {
	s.status = status
}

func (s *spanContextSpy) AddAttribute(key, value string) {
	s.attributes[key] = value
}

var _ ledger.SpanContext = (*spanContextSpy)(nil)
