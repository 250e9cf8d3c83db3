package observe

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	ttsmock "github.com/talentecho/talentecho/pkg/provider/tts/mock"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.TTSDuration.Record(ctx, 0.123)
	m.TTSDuration.Record(ctx, 0.456)
	m.AnalysisDuration.Record(ctx, 2.5)
	m.RecordPhase(ctx, "listening", 4.2)

	rm := collect(t, reader)

	met := findMetric(rm, "talentecho.tts.duration")
	if met == nil {
		t.Fatal("tts duration metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("tts duration is not a histogram")
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}

	if findMetric(rm, "talentecho.analysis.duration") == nil {
		t.Error("analysis duration metric not found")
	}
	if findMetric(rm, "talentecho.session.phase.duration") == nil {
		t.Error("phase duration metric not found")
	}
}

func TestCacheLookupCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)

	rm := collect(t, reader)
	met := findMetric(rm, "talentecho.speech.cache.lookups")
	if met == nil {
		t.Fatal("cache lookup metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("cache lookups is not a sum")
	}
	// One data point per result attribute.
	if len(sum.DataPoints) != 2 {
		t.Fatalf("expected 2 attribute sets, got %d", len(sum.DataPoints))
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("total lookups = %d, want 3", total)
	}
}

func TestActiveSessionsUpDown(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "talentecho.active_sessions")
	if met == nil {
		t.Fatal("active sessions metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("active sessions is not a sum")
	}
	if got := sum.DataPoints[0].Value; got != 1 {
		t.Errorf("active sessions = %d, want 1", got)
	}
}

func TestInstrumentTTS(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	inner := &ttsmock.Provider{SynthesizeResult: []byte{1, 2}}
	p := InstrumentTTS(inner, "gemini", m)

	if _, err := p.Synthesize(ctx, "hello"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	inner.SynthesizeErr = errors.New("boom")
	inner.SynthesizeResult = nil
	if _, err := p.Synthesize(ctx, "hello again"); err == nil {
		t.Fatal("expected error to pass through")
	}
	if p.SampleRate() != inner.SampleRate() {
		t.Error("sample rate not forwarded")
	}

	rm := collect(t, reader)
	met := findMetric(rm, "talentecho.tts.duration")
	if met == nil {
		t.Fatal("duration metric not recorded")
	}
	hist := met.Data.(metricdata.Histogram[float64])
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("duration sample count = %d, want 2", got)
	}

	reqs := findMetric(rm, "talentecho.provider.requests")
	if reqs == nil {
		t.Fatal("request counter not recorded")
	}
	errsMet := findMetric(rm, "talentecho.provider.errors")
	if errsMet == nil {
		t.Fatal("error counter not recorded")
	}
	errSum := errsMet.Data.(metricdata.Sum[int64])
	if got := errSum.DataPoints[0].Value; got != 1 {
		t.Errorf("error count = %d, want 1", got)
	}
}
