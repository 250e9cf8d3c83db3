package observe

import (
	"context"
	"time"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/provider/analysis"
	"github.com/talentecho/talentecho/pkg/provider/tts"
)

// instrumentedTTS wraps a tts.Provider with latency and request metrics.
type instrumentedTTS struct {
	inner   tts.Provider
	name    string
	metrics *Metrics
}

var _ tts.Provider = (*instrumentedTTS)(nil)

// InstrumentTTS decorates a TTS provider so every Synthesize call records a
// duration sample plus a request counter increment under the given provider
// name. A nil metrics pointer uses [DefaultMetrics].
func InstrumentTTS(inner tts.Provider, name string, m *Metrics) tts.Provider {
	if m == nil {
		m = DefaultMetrics()
	}
	return &instrumentedTTS{inner: inner, name: name, metrics: m}
}

func (p *instrumentedTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	audio, err := p.inner.Synthesize(ctx, text)
	p.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordProviderRequest(ctx, p.name, "tts", "error")
		p.metrics.RecordProviderError(ctx, p.name, "tts")
		return nil, err
	}
	p.metrics.RecordProviderRequest(ctx, p.name, "tts", "ok")
	return audio, nil
}

func (p *instrumentedTTS) SampleRate() int { return p.inner.SampleRate() }

// instrumentedAnalysis wraps an analysis.Provider the same way.
type instrumentedAnalysis struct {
	inner   analysis.Provider
	name    string
	metrics *Metrics
}

var _ analysis.Provider = (*instrumentedAnalysis)(nil)

// InstrumentAnalysis decorates an analysis provider with latency and request
// metrics. A nil metrics pointer uses [DefaultMetrics].
func InstrumentAnalysis(inner analysis.Provider, name string, m *Metrics) analysis.Provider {
	if m == nil {
		m = DefaultMetrics()
	}
	return &instrumentedAnalysis{inner: inner, name: name, metrics: m}
}

func (p *instrumentedAnalysis) AnalyzeAnswer(ctx context.Context, req analysis.AnswerRequest) (*interview.Feedback, error) {
	start := time.Now()
	fb, err := p.inner.AnalyzeAnswer(ctx, req)
	p.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())
	p.record(ctx, "answer", err)
	return fb, err
}

func (p *instrumentedAnalysis) GenerateResumeQuestions(ctx context.Context, req analysis.ResumeRequest) ([]string, error) {
	questions, err := p.inner.GenerateResumeQuestions(ctx, req)
	p.record(ctx, "resume_questions", err)
	return questions, err
}

func (p *instrumentedAnalysis) AnalyzeResume(ctx context.Context, req analysis.ResumeRequest) (*interview.ResumeAnalysis, error) {
	res, err := p.inner.AnalyzeResume(ctx, req)
	p.record(ctx, "resume_analysis", err)
	return res, err
}

func (p *instrumentedAnalysis) record(ctx context.Context, kind string, err error) {
	if err != nil {
		p.metrics.RecordProviderRequest(ctx, p.name, kind, "error")
		p.metrics.RecordProviderError(ctx, p.name, kind)
		return
	}
	p.metrics.RecordProviderRequest(ctx, p.name, kind, "ok")
}
