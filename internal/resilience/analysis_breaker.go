package resilience

import (
	"context"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/provider/analysis"
)

// AnalysisBreaker wraps an [analysis.Provider] with a shared
// [CircuitBreaker]: answer analysis and resume operations hit the same
// backend, so one tripping the breaker spares the others the timeout too.
// While open, calls fail fast with [ErrCircuitOpen]; the gateway turns that
// into neutral feedback and the resume endpoints report the backend as
// unavailable.
type AnalysisBreaker struct {
	inner   analysis.Provider
	breaker *CircuitBreaker
}

var _ analysis.Provider = (*AnalysisBreaker)(nil)

// NewAnalysisBreaker wraps provider with a breaker named after it.
func NewAnalysisBreaker(provider analysis.Provider, name string, cfg CircuitBreakerConfig) *AnalysisBreaker {
	if cfg.Name == "" {
		cfg.Name = "analysis/" + name
	}
	return &AnalysisBreaker{
		inner:   provider,
		breaker: NewCircuitBreaker(cfg),
	}
}

func (b *AnalysisBreaker) AnalyzeAnswer(ctx context.Context, req analysis.AnswerRequest) (*interview.Feedback, error) {
	var fb *interview.Feedback
	err := b.breaker.Execute(func() error {
		var err error
		fb, err = b.inner.AnalyzeAnswer(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (b *AnalysisBreaker) GenerateResumeQuestions(ctx context.Context, req analysis.ResumeRequest) ([]string, error) {
	var questions []string
	err := b.breaker.Execute(func() error {
		var err error
		questions, err = b.inner.GenerateResumeQuestions(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (b *AnalysisBreaker) AnalyzeResume(ctx context.Context, req analysis.ResumeRequest) (*interview.ResumeAnalysis, error) {
	var result *interview.ResumeAnalysis
	err := b.breaker.Execute(func() error {
		var err error
		result, err = b.inner.AnalyzeResume(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// State exposes the breaker state for health reporting.
func (b *AnalysisBreaker) State() State {
	return b.breaker.State()
}
