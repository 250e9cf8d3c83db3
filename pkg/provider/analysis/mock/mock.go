// Package mock provides a test double for the analysis.Provider interface.
//
// Use Provider to feed controlled feedback to the session orchestrator and to
// verify which questions and media were submitted for analysis.
package mock

import (
	"context"
	"sync"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/provider/analysis"
)

// AnalyzeAnswerCall records a single invocation of AnalyzeAnswer.
type AnalyzeAnswerCall struct {
	// Ctx is the context passed to AnalyzeAnswer.
	Ctx context.Context
	// Req is the request passed to AnalyzeAnswer.
	Req analysis.AnswerRequest
}

// ResumeCall records a single invocation of GenerateResumeQuestions or
// AnalyzeResume.
type ResumeCall struct {
	// Ctx is the context passed to the method.
	Ctx context.Context
	// Req is the request passed to the method.
	Req analysis.ResumeRequest
}

// Provider is a mock implementation of analysis.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// AnalyzeAnswerResult is returned by AnalyzeAnswer.
	AnalyzeAnswerResult *interview.Feedback

	// AnalyzeAnswerErr, if non-nil, is returned as the error from AnalyzeAnswer.
	AnalyzeAnswerErr error

	// AnalyzeAnswerFunc, if non-nil, overrides the result/err pair entirely.
	// The call is still recorded.
	AnalyzeAnswerFunc func(ctx context.Context, req analysis.AnswerRequest) (*interview.Feedback, error)

	// QuestionsResult is returned by GenerateResumeQuestions.
	QuestionsResult []string

	// QuestionsErr, if non-nil, is returned as the error from GenerateResumeQuestions.
	QuestionsErr error

	// ResumeResult is returned by AnalyzeResume.
	ResumeResult *interview.ResumeAnalysis

	// ResumeErr, if non-nil, is returned as the error from AnalyzeResume.
	ResumeErr error

	// --- Call records ---

	// AnalyzeAnswerCalls records every call to AnalyzeAnswer in order.
	AnalyzeAnswerCalls []AnalyzeAnswerCall

	// QuestionsCalls records every call to GenerateResumeQuestions in order.
	QuestionsCalls []ResumeCall

	// ResumeCalls records every call to AnalyzeResume in order.
	ResumeCalls []ResumeCall
}

// AnalyzeAnswer records the call and returns the configured feedback or error.
func (p *Provider) AnalyzeAnswer(ctx context.Context, req analysis.AnswerRequest) (*interview.Feedback, error) {
	p.mu.Lock()
	p.AnalyzeAnswerCalls = append(p.AnalyzeAnswerCalls, AnalyzeAnswerCall{Ctx: ctx, Req: req})
	fn := p.AnalyzeAnswerFunc
	result := p.AnalyzeAnswerResult
	err := p.AnalyzeAnswerErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateResumeQuestions records the call and returns QuestionsResult, QuestionsErr.
func (p *Provider) GenerateResumeQuestions(ctx context.Context, req analysis.ResumeRequest) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.QuestionsCalls = append(p.QuestionsCalls, ResumeCall{Ctx: ctx, Req: req})
	return p.QuestionsResult, p.QuestionsErr
}

// AnalyzeResume records the call and returns ResumeResult, ResumeErr.
func (p *Provider) AnalyzeResume(ctx context.Context, req analysis.ResumeRequest) (*interview.ResumeAnalysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ResumeCalls = append(p.ResumeCalls, ResumeCall{Ctx: ctx, Req: req})
	return p.ResumeResult, p.ResumeErr
}

// AnswerCalls returns a snapshot of recorded AnalyzeAnswer calls. Thread-safe.
func (p *Provider) AnswerCalls() []AnalyzeAnswerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	calls := make([]AnalyzeAnswerCall, len(p.AnalyzeAnswerCalls))
	copy(calls, p.AnalyzeAnswerCalls)
	return calls
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AnalyzeAnswerCalls = nil
	p.QuestionsCalls = nil
	p.ResumeCalls = nil
}

// Ensure Provider implements analysis.Provider at compile time.
var _ analysis.Provider = (*Provider)(nil)
