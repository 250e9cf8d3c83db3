// Package analysis wraps an answer-analysis provider in a fail-soft gateway.
//
// The session orchestrator cannot afford a failed analysis: the interview
// must keep moving even when the model is down or returns garbage. The
// gateway therefore never returns an error from Analyze — any failure yields
// a fixed neutral feedback payload, and out-of-range scores are clamped
// rather than rejected. Resume operations pass errors through; they are
// user-initiated tools with no session to keep alive.
package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/provider/analysis"
)

// Gateway adapts an analysis.Provider for use inside a live session.
type Gateway struct {
	provider analysis.Provider
	log      *slog.Logger
}

// Option customizes a [Gateway].
type Option func(*Gateway)

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) {
		g.log = log
	}
}

// NewGateway creates a gateway over the given provider.
func NewGateway(provider analysis.Provider, opts ...Option) *Gateway {
	g := &Gateway{provider: provider, log: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze reviews one recorded answer. It never fails: provider errors, nil
// results, and malformed payloads all degrade to [NeutralFeedback]. Scores
// are clamped to [0, 10]. No retries.
func (g *Gateway) Analyze(ctx context.Context, req analysis.AnswerRequest) *interview.Feedback {
	if req.Personality == "" {
		req.Personality = interview.PersonalityFriendlyHR
	}
	if req.Difficulty == "" {
		req.Difficulty = interview.DifficultyIntermediate
	}

	if g.provider == nil {
		g.log.Warn("no analysis provider configured, using neutral feedback", "question", req.Question)
		return NeutralFeedback()
	}

	fb, err := g.provider.AnalyzeAnswer(ctx, req)
	if err != nil {
		g.log.Warn("answer analysis failed, using neutral feedback", "question", req.Question, "err", err)
		return NeutralFeedback()
	}
	if fb == nil {
		g.log.Warn("answer analysis returned nil feedback, using neutral feedback", "question", req.Question)
		return NeutralFeedback()
	}

	clamped := *fb
	clamped.Scores = clampScores(fb.Scores)
	return &clamped
}

// ErrNoProvider is returned by the resume operations when no analysis
// provider is configured. The fail-soft path in Analyze does not apply to
// them.
var ErrNoProvider = errors.New("analysis: no provider configured")

// GenerateResumeQuestions passes through to the provider.
func (g *Gateway) GenerateResumeQuestions(ctx context.Context, req analysis.ResumeRequest) ([]string, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}
	return g.provider.GenerateResumeQuestions(ctx, req)
}

// AnalyzeResume passes through to the provider.
func (g *Gateway) AnalyzeResume(ctx context.Context, req analysis.ResumeRequest) (*interview.ResumeAnalysis, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}
	return g.provider.AnalyzeResume(ctx, req)
}

// NeutralFeedback is the fixed payload used when analysis fails. The scores
// are deliberately mid-scale so one outage neither sinks nor inflates the
// session's overall score.
func NeutralFeedback() *interview.Feedback {
	return &interview.Feedback{
		Summary:               "I'm having trouble analyzing that. Let's try moving forward.",
		VoiceFeedback:         "Unable to analyze audio quality.",
		ContentFeedback:       "Unable to analyze content.",
		BodyLanguageFeedback:  "Unable to analyze video.",
		Scores:                interview.Scores{Voice: 5, Content: 5, BodyLanguage: 5},
		Suggestions:           []string{"Please check your microphone and camera connection."},
		SuggestedNextQuestion: "Tell me about something else?",
	}
}

// clampScores bounds each axis to [0, 10].
func clampScores(s interview.Scores) interview.Scores {
	return interview.Scores{
		Voice:        clamp(s.Voice),
		Content:      clamp(s.Content),
		BodyLanguage: clamp(s.BodyLanguage),
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
