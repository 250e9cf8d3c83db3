// Package analysis defines the Provider interface for answer and resume
// analysis backends.
//
// An analysis provider receives the recorded answer media together with the
// question that was asked and returns structured coaching feedback. It also
// covers the two resume operations: generating tailored interview questions
// from an uploaded resume, and producing a standalone resume review.
//
// Implementations must be safe for concurrent use.
package analysis

import (
	"context"

	"github.com/talentecho/talentecho/pkg/interview"
)

// AnswerRequest carries everything the model needs to review one answer.
type AnswerRequest struct {
	// Question is the question the candidate was answering.
	Question string

	// Media is the recorded answer, raw bytes in the format named by MimeType.
	Media []byte

	// MimeType describes Media (e.g., "audio/L16", "video/webm").
	MimeType string

	// NextPlannedQuestion is the question the orchestrator would ask next if
	// the model suggests nothing. May be empty at the end of the queue.
	NextPlannedQuestion string

	// Personality selects the interviewer persona. Empty defaults to
	// [interview.PersonalityFriendlyHR].
	Personality interview.Personality

	// Difficulty selects the question depth. Empty defaults to
	// [interview.DifficultyIntermediate].
	Difficulty interview.Difficulty
}

// ResumeFormat discriminates the two accepted resume payloads.
type ResumeFormat string

const (
	ResumeText ResumeFormat = "text"
	ResumePDF  ResumeFormat = "pdf"
)

// ResumeRequest carries a resume for review or question generation.
// For [ResumePDF], Data holds the raw PDF bytes; for [ResumeText] it holds
// UTF-8 text.
type ResumeRequest struct {
	Format ResumeFormat
	Data   []byte
}

// Provider is the abstraction over any answer-analysis backend.
type Provider interface {
	// AnalyzeAnswer reviews one recorded answer and returns structured
	// feedback, including the control fields the orchestrator acts on
	// (RepeatRequested, SuggestedNextQuestion, IsFollowUp).
	//
	// Returns an error if the backend cannot be reached or produces an
	// unparseable response. Callers that must keep a session moving should
	// wrap the provider rather than rely on it to degrade gracefully.
	AnalyzeAnswer(ctx context.Context, req AnswerRequest) (*interview.Feedback, error)

	// GenerateResumeQuestions produces interview questions tailored to the
	// given resume, most relevant first.
	GenerateResumeQuestions(ctx context.Context, req ResumeRequest) ([]string, error)

	// AnalyzeResume produces the standalone resume review.
	AnalyzeResume(ctx context.Context, req ResumeRequest) (*interview.ResumeAnalysis, error)
}
