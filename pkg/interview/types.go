// Package interview defines the shared domain types for TalentEcho: session
// settings, AI feedback payloads, per-question results, and compiled reports.
//
// These types cross package boundaries — they are produced by the analysis
// providers, accumulated by the session orchestrator, and persisted by the
// report stores — so they live under pkg/ rather than internal/.
package interview

import (
	"math"
	"time"
)

// Personality selects the interviewer persona injected into the analysis prompt.
type Personality string

const (
	PersonalityFriendlyHR     Personality = "Friendly HR"
	PersonalityStrictManager  Personality = "Strict Manager"
	PersonalityGoogleHM       Personality = "Google Hiring Manager"
	PersonalityAmazonBR       Personality = "Amazon Bar Raiser"
	PersonalityStartupFounder Personality = "Startup Founder"
)

// IsValid reports whether p is a recognised interviewer personality.
func (p Personality) IsValid() bool {
	switch p {
	case PersonalityFriendlyHR, PersonalityStrictManager, PersonalityGoogleHM,
		PersonalityAmazonBR, PersonalityStartupFounder:
		return true
	}
	return false
}

// Difficulty selects the question depth and pacing of the interview.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyHard         Difficulty = "Hard"
	DifficultyExtreme      Difficulty = "Extreme"
)

// IsValid reports whether d is a recognised difficulty level.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyHard, DifficultyExtreme:
		return true
	}
	return false
}

// SessionType classifies how a session was configured.
type SessionType string

const (
	SessionQuick  SessionType = "quick"
	SessionFull   SessionType = "full"
	SessionResume SessionType = "resume"
)

// Settings configures a single interview session.
type Settings struct {
	// Type records how the question list was assembled.
	Type SessionType

	// Questions is the initial question queue, in asking order.
	// Must be non-empty.
	Questions []string

	// Personality is the interviewer persona. Zero value defaults to
	// [PersonalityFriendlyHR] at the gateway.
	Personality Personality

	// Difficulty is the interview difficulty. Zero value defaults to
	// [DifficultyIntermediate] at the gateway.
	Difficulty Difficulty

	// OwnerKey scopes report persistence to a user. Empty means anonymous.
	OwnerKey string
}

// Scores holds the three per-answer axis scores, each an integer in [0, 10].
type Scores struct {
	Voice        int `json:"voice"`
	Content      int `json:"content"`
	BodyLanguage int `json:"bodyLanguage"`
}

// Mean returns the arithmetic mean of the three axis scores.
func (s Scores) Mean() float64 {
	return float64(s.Voice+s.Content+s.BodyLanguage) / 3
}

// HesitationLevel grades pause frequency in a spoken answer.
type HesitationLevel string

const (
	HesitationLow      HesitationLevel = "Low"
	HesitationModerate HesitationLevel = "Moderate"
	HesitationHigh     HesitationLevel = "High"
)

// VoiceCoaching carries the detailed voice metrics the analysis model extracts
// from the audio track. Optional — older model responses may omit it.
type VoiceCoaching struct {
	PaceWPM         int             `json:"pace_wpm"`
	PaceFeedback    string          `json:"pace_feedback"`
	ClarityFeedback string          `json:"clarity_feedback"`
	FillerWords     []string        `json:"filler_words"`
	FillerWordCount int             `json:"filler_word_count"`
	Hesitation      HesitationLevel `json:"hesitation_level"`
	ConfidenceScore int             `json:"confidence_score"`
	ToneAnalysis    string          `json:"tone_analysis"`
	EnergyLevel     string          `json:"energy_level"`
}

// Feedback is the structured result of analysing one recorded answer.
//
// The orchestrator treats it as opaque except for the three control fields
// (RepeatRequested, SuggestedNextQuestion, IsFollowUp) and the Scores used in
// report aggregation.
type Feedback struct {
	Summary              string   `json:"summary"`
	VoiceFeedback        string   `json:"voiceFeedback"`
	ContentFeedback      string   `json:"contentFeedback"`
	BodyLanguageFeedback string   `json:"bodyLanguageFeedback"`
	Scores               Scores   `json:"scores"`
	Suggestions          []string `json:"suggestions"`

	// SuggestedNextQuestion, when non-empty, is the model's proposal for the
	// next question. IsFollowUp decides whether it jumps the queue.
	SuggestedNextQuestion string `json:"suggestedNextQuestion,omitempty"`
	IsFollowUp            bool   `json:"isFollowUp,omitempty"`

	// RepeatRequested signals the candidate asked to hear the question again.
	// Not an error: the orchestrator re-asks without recording a result.
	RepeatRequested bool `json:"repeatRequested,omitempty"`

	VoiceCoaching *VoiceCoaching `json:"voiceCoaching,omitempty"`
}

// QuestionResult pairs an asked question with its analysed feedback and an
// opaque reference to the recorded media. Immutable once created.
type QuestionResult struct {
	Question string    `json:"question"`
	Feedback *Feedback `json:"feedback"`

	// MediaRef is an opaque handle to the stored recording (a file path or
	// object key, depending on deployment). May be empty.
	MediaRef string `json:"mediaRef,omitempty"`
}

// Report is the immutable record compiled at session end.
type Report struct {
	ID           string           `json:"id"`
	Timestamp    time.Time        `json:"timestamp"`
	Type         SessionType      `json:"type"`
	OverallScore int              `json:"overallScore"`
	Results      []QuestionResult `json:"results"`
}

// OverallScore aggregates per-question scores into a single [0, 10] integer:
// the rounded mean over all results of each result's mean(voice, content,
// bodyLanguage). Results without feedback contribute zero. Returns 0 for an
// empty result list.
func OverallScore(results []QuestionResult) int {
	if len(results) == 0 {
		return 0
	}
	var total float64
	for _, r := range results {
		if r.Feedback != nil {
			total += r.Feedback.Scores.Mean()
		}
	}
	return int(math.Round(total / float64(len(results))))
}

// ResumeAnalysis is the structured result of the standalone resume review tool.
type ResumeAnalysis struct {
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Mistakes     []string `json:"mistakes"`
	Improvements []string `json:"improvements"`
	Scores       struct {
		Content         int `json:"content"`
		Formatting      int `json:"formatting"`
		Clarity         int `json:"clarity"`
		ATSOptimization int `json:"atsOptimization"`
	} `json:"scores"`
}

// SmartAnalysis is the cross-session performance review generated from a
// user's report history.
type SmartAnalysis struct {
	// HiringLikelihood is a percentage in [0, 100].
	HiringLikelihood int `json:"hiringLikelihood"`
	Scores           struct {
		Communication     int `json:"communication"`
		Confidence        int `json:"confidence"`
		Clarity           int `json:"clarity"`
		BodyLanguage      int `json:"bodyLanguage"`
		Structure         int `json:"structure"`
		HiringProbability int `json:"hiringProbability"`
	} `json:"scores"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	STARRewrite struct {
		OriginalTopic  string `json:"originalTopic"`
		ImprovedAnswer string `json:"improvedAnswer"`
	} `json:"starRewrite"`
	TrendAnalysis string `json:"trendAnalysis"`
}
