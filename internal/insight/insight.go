// Package insight produces the cross-session performance review: a hiring
// likelihood, a six-axis scorecard, strengths and weaknesses, a STAR-method
// answer rewrite, and a trend paragraph, generated by an LLM over the user's
// recent interview reports.
//
// Generation is fail-soft: any transport or parse failure yields a fixed
// fallback payload so the review surface never errors at the user.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/provider/llm"
)

// maxReports caps how many recent reports feed one analysis.
const maxReports = 5

const systemPrompt = "Act as a Senior Interview Analyst. I am providing you with the history of a candidate's mock interviews.\n\n" +
	"YOUR TASKS:\n" +
	"1. Calculate a \"Hiring Likelihood\" percentage (0-100%) based on their trajectory.\n" +
	"2. Generate a 6-Point Scorecard (0-10) for: Communication, Confidence, Clarity, Body Language, Structure, Hiring Probability.\n" +
	"3. Identify their top Strengths and Weaknesses across all sessions.\n" +
	"4. Select ONE specific weak answer topic from the history and REWRITE it using the STAR method to show them how to improve.\n" +
	"5. Provide a short \"Trend Analysis\" paragraph explaining if they are improving or plateauing.\n\n" +
	"Respond with a single JSON object, no prose and no code fences, with exactly these keys: " +
	`"hiringLikelihood" (integer 0-100), "scores" (object with integer fields ` +
	`"communication", "confidence", "clarity", "bodyLanguage", "structure", "hiringProbability"), ` +
	`"strengths" (array of strings), "weaknesses" (array of strings), ` +
	`"starRewrite" (object with string fields "originalTopic" and "improvedAnswer"), ` +
	`"trendAnalysis" (string).`

// reportSummary is the compact per-report shape serialised into the prompt.
type reportSummary struct {
	Date         string            `json:"date"`
	Type         string            `json:"type"`
	OverallScore int               `json:"overallScore"`
	Questions    []questionSummary `json:"questions"`
}

type questionSummary struct {
	Q        string `json:"q"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// Service generates smart analyses from report history.
type Service struct {
	provider llm.Provider
	log      *slog.Logger
}

// NewService creates a Service over the given completion provider.
func NewService(provider llm.Provider, opts ...Option) *Service {
	s := &Service{provider: provider, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SmartAnalysis reviews up to the five most recent reports. It never returns
// an error: failures are logged and the fixed fallback payload is returned.
func (s *Service) SmartAnalysis(ctx context.Context, reports []*interview.Report) *interview.SmartAnalysis {
	if s.provider == nil {
		s.log.Warn("no llm provider configured, using fallback smart analysis")
		return FallbackSmartAnalysis()
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: "INPUT DATA:\n" + summarize(reports)},
		},
	})
	if err != nil {
		s.log.Warn("smart analysis generation failed", "err", err)
		return FallbackSmartAnalysis()
	}

	analysis, err := parseSmartAnalysis(resp.Content)
	if err != nil {
		s.log.Warn("smart analysis response unusable", "err", err)
		return FallbackSmartAnalysis()
	}
	return analysis
}

// summarize renders the most recent reports into the prompt's JSON shape.
func summarize(reports []*interview.Report) string {
	if len(reports) > maxReports {
		reports = reports[:maxReports]
	}
	summaries := make([]reportSummary, 0, len(reports))
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		rs := reportSummary{
			Date:         rep.Timestamp.Format("2006-01-02"),
			Type:         string(rep.Type),
			OverallScore: rep.OverallScore,
		}
		for _, res := range rep.Results {
			qs := questionSummary{Q: res.Question}
			if res.Feedback != nil {
				qs.Score = res.Feedback.Scores.Content
				qs.Feedback = res.Feedback.Summary
			}
			rs.Questions = append(rs.Questions, qs)
		}
		summaries = append(summaries, rs)
	}
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// parseSmartAnalysis decodes the model output, tolerating code fences, and
// clamps numeric fields into range.
func parseSmartAnalysis(content string) (*interview.SmartAnalysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var analysis interview.SmartAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("insight: parse response: %w", err)
	}
	if analysis.TrendAnalysis == "" && len(analysis.Strengths) == 0 {
		return nil, fmt.Errorf("insight: response missing required fields")
	}

	analysis.HiringLikelihood = clamp(analysis.HiringLikelihood, 100)
	analysis.Scores.Communication = clamp(analysis.Scores.Communication, 10)
	analysis.Scores.Confidence = clamp(analysis.Scores.Confidence, 10)
	analysis.Scores.Clarity = clamp(analysis.Scores.Clarity, 10)
	analysis.Scores.BodyLanguage = clamp(analysis.Scores.BodyLanguage, 10)
	analysis.Scores.Structure = clamp(analysis.Scores.Structure, 10)
	analysis.Scores.HiringProbability = clamp(analysis.Scores.HiringProbability, 10)
	return &analysis, nil
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// FallbackSmartAnalysis is the canned payload served when generation fails or
// the user has no usable history.
func FallbackSmartAnalysis() *interview.SmartAnalysis {
	analysis := &interview.SmartAnalysis{
		HiringLikelihood: 65,
		Strengths:        []string{"Clear voice", "Good technical knowledge"},
		Weaknesses:       []string{"Filler words", "Unstructured answers"},
		TrendAnalysis:    "You are showing consistent improvement in voice clarity, but need to work on answer structure.",
	}
	analysis.Scores.Communication = 7
	analysis.Scores.Confidence = 6
	analysis.Scores.Clarity = 7
	analysis.Scores.BodyLanguage = 6
	analysis.Scores.Structure = 5
	analysis.Scores.HiringProbability = 6
	analysis.STARRewrite.OriginalTopic = "Tell me about a challenge"
	analysis.STARRewrite.ImprovedAnswer = "SITUATION: In my last project, we faced a server outage... TASK: My goal was to restore uptime... ACTION: I diagnosed the logs, identified a memory leak, and patched it... RESULT: Uptime improved by 99.9%."
	return analysis
}
