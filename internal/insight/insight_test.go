package insight

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/provider/llm"
	llmmock "github.com/talentecho/talentecho/pkg/provider/llm/mock"
)

const goodResponse = `{
	"hiringLikelihood": 72,
	"scores": {
		"communication": 8, "confidence": 7, "clarity": 8,
		"bodyLanguage": 6, "structure": 7, "hiringProbability": 7
	},
	"strengths": ["Concise answers"],
	"weaknesses": ["Low energy"],
	"starRewrite": {"originalTopic": "A failure", "improvedAnswer": "SITUATION: ..."},
	"trendAnalysis": "Improving steadily."
}`

func historyReport(score int) *interview.Report {
	return &interview.Report{
		ID:           "interview-1",
		Timestamp:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Type:         interview.SessionQuick,
		OverallScore: score,
		Results: []interview.QuestionResult{
			{
				Question: "Tell me about yourself.",
				Feedback: &interview.Feedback{
					Summary: "Good pacing.",
					Scores:  interview.Scores{Voice: score, Content: score, BodyLanguage: score},
				},
			},
		},
	}
}

func newService(p *llmmock.Provider) *Service {
	return NewService(p, WithLogger(slog.New(slog.DiscardHandler)))
}

func TestSmartAnalysis_ParsesResponse(t *testing.T) {
	p := &llmmock.Provider{CompleteResult: &llm.CompletionResponse{Content: goodResponse}}
	got := newService(p).SmartAnalysis(t.Context(), []*interview.Report{historyReport(7)})

	if got.HiringLikelihood != 72 {
		t.Errorf("hiring likelihood = %d", got.HiringLikelihood)
	}
	if got.Scores.Communication != 8 || got.Scores.HiringProbability != 7 {
		t.Errorf("unexpected scores %+v", got.Scores)
	}
	if got.TrendAnalysis != "Improving steadily." {
		t.Errorf("unexpected trend %q", got.TrendAnalysis)
	}

	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 completion call, got %d", len(calls))
	}
	req := calls[0].Req
	if !strings.Contains(req.SystemPrompt, "Senior Interview Analyst") {
		t.Error("system prompt missing analyst framing")
	}
	if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "Tell me about yourself.") {
		t.Errorf("report history not in prompt: %+v", req.Messages)
	}
}

func TestSmartAnalysis_ToleratesCodeFences(t *testing.T) {
	p := &llmmock.Provider{CompleteResult: &llm.CompletionResponse{
		Content: "```json\n" + goodResponse + "\n```",
	}}
	got := newService(p).SmartAnalysis(t.Context(), nil)
	if got.HiringLikelihood != 72 {
		t.Errorf("fenced response not parsed: %+v", got)
	}
}

func TestSmartAnalysis_ClampsOutOfRange(t *testing.T) {
	p := &llmmock.Provider{CompleteResult: &llm.CompletionResponse{Content: `{
		"hiringLikelihood": 140,
		"scores": {"communication": 15, "confidence": -2, "clarity": 5,
			"bodyLanguage": 5, "structure": 5, "hiringProbability": 5},
		"strengths": ["x"], "weaknesses": [],
		"starRewrite": {"originalTopic": "", "improvedAnswer": ""},
		"trendAnalysis": "flat"
	}`}}
	got := newService(p).SmartAnalysis(t.Context(), nil)
	if got.HiringLikelihood != 100 {
		t.Errorf("likelihood not clamped: %d", got.HiringLikelihood)
	}
	if got.Scores.Communication != 10 || got.Scores.Confidence != 0 {
		t.Errorf("scores not clamped: %+v", got.Scores)
	}
}

func TestSmartAnalysis_FallsBack(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		p := &llmmock.Provider{CompleteErr: errors.New("rate limited")}
		got := newService(p).SmartAnalysis(t.Context(), []*interview.Report{historyReport(5)})
		if got.HiringLikelihood != 65 {
			t.Errorf("expected fallback payload, got %+v", got)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		p := &llmmock.Provider{CompleteResult: &llm.CompletionResponse{Content: "I think the candidate is great"}}
		got := newService(p).SmartAnalysis(t.Context(), nil)
		if got.STARRewrite.OriginalTopic != "Tell me about a challenge" {
			t.Errorf("expected fallback payload, got %+v", got)
		}
	})
}

func TestSummarize_CapsAtFiveReports(t *testing.T) {
	var reports []*interview.Report
	for range 8 {
		reports = append(reports, historyReport(6))
	}
	out := summarize(reports)
	if n := strings.Count(out, `"overallScore"`); n != 5 {
		t.Errorf("expected 5 summarised reports, got %d", n)
	}
}
