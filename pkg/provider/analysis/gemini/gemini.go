// Package gemini provides a Gemini-backed analysis provider using the
// generateContent REST API with structured JSON output. It implements the
// analysis.Provider interface.
//
// Note: the Gemini API uses camelCase for JSON field names.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/provider/analysis"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// Answer review runs on the fast model; resume work uses the larger
	// vision model for PDF handling.
	defaultAnswerModel = "gemini-2.5-flash"
	defaultResumeModel = "gemini-3-pro-preview"
)

// Option is a functional option for configuring the Gemini Provider.
type Option func(*Provider)

// WithAnswerModel sets the model used for answer analysis.
func WithAnswerModel(model string) Option {
	return func(p *Provider) {
		p.answerModel = model
	}
}

// WithResumeModel sets the model used for resume operations.
func WithResumeModel(model string) Option {
	return func(p *Provider) {
		p.resumeModel = model
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// Provider implements analysis.Provider backed by the Gemini API.
type Provider struct {
	apiKey      string
	baseURL     string
	answerModel string
	resumeModel string
	httpClient  *http.Client
}

// New creates a new Gemini Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		answerModel: defaultAnswerModel,
		resumeModel: defaultResumeModel,
		httpClient:  &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ---- request/response types ----

type generateRequest struct {
	Contents         []content  `json:"contents"`
	GenerationConfig *genConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type genConfig struct {
	ResponseMIMEType   string          `json:"responseMimeType,omitempty"`
	ResponseJSONSchema json.RawMessage `json:"responseJsonSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ---- response schemas ----

// feedbackSchema constrains the answer-analysis output to the shape of
// [interview.Feedback].
const feedbackSchema = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "voiceFeedback": {"type": "string"},
    "contentFeedback": {"type": "string"},
    "bodyLanguageFeedback": {"type": "string"},
    "scores": {
      "type": "object",
      "properties": {
        "voice": {"type": "integer"},
        "content": {"type": "integer"},
        "bodyLanguage": {"type": "integer"}
      }
    },
    "suggestions": {"type": "array", "items": {"type": "string"}},
    "suggestedNextQuestion": {"type": "string"},
    "isFollowUp": {"type": "boolean"},
    "repeatRequested": {"type": "boolean"},
    "voiceCoaching": {
      "type": "object",
      "properties": {
        "pace_wpm": {"type": "integer"},
        "pace_feedback": {"type": "string"},
        "clarity_feedback": {"type": "string"},
        "filler_words": {"type": "array", "items": {"type": "string"}},
        "filler_word_count": {"type": "integer"},
        "hesitation_level": {"type": "string", "enum": ["Low", "Moderate", "High"]},
        "confidence_score": {"type": "integer"},
        "tone_analysis": {"type": "string"},
        "energy_level": {"type": "string", "enum": ["Low", "Neutral", "High", "Enthusiastic"]}
      },
      "required": ["pace_wpm", "filler_word_count", "hesitation_level", "confidence_score"]
    }
  },
  "required": ["summary", "voiceFeedback", "contentFeedback", "bodyLanguageFeedback", "scores", "suggestions", "suggestedNextQuestion", "isFollowUp", "repeatRequested"]
}`

// resumeAnalysisSchema constrains the resume review output to the shape of
// [interview.ResumeAnalysis].
const resumeAnalysisSchema = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "mistakes": {"type": "array", "items": {"type": "string"}},
    "improvements": {"type": "array", "items": {"type": "string"}},
    "scores": {
      "type": "object",
      "properties": {
        "content": {"type": "integer"},
        "formatting": {"type": "integer"},
        "clarity": {"type": "integer"},
        "atsOptimization": {"type": "integer"}
      },
      "required": ["content", "formatting", "clarity", "atsOptimization"]
    }
  },
  "required": ["summary", "strengths", "mistakes", "improvements", "scores"]
}`

// ---- prompts ----

const answerPromptFmt = `You are an AI Interview Coach acting in the following mode:
PERSONALITY MODE: %s
DIFFICULTY LEVEL: %s

PERSONALITY INSTRUCTIONS:
- Friendly HR: Warm, encouraging, supportive, simple questions.
- Strict Manager: Neutral tone, structured questions, sharp follow-ups.
- Google Hiring Manager: Analytical, behavioral-based, STAR-focused.
- Amazon Bar Raiser: Leadership principles, deep probing, high difficulty.
- Startup Founder: Fast-paced, practical, challenge-based questions.

DIFFICULTY INSTRUCTIONS:
- Beginner: Simple HR questions, slower pace, easy follow-ups.
- Intermediate: Role-based questions, probing follow-ups.
- Hard: Behavioral + situational + technical mix.
- Extreme: Analytical, multi-layer deep dives, logic-based follow-ups, high-pressure environment.

Your task is to analyze the candidate's answer to the question: "%s".

CRITICAL INSTRUCTION - REPEAT REQUESTS:
- Listen carefully. If the user asks to repeat the question (e.g., "Sorry, I didn't hear that", "Can you repeat?", "What was the question?"), set 'repeatRequested' to TRUE.
- In this case, 'summary' should be: "No problem, I will repeat the question."
- Do NOT provide feedback scores or critique if they are just asking for a repeat.

REAL-TIME COACHING & ANALYSIS TASKS:
1. Analyze Voice: Speaking pace (slow/fast/ideal), clarity, confidence, filler words ("um", "uh"), modulation.
2. Analyze Content: Relevance, structure (STAR method), depth.
3. Analyze Body Language: Eye contact, expressions.

VOICE COACHING MODULE (SYSTEM INSTRUCTION):
You must extract and estimate these specific metrics from the audio/video provided:
- Pace (WPM): Estimate speaking rate. <120 (Slow), 120-150 (Ideal), >150 (Fast).
- Filler Words: Count occurrences of "um", "uh", "like", "so".
- Hesitation: Analyze silence and pauses.
- Confidence Score: 0-10 based on tone firmness.
- Energy Level: Low/Neutral/High/Enthusiastic.

FEEDBACK GENERATION:
- Provide specific positive reinforcement for high scores.
- Provide constructive, actionable advice for lower scores.
- Be professional but human.

SUGGEST NEXT QUESTION:
- Based on the chosen Personality and Difficulty, ask the next question.
- If the answer was weak, probe deeper (Strict/Bar Raiser modes).
- If the answer was good, move to the next logical topic.

Return result as JSON matching the schema.`

const resumeQuestionsPrompt = `Analyze this resume and generate 5 relevant, challenging interview questions tailored to this candidate's experience and skills. Return ONLY the questions as a JSON array of strings.`

const resumeAnalysisPrompt = `Act as a Senior Resume Expert and HR Recruiter. Analyze the resume provided.

Your analysis must be PROFESSIONAL, FRIENDLY, and ACTIONABLE.

Tasks:
1. Provide a professional summary of the candidate (3-4 lines).
2. Identify key STRENGTHS (4-6 bullet points).
3. Identify MISTAKES / ISSUES (4-6 bullet points) - grammar, formatting, weak verbs, vague metrics.
4. Provide specific IMPROVEMENTS (4-8 bullet points) - how to fix the issues.
5. Score the resume (0-10) on Content, Formatting, Clarity, and ATS Optimization.

Format your response as a JSON object matching the provided schema.
Do not be generic. Be specific to the content provided.`

// ---- request construction ----

// buildAnswerRequest constructs the generateContent payload for one answer
// review: the recorded media as inline data plus the coaching prompt.
func buildAnswerRequest(req analysis.AnswerRequest) *generateRequest {
	personality := req.Personality
	if personality == "" {
		personality = interview.PersonalityFriendlyHR
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = interview.DifficultyIntermediate
	}
	prompt := fmt.Sprintf(answerPromptFmt, personality, difficulty, req.Question)
	return &generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &blob{
				MIMEType: req.MimeType,
				Data:     base64.StdEncoding.EncodeToString(req.Media),
			}},
			{Text: prompt},
		}}},
		GenerationConfig: &genConfig{
			ResponseMIMEType:   "application/json",
			ResponseJSONSchema: json.RawMessage(feedbackSchema),
		},
	}
}

// resumeParts renders a resume request as content parts: inline PDF data or
// plain text.
func resumeParts(req analysis.ResumeRequest) []part {
	if req.Format == analysis.ResumePDF {
		return []part{{InlineData: &blob{
			MIMEType: "application/pdf",
			Data:     base64.StdEncoding.EncodeToString(req.Data),
		}}}
	}
	return []part{{Text: fmt.Sprintf("Please analyze this resume text:\n\n%s", req.Data)}}
}

// ---- Provider methods ----

// AnalyzeAnswer implements analysis.Provider.
func (p *Provider) AnalyzeAnswer(ctx context.Context, req analysis.AnswerRequest) (*interview.Feedback, error) {
	if len(req.Media) == 0 {
		return nil, errors.New("gemini: answer media must not be empty")
	}
	text, err := p.generate(ctx, p.answerModel, buildAnswerRequest(req))
	if err != nil {
		return nil, err
	}
	var fb interview.Feedback
	if err := json.Unmarshal([]byte(text), &fb); err != nil {
		return nil, fmt.Errorf("gemini: decode feedback: %w", err)
	}
	return &fb, nil
}

// GenerateResumeQuestions implements analysis.Provider.
func (p *Provider) GenerateResumeQuestions(ctx context.Context, req analysis.ResumeRequest) ([]string, error) {
	if len(req.Data) == 0 {
		return nil, errors.New("gemini: resume data must not be empty")
	}
	parts := append(resumeParts(req), part{Text: resumeQuestionsPrompt})
	greq := &generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: &genConfig{ResponseMIMEType: "application/json"},
	}
	text, err := p.generate(ctx, p.resumeModel, greq)
	if err != nil {
		return nil, err
	}
	var questions []string
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("gemini: decode questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, errors.New("gemini: model returned no questions")
	}
	return questions, nil
}

// AnalyzeResume implements analysis.Provider.
func (p *Provider) AnalyzeResume(ctx context.Context, req analysis.ResumeRequest) (*interview.ResumeAnalysis, error) {
	if len(req.Data) == 0 {
		return nil, errors.New("gemini: resume data must not be empty")
	}
	parts := append(resumeParts(req), part{Text: resumeAnalysisPrompt})
	greq := &generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: &genConfig{
			ResponseMIMEType:   "application/json",
			ResponseJSONSchema: json.RawMessage(resumeAnalysisSchema),
		},
	}
	text, err := p.generate(ctx, p.resumeModel, greq)
	if err != nil {
		return nil, err
	}
	var ra interview.ResumeAnalysis
	if err := json.Unmarshal([]byte(text), &ra); err != nil {
		return nil, fmt.Errorf("gemini: decode resume analysis: %w", err)
	}
	return &ra, nil
}

// generate posts a generateContent request and returns the first text part of
// the first candidate.
func (p *Provider) generate(ctx context.Context, model string, greq *generateRequest) (string, error) {
	body, err := json.Marshal(greq)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var gr generateResponse
		if err := json.Unmarshal(respBody, &gr); err == nil && gr.Error != nil {
			return "", fmt.Errorf("gemini: %s (status %d)", gr.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}

	return parseTextResponse(respBody)
}

// parseTextResponse extracts the first text part from a generateContent
// response.
func parseTextResponse(data []byte) (string, error) {
	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	for _, cand := range gr.Candidates {
		for _, pt := range cand.Content.Parts {
			if pt.Text != "" {
				return pt.Text, nil
			}
		}
	}
	return "", errors.New("gemini: response contains no text")
}

// Ensure Provider implements analysis.Provider at compile time.
var _ analysis.Provider = (*Provider)(nil)
