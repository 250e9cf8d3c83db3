package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/talentecho/talentecho/internal/analysis"
	"github.com/talentecho/talentecho/internal/user"
	analysisprovider "github.com/talentecho/talentecho/pkg/provider/analysis"
	"github.com/talentecho/talentecho/pkg/questionbank"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	reports, err := s.reports.List(r.Context(), owner)
	if err != nil {
		s.log.Error("report listing failed", "owner", owner, "err", err)
		s.writeError(w, http.StatusInternalServerError, "could not load reports")
		return
	}
	s.writeJSON(w, http.StatusOK, reports)
}

type insightRequest struct {
	Owner string `json:"owner"`
}

// handleInsight summarizes a user's interview history. It never fails on
// provider trouble; the service substitutes canned guidance.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid insight request: "+err.Error())
		return
	}

	reports, err := s.reports.List(r.Context(), req.Owner)
	if err != nil {
		s.log.Error("report listing failed", "owner", req.Owner, "err", err)
		s.writeError(w, http.StatusInternalServerError, "could not load reports")
		return
	}

	s.writeJSON(w, http.StatusOK, s.insights.SmartAnalysis(r.Context(), reports))
}

type resumeRequest struct {
	Format analysisprovider.ResumeFormat `json:"format"`
	Text   string                        `json:"text"`
	Data   string                        `json:"data"`
}

// toProviderRequest normalizes the two accepted payload shapes: plain text
// in "text", or base64-encoded bytes (PDF) in "data".
func (rr resumeRequest) toProviderRequest() (analysisprovider.ResumeRequest, error) {
	req := analysisprovider.ResumeRequest{Format: rr.Format}
	if req.Format == "" {
		req.Format = analysisprovider.ResumeText
	}

	switch {
	case rr.Text != "":
		req.Data = []byte(rr.Text)
	case rr.Data != "":
		decoded, err := base64.StdEncoding.DecodeString(rr.Data)
		if err != nil {
			return req, errors.New("data must be base64-encoded")
		}
		req.Data = decoded
	default:
		return req, errors.New("resume payload is empty")
	}
	return req, nil
}

func (s *Server) handleResumeQuestions(w http.ResponseWriter, r *http.Request) {
	var body resumeRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid resume request: "+err.Error())
		return
	}
	req, err := body.toProviderRequest()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	questions, err := s.gateway.GenerateResumeQuestions(r.Context(), req)
	switch {
	case errors.Is(err, analysis.ErrNoProvider):
		s.writeError(w, http.StatusServiceUnavailable, "no analysis provider configured")
		return
	case err != nil:
		s.log.Error("resume question generation failed", "err", err)
		s.writeError(w, http.StatusBadGateway, "resume analysis is unavailable right now")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]string{"questions": questions})
}

func (s *Server) handleResumeAnalysis(w http.ResponseWriter, r *http.Request) {
	var body resumeRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid resume request: "+err.Error())
		return
	}
	req, err := body.toProviderRequest()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.gateway.AnalyzeResume(r.Context(), req)
	switch {
	case errors.Is(err, analysis.ErrNoProvider):
		s.writeError(w, http.StatusServiceUnavailable, "no analysis provider configured")
		return
	case err != nil:
		s.log.Error("resume analysis failed", "err", err)
		s.writeError(w, http.StatusBadGateway, "resume analysis is unavailable right now")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuestionBank(w http.ResponseWriter, r *http.Request) {
	cat := questionbank.Category(r.URL.Query().Get("category"))
	if cat == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"categories": questionbank.Categories(),
			"quick":      questionbank.Quick(),
		})
		return
	}

	n := queryInt(r, "n", 0)
	var questions []string
	if n > 0 {
		questions = questionbank.Sample(cat, n)
	} else {
		questions = questionbank.Builtin(cat)
	}
	if len(questions) == 0 {
		s.writeError(w, http.StatusNotFound, "unknown question category")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"questions": questions})
}

func (s *Server) handleSimilarQuestions(w http.ResponseWriter, r *http.Request) {
	if s.questions == nil {
		s.writeError(w, http.StatusServiceUnavailable, "semantic question search is not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	k := queryInt(r, "k", 5)

	questions, err := s.questions.Similar(r.Context(), query, k)
	if err != nil {
		s.log.Error("similarity search failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"questions": questions})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		s.writeError(w, http.StatusServiceUnavailable, "accounts are not configured")
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid registration: "+err.Error())
		return
	}

	u, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		s.writeError(w, http.StatusConflict, "email is already registered")
		return
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		s.writeError(w, http.StatusServiceUnavailable, "accounts are not configured")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid login: "+err.Error())
		return
	}

	u, err := s.users.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case err != nil:
		s.log.Error("login failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}
