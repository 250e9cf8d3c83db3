// Package server exposes the TalentEcho HTTP and WebSocket API.
//
// REST endpoints cover session lifecycle, reports, smart analysis, resume
// tooling, and accounts. Two WebSockets carry the live audio: the ingest
// socket receives raw PCM frames from the browser and the same connection
// streams interviewer speech back; the status socket pushes session
// snapshots on an interval.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talentecho/talentecho/internal/analysis"
	"github.com/talentecho/talentecho/internal/app"
	"github.com/talentecho/talentecho/internal/health"
	"github.com/talentecho/talentecho/internal/insight"
	"github.com/talentecho/talentecho/internal/observe"
	"github.com/talentecho/talentecho/internal/user"
	"github.com/talentecho/talentecho/pkg/questionbank"
	"github.com/talentecho/talentecho/pkg/report"
)

// Config holds the collaborators the server exposes over HTTP.
type Config struct {
	Sessions  *app.SessionManager
	Reports   report.Store
	Users     *user.Store
	Questions *questionbank.Index
	Gateway   *analysis.Gateway
	Insights  *insight.Service
	Metrics   *observe.Metrics
	Health    *health.Handler
	Logger    *slog.Logger
}

// Server routes API requests to the application subsystems.
type Server struct {
	sessions  *app.SessionManager
	reports   report.Store
	users     *user.Store
	questions *questionbank.Index
	gateway   *analysis.Gateway
	insights  *insight.Service
	metrics   *observe.Metrics
	health    *health.Handler
	log       *slog.Logger
}

// New creates a Server over the given collaborators.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := cfg.Health
	if h == nil {
		h = health.New()
	}
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &Server{
		sessions:  cfg.Sessions,
		reports:   cfg.Reports,
		users:     cfg.Users,
		questions: cfg.Questions,
		gateway:   cfg.Gateway,
		insights:  cfg.Insights,
		metrics:   m,
		health:    h,
		log:       log,
	}
}

// Handler builds the full route table. The /api subtree carries the metrics
// and tracing middleware; probes and /metrics stay outside it so scrapes do
// not pollute request histograms.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	s.health.Register(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(mux.MiddlewareFunc(observe.Middleware(s.metrics)))

	api.HandleFunc("/session", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/session/start", s.handleStartSession).Methods(http.MethodPost)
	api.HandleFunc("/session/end", s.handleEndSession).Methods(http.MethodPost)
	api.HandleFunc("/session/status", s.handleSessionStatus).Methods(http.MethodGet)
	api.HandleFunc("/session/audio", s.handleSessionAudio).Methods(http.MethodGet)
	api.HandleFunc("/session/live", s.handleSessionLive).Methods(http.MethodGet)

	api.HandleFunc("/reports", s.handleListReports).Methods(http.MethodGet)
	api.HandleFunc("/insight", s.handleInsight).Methods(http.MethodPost)

	api.HandleFunc("/resume/questions", s.handleResumeQuestions).Methods(http.MethodPost)
	api.HandleFunc("/resume/analysis", s.handleResumeAnalysis).Methods(http.MethodPost)

	api.HandleFunc("/questions", s.handleQuestionBank).Methods(http.MethodGet)
	api.HandleFunc("/questions/similar", s.handleSimilarQuestions).Methods(http.MethodGet)

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	return r
}

// writeJSON encodes v with the given status. Encoding failures are logged;
// the status line has already been sent by then.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encoding failed", "err", err)
	}
}

// writeError sends a JSON error body with a user-facing message.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
