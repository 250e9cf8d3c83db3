// Package app wires all TalentEcho subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context ends, and Shutdown tears
// everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithReportStore, WithMetrics, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talentecho/talentecho/internal/analysis"
	"github.com/talentecho/talentecho/internal/config"
	"github.com/talentecho/talentecho/internal/insight"
	"github.com/talentecho/talentecho/internal/observe"
	"github.com/talentecho/talentecho/internal/resilience"
	"github.com/talentecho/talentecho/internal/user"
	analysisprovider "github.com/talentecho/talentecho/pkg/provider/analysis"
	"github.com/talentecho/talentecho/pkg/provider/embeddings"
	"github.com/talentecho/talentecho/pkg/provider/llm"
	"github.com/talentecho/talentecho/pkg/provider/tts"
	"github.com/talentecho/talentecho/pkg/questionbank"
	"github.com/talentecho/talentecho/pkg/report"
	reportpg "github.com/talentecho/talentecho/pkg/report/postgres"
)

// shutdownGrace is how long Run gives the HTTP server to drain connections
// after the context ends.
const shutdownGrace = 10 * time.Second

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	TTS        tts.Provider
	Analysis   analysisprovider.Provider
	LLM        llm.Provider
	Embeddings embeddings.Provider
}

// App owns all subsystem lifetimes for the TalentEcho server.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	metrics   *observe.Metrics
	reports   report.Store
	users     *user.Store
	questions *questionbank.Index
	gateway   *analysis.Gateway
	insights  *insight.Service
	sessions  *SessionManager

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithReportStore injects a report store instead of creating one from config.
func WithReportStore(s report.Store) Option {
	return func(a *App) { a.reports = s }
}

// WithMetrics injects a metrics bundle instead of using the default one.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initReports(ctx); err != nil {
		return nil, fmt.Errorf("app: init reports: %w", err)
	}
	if err := a.initUsers(ctx); err != nil {
		return nil, fmt.Errorf("app: init users: %w", err)
	}
	if err := a.initQuestionIndex(ctx); err != nil {
		return nil, fmt.Errorf("app: init question index: %w", err)
	}

	a.gateway = analysis.NewGateway(a.instrumentedAnalysis())
	a.insights = insight.NewService(providers.LLM)

	a.sessions = NewSessionManager(SessionManagerConfig{
		Config:   cfg,
		TTS:      a.instrumentedTTS(),
		Gateway:  a.gateway,
		Reports:  a.reports,
		Metrics:  a.metrics,
		MediaDir: cfg.Storage.MediaDir,
	})
	a.closers = append(a.closers, a.sessions.Close)

	return a, nil
}

// initReports picks the Postgres store when a DSN is configured and the
// JSONL file store otherwise.
func (a *App) initReports(ctx context.Context) error {
	if a.reports != nil {
		return nil // injected
	}

	if dsn := a.cfg.Storage.PostgresDSN; dsn != "" {
		store, err := reportpg.NewStore(ctx, dsn)
		if err != nil {
			return err
		}
		a.reports = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		return nil
	}

	dir := a.cfg.Storage.ReportsDir
	if dir == "" {
		dir = "./reports"
	}
	store, err := report.NewFileStore(dir)
	if err != nil {
		return err
	}
	a.reports = store
	slog.Info("using file-based report store", "dir", dir)
	return nil
}

// initUsers creates the account store. Accounts need Postgres; without a DSN
// the auth endpoints stay disabled.
func (a *App) initUsers(ctx context.Context) error {
	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		return nil
	}
	store, err := user.NewStore(ctx, dsn)
	if err != nil {
		return err
	}
	a.users = store
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	return nil
}

// initQuestionIndex creates the pgvector-backed semantic question index and
// seeds it with the builtin bank. Needs both an embeddings provider and a
// Postgres DSN; otherwise the similarity endpoint stays disabled.
func (a *App) initQuestionIndex(ctx context.Context) error {
	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" || a.providers.Embeddings == nil {
		return nil
	}

	// The vector column width is baked into the schema at first migration, so
	// a configured dimensionality that disagrees with the provider is an
	// operator error, not something to paper over.
	if want := a.cfg.Storage.EmbeddingDimensions; want > 0 && want != a.providers.Embeddings.Dimensions() {
		return fmt.Errorf("embedding dimensions mismatch: config says %d, provider %q produces %d",
			want, a.cfg.Providers.Embeddings.Name, a.providers.Embeddings.Dimensions())
	}

	idx, err := questionbank.NewIndex(ctx, dsn, a.providers.Embeddings)
	if err != nil {
		return err
	}
	a.questions = idx
	a.closers = append(a.closers, func() error {
		idx.Close()
		return nil
	})

	if err := idx.AddAll(ctx, questionbank.Full()); err != nil {
		slog.Warn("seeding question index failed", "err", err)
	}
	return nil
}

// instrumentedTTS wraps the configured TTS provider with a circuit breaker
// and metrics. Nil stays nil so the speech engine falls back to local
// synthesis. An open breaker surfaces as a synthesis error, which takes the
// same local path.
func (a *App) instrumentedTTS() tts.Provider {
	if a.providers.TTS == nil {
		return nil
	}
	name := a.cfg.Providers.TTS.Name
	p := resilience.NewTTSBreaker(a.providers.TTS, name, resilience.CircuitBreakerConfig{})
	return observe.InstrumentTTS(p, name, a.metrics)
}

// instrumentedAnalysis wraps the configured analysis provider with a circuit
// breaker and metrics. An open breaker reads as provider failure: the
// gateway substitutes neutral feedback and the resume endpoints report the
// backend as unavailable.
func (a *App) instrumentedAnalysis() analysisprovider.Provider {
	if a.providers.Analysis == nil {
		return nil
	}
	name := a.cfg.Providers.Analysis.Name
	p := resilience.NewAnalysisBreaker(a.providers.Analysis, name, resilience.CircuitBreakerConfig{})
	return observe.InstrumentAnalysis(p, name, a.metrics)
}

// Sessions returns the session manager.
func (a *App) Sessions() *SessionManager { return a.sessions }

// Reports returns the report store.
func (a *App) Reports() report.Store { return a.reports }

// Users returns the account store, or nil when accounts are disabled.
func (a *App) Users() *user.Store { return a.users }

// Questions returns the semantic question index, or nil when disabled.
func (a *App) Questions() *questionbank.Index { return a.questions }

// Gateway returns the answer-analysis gateway.
func (a *App) Gateway() *analysis.Gateway { return a.gateway }

// Insights returns the smart-analysis service.
func (a *App) Insights() *insight.Service { return a.insights }

// Metrics returns the metrics bundle.
func (a *App) Metrics() *observe.Metrics { return a.metrics }

// Run serves handler on the configured listen address until ctx is
// cancelled, then drains in-flight requests. TLS is used when configured.
func (a *App) Run(ctx context.Context, handler http.Handler) error {
	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tlsCfg := a.cfg.Server.TLS; tlsCfg != nil {
			slog.Info("serving https", "addr", addr)
			err = srv.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			slog.Info("serving http", "addr", addr)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(drainCtx)
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
