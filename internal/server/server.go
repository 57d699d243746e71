// Package server exposes the interview engine over HTTP. State-changing
// calls go through a small JSON API; the event stream each session produces
// is delivered over a websocket.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/knowlumi/interview-panel/internal/ai"
	"github.com/knowlumi/interview-panel/internal/evaluation"
	"github.com/knowlumi/interview-panel/internal/interview"
	"github.com/knowlumi/interview-panel/internal/panel"
	"github.com/knowlumi/interview-panel/internal/questions"
)

// ReportLog is the persistence surface the server needs for evaluation
// reports.
type ReportLog interface {
	AppendReport(ctx context.Context, report evaluation.Report) error
	ListReports(ctx context.Context, limit int) ([]evaluation.Report, error)
	SessionReport(ctx context.Context, sessionID string) (*evaluation.Report, error)
}

// Config carries the server dependencies.
type Config struct {
	Generator     ai.Generator
	Panel         *panel.Panel
	Reports       ReportLog
	QuestionCount int
	Budget        time.Duration
	Timers        interview.Timers
	Logger        *zap.Logger
}

// Server owns the live sessions and the HTTP surface over them.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	rater    *evaluation.Aggregator
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	engine *interview.Engine
	hub    *hub
}

// New builds a Server from its dependencies.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Panel == nil {
		cfg.Panel = panel.Default()
	}

	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		rater:  evaluation.NewAggregator(cfg.Generator, cfg.Panel, nil, cfg.Logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*liveSession),
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(s.logger))
	r.Use(Recovery(s.logger))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/answer", s.submitAnswer)
			r.Post("/input", s.inputActivity)
			r.Post("/end", s.endSession)
			r.Get("/events", s.events)
			r.Get("/report", s.sessionReport)
		})
		r.Post("/rate", s.rateAnswer)
		r.Get("/history", s.listHistory)
	})

	return r
}

// newSession builds an engine plus event hub for one candidate and registers
// it. The engine is not started yet.
func (s *Server) newSession(candidate interview.Candidate) (*liveSession, error) {
	sessionLog := s.logger

	h := newHub(sessionLog)
	loader := questions.NewLoader(s.cfg.Generator, s.cfg.Panel, sessionLog)

	var store evaluation.Store
	if s.cfg.Reports != nil {
		store = s.cfg.Reports
	}
	agg := evaluation.NewAggregator(s.cfg.Generator, s.cfg.Panel, store, sessionLog)
	agg.OnReport = func(report evaluation.Report) {
		h.broadcast(reportMessage{Type: "report", SessionID: report.SessionID, Report: report})
		// The report is the last frame a session ever produces.
		s.removeSession(report.SessionID)
	}

	engine, err := interview.New(interview.Config{
		Candidate:     candidate,
		QuestionCount: s.cfg.QuestionCount,
		Budget:        s.cfg.Budget,
		Timers:        s.cfg.Timers,
		Panel:         s.cfg.Panel,
		Questions:     loader,
		Followups:     loader,
		Evaluator:     asyncEvaluator{inner: agg},
		Logger:        sessionLog,
		Sink:          h,
	})
	if err != nil {
		return nil, err
	}

	live := &liveSession{engine: engine, hub: h}

	s.mu.Lock()
	s.sessions[engine.SessionID()] = live
	s.mu.Unlock()

	return live, nil
}

func (s *Server) session(id string) (*liveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.sessions[id]
	return live, ok
}

// removeSession evicts a finished session from the registry and tears down
// its event stream.
func (s *Server) removeSession(id string) {
	s.mu.Lock()
	live, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		live.hub.close()
	}
}

// reportMessage is the websocket frame carrying a finished evaluation.
type reportMessage struct {
	Type      string            `json:"type"`
	SessionID string            `json:"sessionId"`
	Report    evaluation.Report `json:"report"`
}

// asyncEvaluator runs the evaluation off the request goroutine so the final
// answer call returns as soon as the session completes.
type asyncEvaluator struct {
	inner interview.Evaluator
}

func (a asyncEvaluator) Evaluate(ctx context.Context, session *interview.Session, transcript []interview.TranscriptPair) {
	go a.inner.Evaluate(ctx, session, transcript)
}
