package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/knowlumi/interview-panel/internal/interview"
)

type createSessionRequest struct {
	Name           string `json:"name"`
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText"`
}

type createSessionResponse struct {
	SessionID string             `json:"sessionId"`
	Progress  interview.Progress `json:"progress"`
}

type answerRequest struct {
	Text string `json:"text"`
}

type rateRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createSession handles POST /api/sessions. Question generation runs before
// the response, so a created session is already on its first question; its
// intro and question events wait in the hub backlog for the first websocket
// subscriber.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	candidate := interview.Candidate{
		Name:           req.Name,
		JobDescription: req.JobDescription,
		ResumeText:     req.ResumeText,
	}

	live, err := s.newSession(candidate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The engine outlives this request; timers and the deferred evaluation
	// must not die with the request context.
	if err := live.engine.Start(context.Background()); err != nil {
		s.logger.Error("starting session", zap.Error(err))
		writeError(w, http.StatusBadGateway, "question generation failed")
		return
	}

	progress := live.engine.Snapshot()
	if progress.State == interview.StateNoQuestions {
		// Born terminal: nothing will ever flow to this session again.
		s.removeSession(live.engine.SessionID())
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: live.engine.SessionID(),
		Progress:  progress,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	live, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, live.engine.Snapshot())
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	live, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := live.engine.SubmitAnswer(context.Background(), req.Text)
	switch {
	case errors.Is(err, interview.ErrSessionOver):
		writeError(w, http.StatusConflict, "session is over")
		return
	case errors.Is(err, interview.ErrNotStarted):
		writeError(w, http.StatusConflict, "session has not started")
		return
	case errors.Is(err, interview.ErrGenerationPending):
		writeError(w, http.StatusConflict, "a follow-up is being generated")
		return
	case err != nil:
		s.logger.Error("submitting answer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, live.engine.Snapshot())
}

func (s *Server) inputActivity(w http.ResponseWriter, r *http.Request) {
	live, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	live.engine.InputActivity()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	live, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	live.engine.End()
	s.removeSession(live.engine.SessionID())
	w.WriteHeader(http.StatusNoContent)
}

// events handles GET /api/sessions/{id}/events: it upgrades to a websocket
// and streams the session's events, starting with a replay of everything
// emitted so far.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	live, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	live.hub.register(conn)

	// Drain client frames so pings are answered and closure is noticed.
	go func() {
		defer live.hub.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) sessionReport(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Reports == nil {
		writeError(w, http.StatusNotFound, "history is not configured")
		return
	}

	report, err := s.cfg.Reports.SessionReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Error("loading session report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no report for session")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// rateAnswer handles POST /api/rate: an ad-hoc rating of one question and
// answer pair by the full panel, outside any session.
func (s *Server) rateAnswer(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" || req.Answer == "" {
		writeError(w, http.StatusBadRequest, "question and answer are required")
		return
	}

	ratings := s.rater.RateAnswer(r.Context(), req.Question, req.Answer)
	writeJSON(w, http.StatusOK, map[string]any{"ratings": ratings})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Reports == nil {
		writeError(w, http.StatusNotFound, "history is not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	reports, err := s.cfg.Reports.ListReports(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}
