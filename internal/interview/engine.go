package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/knowlumi/interview-panel/internal/panel"
	"github.com/knowlumi/interview-panel/internal/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	helpPromptText     = "If you need help, feel free to start answering or ask for clarification!"
	advanceWarningText = "No activity detected. Moving to the next question shortly..."
	noQuestionsText    = "No interview questions could be generated. Please check the resume and job description."
	followupErrorText  = "Error generating follow-up question."
)

// Config assembles everything an engine needs for one session.
type Config struct {
	Candidate     Candidate
	QuestionCount int
	Budget        time.Duration
	Timers        Timers
	Panel         *panel.Panel
	Questions     QuestionSource
	Followups     FollowupSource
	Evaluator     Evaluator
	Clock         Clock
	Logger        *zap.Logger
	Sink          Sink
}

// Engine owns a single Session and is the only mutator of it. Every
// transition runs to completion under the engine mutex; async continuations
// and timer callbacks re-check the question epoch before applying effects so
// a stale result can never corrupt a newer state.
type Engine struct {
	mu sync.Mutex

	session   *Session
	panel     *panel.Panel
	questions QuestionSource
	followups FollowupSource
	evaluator Evaluator
	clock     Clock
	logger    *zap.Logger
	sink      Sink
	timers    Timers

	questionCount int

	// epoch increments on every question entry, completion and end. Timer
	// callbacks and generation continuations capture it and bail out when
	// it has moved on.
	epoch int

	helpTimer    Timer
	warnTimer    Timer
	advanceTimer Timer
	tickTimer    Timer
	remaining    int

	started         bool
	closed          bool
	pendingFollowup bool

	finished   bool
	evalDone   bool
	transcript []TranscriptPair

	ctx context.Context
}

// New validates the configuration and builds an engine with a fresh session.
// A candidate without resume text and job description is rejected up front;
// the machine never starts without input data.
func New(cfg Config) (*Engine, error) {
	if cfg.Candidate.Empty() {
		return nil, errors.New("no resume or job description data available")
	}
	if cfg.Panel == nil || cfg.Panel.Size() == 0 {
		return nil, errors.New("an interviewer panel is required")
	}
	if cfg.Questions == nil {
		return nil, errors.New("a question source is required")
	}

	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = 5
	}
	if cfg.Clock == nil {
		cfg.Clock = NewClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sink == nil {
		cfg.Sink = SinkFunc(func(Event) {})
	}
	cfg.Timers = cfg.Timers.withDefaults()

	sessionID := uuid.NewString()

	return &Engine{
		session: &Session{
			ID:        sessionID,
			Candidate: cfg.Candidate,
			Answers:   make(map[int]*AnswerRecord),
			StartedAt: cfg.Clock.Now(),
			Budget:    cfg.Budget,
			State:     StateIntroduction,
		},
		panel:         cfg.Panel,
		questions:     cfg.Questions,
		followups:     cfg.Followups,
		evaluator:     cfg.Evaluator,
		clock:         cfg.Clock,
		logger:        cfg.Logger.With(zap.String("session_id", sessionID)),
		sink:          cfg.Sink,
		timers:        cfg.Timers,
		questionCount: cfg.QuestionCount,
		ctx:           context.Background(),
	}, nil
}

// SessionID returns the session identifier.
func (e *Engine) SessionID() string {
	return e.session.ID
}

// Start generates the question list, introduces the panel and enters the
// first question. Zero generated questions put the machine in the terminal
// no-questions state without error.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("interview already started")
	}
	e.started = true
	e.ctx = ctx
	e.mu.Unlock()

	texts, err := e.questions.Questions(ctx, e.session.Candidate, e.questionCount)
	if err != nil {
		e.mu.Lock()
		e.started = false
		e.mu.Unlock()
		return fmt.Errorf("generating questions: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrSessionOver
	}

	if len(texts) == 0 {
		e.session.State = StateNoQuestions
		e.emitLocked(Event{Type: EventNoQuestions, Text: noQuestionsText})
		return nil
	}

	e.session.Questions = make([]Question, len(texts))
	for i, text := range texts {
		e.session.Questions[i] = Question{
			ID:           i,
			Text:         text,
			PersonaIndex: i % e.panel.Size(),
		}
	}

	for _, persona := range e.panel.Personas() {
		p := persona
		e.emitLocked(Event{
			Type:    EventIntro,
			Text:    fmt.Sprintf("Hello, I'm %s, %s. %s", p.Name, p.Role, p.Intro),
			Persona: &p,
		})
	}

	e.enterQuestionLocked(0)
	return nil
}

// SubmitAnswer feeds a candidate answer into the state machine. Empty or
// whitespace-only text is a silent no-op. In the awaiting-main state a valid
// answer triggers follow-up generation (the input surface stays locked while
// the call is outstanding); in the awaiting-follow-up state it records the
// follow-up answer and advances.
func (e *Engine) SubmitAnswer(ctx context.Context, text string) error {
	err := e.submitAnswer(ctx, text)
	e.maybeEvaluate(ctx)
	return err
}

func (e *Engine) submitAnswer(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	e.mu.Lock()

	switch {
	case e.closed || e.session.State.Terminal():
		e.mu.Unlock()
		return ErrSessionOver
	case !e.started || e.session.State == StateIntroduction:
		e.mu.Unlock()
		return ErrNotStarted
	case e.pendingFollowup:
		e.mu.Unlock()
		return ErrGenerationPending
	case text == "":
		// Validation rejection: silently ignored, no state change.
		e.mu.Unlock()
		return nil
	}

	current := e.session.Current
	record := e.answerRecordLocked(current)

	if e.session.State == StateAwaitingFollowup {
		record.Followup = text
		e.advanceLocked()
		e.mu.Unlock()
		return nil
	}

	// Awaiting main answer.
	record.Main = text

	if e.followups == nil {
		e.advanceLocked()
		e.mu.Unlock()
		return nil
	}

	e.pendingFollowup = true
	pendingEpoch := e.epoch
	questionText := e.session.Questions[current].Text
	candidate := e.session.Candidate
	e.stopInactivityLocked()
	e.mu.Unlock()

	followup, genErr := e.followups.FollowUp(ctx, questionText, text, candidate)

	e.mu.Lock()
	if e.closed || e.epoch != pendingEpoch {
		// A forced transition won the race; discard the stale result.
		e.pendingFollowup = false
		e.mu.Unlock()
		return nil
	}
	e.pendingFollowup = false

	followup = sanitize.QuestionText(followup)
	if genErr != nil || followup == "" {
		// No follow-up available for this question: surface a placeholder
		// and move on so the candidate is never blocked.
		if genErr != nil {
			e.logger.Warn("follow-up generation failed",
				zap.Int("question", current),
				zap.Error(genErr),
			)
			e.emitLocked(Event{
				Type:          EventGenerationError,
				QuestionIndex: current,
				Text:          followupErrorText,
			})
		}
		e.advanceLocked()
		e.mu.Unlock()
		return nil
	}

	question := &e.session.Questions[current]
	question.HasFollowup = true
	question.FollowupText = followup
	e.session.State = StateAwaitingFollowup

	persona := e.panel.For(question.PersonaIndex)
	e.emitLocked(Event{
		Type:          EventFollowup,
		QuestionIndex: current,
		Text:          followup,
		Persona:       &persona,
	})
	e.emitLocked(Event{
		Type:          EventSpeak,
		QuestionIndex: current,
		Text:          followup,
		Persona:       &persona,
	})
	e.armInactivityLocked()
	e.mu.Unlock()
	return nil
}

// InputActivity restarts the inactivity timers. The UI surface calls it on
// every keystroke or recognized speech fragment.
func (e *Engine) InputActivity() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.pendingFollowup {
		return
	}
	if e.session.State != StateAwaitingMain && e.session.State != StateAwaitingFollowup {
		return
	}

	e.armInactivityLocked()
}

// End stops all timers and abandons the session. In-flight generation
// results are discarded on arrival.
func (e *Engine) End() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.closed = true
	e.epoch++
	e.stopTimersLocked()

	if !e.session.State.Terminal() {
		e.emitLocked(Event{Type: EventEnded, QuestionIndex: e.session.Current})
	}
}

// Snapshot returns the current progress view.
func (e *Engine) Snapshot() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

// Answer returns a copy of the answer record for a question index. The
// second return is false when no record exists yet.
func (e *Engine) Answer(index int) (AnswerRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.session.Answers[index]
	if !ok {
		return AnswerRecord{}, false
	}
	return *record, true
}

// State returns the current machine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State
}

func (e *Engine) answerRecordLocked(index int) *AnswerRecord {
	record, ok := e.session.Answers[index]
	if !ok {
		record = &AnswerRecord{}
		e.session.Answers[index] = record
	}
	return record
}

// enterQuestionLocked performs the entry side effects for question i:
// persona selection, speak directive, timer restarts and a progress update.
func (e *Engine) enterQuestionLocked(i int) {
	e.session.Current = i
	e.session.State = StateAwaitingMain
	e.epoch++

	question := e.session.Questions[i]
	persona := e.panel.For(question.PersonaIndex)

	e.emitLocked(Event{
		Type:          EventQuestion,
		QuestionIndex: i,
		Text:          question.Text,
		Persona:       &persona,
	})
	e.emitLocked(Event{
		Type:          EventSpeak,
		QuestionIndex: i,
		Text:          question.Text,
		Persona:       &persona,
	})
	e.emitProgressLocked()

	e.remaining = int(e.timers.Countdown / time.Second)
	e.armInactivityLocked()
	e.armCountdownLocked()
}

// advanceLocked moves to the next question, or completes the session when
// the last question is done or the overall time budget is spent.
func (e *Engine) advanceLocked() {
	last := e.session.Current == len(e.session.Questions)-1
	budgetSpent := e.session.Budget > 0 && e.clock.Now().Sub(e.session.StartedAt) >= e.session.Budget

	if last || budgetSpent {
		e.completeLocked()
		return
	}

	e.enterQuestionLocked(e.session.Current + 1)
}

func (e *Engine) completeLocked() {
	e.session.State = StateComplete
	e.epoch++
	e.stopTimersLocked()
	e.transcript = e.session.Transcript()
	e.finished = true

	e.emitLocked(Event{Type: EventComplete, QuestionIndex: e.session.Current})
	e.emitProgressLocked()
}

// maybeEvaluate invokes the evaluator exactly once after the session
// completed. It must be called without the engine lock held.
func (e *Engine) maybeEvaluate(ctx context.Context) {
	e.mu.Lock()
	if !e.finished || e.evalDone || e.evaluator == nil {
		e.mu.Unlock()
		return
	}
	e.evalDone = true
	session := e.session
	transcript := e.transcript
	e.mu.Unlock()

	e.evaluator.Evaluate(ctx, session, transcript)
}

func (e *Engine) progressLocked() Progress {
	statuses := make([]QuestionStatus, len(e.session.Questions))
	for i := range e.session.Questions {
		switch {
		case e.session.State == StateComplete, i < e.session.Current:
			statuses[i] = StatusAnswered
		case i == e.session.Current:
			statuses[i] = StatusCurrent
		default:
			statuses[i] = StatusLocked
		}
	}

	elapsed := int(e.clock.Now().Sub(e.session.StartedAt) / time.Second)

	return Progress{
		SessionID: e.session.ID,
		State:     e.session.State,
		Current:   e.session.Current,
		Total:     len(e.session.Questions),
		Statuses:  statuses,
		Remaining: e.remaining,
		Elapsed:   elapsed,
		Budget:    int(e.session.Budget / time.Second),
	}
}

func (e *Engine) emitProgressLocked() {
	progress := e.progressLocked()
	e.emitLocked(Event{
		Type:          EventProgress,
		QuestionIndex: e.session.Current,
		Statuses:      progress.Statuses,
		Remaining:     progress.Remaining,
	})
}

func (e *Engine) emitLocked(event Event) {
	event.SessionID = e.session.ID
	e.sink.Emit(event)
}
