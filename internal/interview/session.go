// Package interview implements the progression state machine that drives a
// panel interview session: question sequencing, follow-up sub-states,
// inactivity timers and forced advancement.
package interview

import (
	"context"
	"errors"
	"time"
)

// State identifies where a session is in its progression.
type State string

const (
	// StateIntroduction is the initial state, before question 0, while the
	// panel introduces itself.
	StateIntroduction State = "introduction"
	// StateAwaitingMain means the current question has been asked and the
	// candidate has not yet submitted a valid main answer.
	StateAwaitingMain State = "awaiting_main"
	// StateAwaitingFollowup means a follow-up question has been generated
	// for the current question and awaits its answer.
	StateAwaitingFollowup State = "awaiting_followup"
	// StateComplete is terminal; no further answers are accepted.
	StateComplete State = "complete"
	// StateNoQuestions is terminal and entered when question generation
	// produced nothing to ask.
	StateNoQuestions State = "no_questions"
)

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateNoQuestions
}

var (
	// ErrSessionOver is returned when input arrives after the session
	// reached a terminal state.
	ErrSessionOver = errors.New("interview session is over")
	// ErrGenerationPending is returned when input arrives while a follow-up
	// generation call is outstanding; the input surface is supposed to be
	// disabled during that window.
	ErrGenerationPending = errors.New("generation in progress")
	// ErrNotStarted is returned for input before Start was called.
	ErrNotStarted = errors.New("interview has not started")
)

// Candidate is the triple produced by résumé ingestion. The engine only
// consumes it; parsing uploaded documents happens elsewhere.
type Candidate struct {
	Name           string `json:"name"`
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText"`
}

// Empty reports whether the candidate carries no usable interview context.
func (c Candidate) Empty() bool {
	return c.JobDescription == "" && c.ResumeText == ""
}

// Question is one generated main question, immutable once generated except
// for FollowupText which is populated lazily after the first answer.
type Question struct {
	ID           int    `json:"id"`
	Text         string `json:"text"`
	PersonaIndex int    `json:"personaIndex"`
	HasFollowup  bool   `json:"hasFollowup"`
	FollowupText string `json:"followupText,omitempty"`
}

// AnswerRecord stores the candidate's answers for one question. Main is
// written once on submission; Followup may be appended while the session is
// in the awaiting-follow-up state for that question.
type AnswerRecord struct {
	Main     string `json:"main"`
	Followup string `json:"followup,omitempty"`
}

// TranscriptPair is one question/answer pair handed to the evaluator.
type TranscriptPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionStatus is the per-question progress indicator consumed by the UI
// surface: answered, current or locked.
type QuestionStatus string

const (
	StatusAnswered QuestionStatus = "answered"
	StatusCurrent  QuestionStatus = "current"
	StatusLocked   QuestionStatus = "locked"
)

// Session is the single owned progression object. It is mutated only by the
// engine's transition methods.
type Session struct {
	ID        string
	Candidate Candidate
	Questions []Question
	Current   int
	Answers   map[int]*AnswerRecord
	StartedAt time.Time
	Budget    time.Duration
	State     State
}

// Transcript returns the main question/answer pairs with non-empty answers,
// in question order. Follow-up exchanges are deliberately excluded from
// scoring; they exist to probe, not to be graded separately.
func (s *Session) Transcript() []TranscriptPair {
	pairs := make([]TranscriptPair, 0, len(s.Questions))
	for _, q := range s.Questions {
		record, ok := s.Answers[q.ID]
		if !ok || record.Main == "" {
			continue
		}
		pairs = append(pairs, TranscriptPair{Question: q.Text, Answer: record.Main})
	}
	return pairs
}

// Progress is a read-only snapshot of session state for the UI surface.
type Progress struct {
	SessionID string           `json:"sessionId"`
	State     State            `json:"state"`
	Current   int              `json:"current"`
	Total     int              `json:"total"`
	Statuses  []QuestionStatus `json:"statuses"`
	Remaining int              `json:"remainingSeconds"`
	Elapsed   int              `json:"elapsedSeconds"`
	Budget    int              `json:"budgetSeconds"`
}

// QuestionSource produces the ordered question list for a session.
type QuestionSource interface {
	Questions(ctx context.Context, candidate Candidate, count int) ([]string, error)
}

// FollowupSource generates a follow-up question from a main question and the
// candidate's answer to it.
type FollowupSource interface {
	FollowUp(ctx context.Context, question, answer string, candidate Candidate) (string, error)
}

// Evaluator scores the finished transcript. The engine invokes it exactly
// once, on entering the complete state.
type Evaluator interface {
	Evaluate(ctx context.Context, session *Session, transcript []TranscriptPair)
}
