package interview

import "github.com/knowlumi/interview-panel/internal/panel"

// EventType enumerates everything the engine tells the rendering surface.
type EventType string

const (
	// EventIntro carries one panelist's introduction, emitted once per
	// persona before question 0.
	EventIntro EventType = "intro"
	// EventQuestion announces the current main question.
	EventQuestion EventType = "question"
	// EventFollowup announces a generated follow-up question.
	EventFollowup EventType = "followup"
	// EventSpeak asks the speech surface to utter cleaned text with the
	// persona's voice parameters. Fire and forget; the surface reports
	// utterance end only to hide its speaking indicator.
	EventSpeak EventType = "speak"
	// EventHelpPrompt is the advisory "need help?" nudge after a silence
	// window. It never advances state.
	EventHelpPrompt EventType = "help_prompt"
	// EventAdvanceWarning precedes a forced auto-advance by the configured
	// warning lead.
	EventAdvanceWarning EventType = "advance_warning"
	// EventAutoAdvance reports that the inactivity window elapsed and the
	// session was force-advanced with an empty answer.
	EventAutoAdvance EventType = "auto_advance"
	// EventProgress carries a fresh per-question status snapshot.
	EventProgress EventType = "progress"
	// EventCountdown is the visible per-question countdown tick. Display
	// only; expiry never forces a transition.
	EventCountdown EventType = "countdown"
	// EventGenerationError surfaces an upstream generation failure as
	// inline text. A failed follow-up skips straight to the next question.
	EventGenerationError EventType = "generation_error"
	// EventNoQuestions reports the terminal no-questions state.
	EventNoQuestions EventType = "no_questions"
	// EventComplete reports the terminal complete state.
	EventComplete EventType = "complete"
	// EventEnded reports that the session was ended by the candidate.
	EventEnded EventType = "ended"
)

// Event is a single notification from the engine to whatever renders it.
type Event struct {
	Type          EventType        `json:"type"`
	SessionID     string           `json:"sessionId"`
	QuestionIndex int              `json:"questionIndex"`
	Text          string           `json:"text,omitempty"`
	Persona       *panel.Persona   `json:"persona,omitempty"`
	Statuses      []QuestionStatus `json:"statuses,omitempty"`
	Remaining     int              `json:"remainingSeconds,omitempty"`
}

// Sink receives engine events. Implementations must not call back into the
// engine from Emit; the engine may hold its lock while emitting.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }
