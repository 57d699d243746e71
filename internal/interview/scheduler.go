package interview

import "time"

// Timers configures the per-question timing windows. The countdown is
// display only; the auto-advance window is the only timer with authority to
// force a transition.
type Timers struct {
	// HelpPrompt is the silence window before the advisory nudge.
	HelpPrompt time.Duration
	// AutoAdvance is the total-silence window before a forced advance.
	AutoAdvance time.Duration
	// WarningLead is how long before the forced advance the warning shows.
	WarningLead time.Duration
	// Countdown is the visible per-question countdown duration.
	Countdown time.Duration
}

// DefaultTimers mirrors the reference behavior: a help nudge after 10
// seconds, auto-advance after 60 seconds of silence warned 2 seconds ahead,
// and a 2 minute visible countdown.
func DefaultTimers() Timers {
	return Timers{
		HelpPrompt:  10 * time.Second,
		AutoAdvance: 60 * time.Second,
		WarningLead: 2 * time.Second,
		Countdown:   2 * time.Minute,
	}
}

func (t Timers) withDefaults() Timers {
	defaults := DefaultTimers()
	if t.HelpPrompt <= 0 {
		t.HelpPrompt = defaults.HelpPrompt
	}
	if t.AutoAdvance <= 0 {
		t.AutoAdvance = defaults.AutoAdvance
	}
	if t.WarningLead <= 0 || t.WarningLead >= t.AutoAdvance {
		t.WarningLead = defaults.WarningLead
	}
	if t.Countdown <= 0 {
		t.Countdown = defaults.Countdown
	}
	return t
}

// armInactivityLocked restarts the help-prompt and auto-advance timers for
// the current question. The previous instances are always stopped first, so
// at most one of each is live and a restart grants the full window again.
func (e *Engine) armInactivityLocked() {
	e.stopInactivityLocked()

	epoch := e.epoch

	e.helpTimer = e.clock.AfterFunc(e.timers.HelpPrompt, func() {
		e.helpPromptFired(epoch)
	})
	e.warnTimer = e.clock.AfterFunc(e.timers.AutoAdvance-e.timers.WarningLead, func() {
		e.advanceWarningFired(epoch)
	})
	e.advanceTimer = e.clock.AfterFunc(e.timers.AutoAdvance, func() {
		e.autoAdvanceFired(epoch)
	})
}

func (e *Engine) armCountdownLocked() {
	if e.tickTimer != nil {
		e.tickTimer.Stop()
	}

	epoch := e.epoch
	e.tickTimer = e.clock.AfterFunc(time.Second, func() {
		e.countdownTicked(epoch)
	})
}

func (e *Engine) stopInactivityLocked() {
	for _, t := range []Timer{e.helpTimer, e.warnTimer, e.advanceTimer} {
		if t != nil {
			t.Stop()
		}
	}
	e.helpTimer, e.warnTimer, e.advanceTimer = nil, nil, nil
}

func (e *Engine) stopTimersLocked() {
	e.stopInactivityLocked()
	if e.tickTimer != nil {
		e.tickTimer.Stop()
		e.tickTimer = nil
	}
}

// currentSlotAnsweredLocked reports whether the active answer slot (main or
// follow-up, depending on state) holds a valid answer.
func (e *Engine) currentSlotAnsweredLocked() bool {
	record, ok := e.session.Answers[e.session.Current]
	if !ok {
		return false
	}
	if e.session.State == StateAwaitingFollowup {
		return record.Followup != ""
	}
	return record.Main != ""
}

func (e *Engine) helpPromptFired(epoch int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.epoch != epoch {
		return
	}
	if e.currentSlotAnsweredLocked() {
		return
	}

	e.emitLocked(Event{
		Type:          EventHelpPrompt,
		QuestionIndex: e.session.Current,
		Text:          helpPromptText,
	})
}

func (e *Engine) advanceWarningFired(epoch int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.epoch != epoch {
		return
	}
	if e.currentSlotAnsweredLocked() {
		return
	}

	e.emitLocked(Event{
		Type:          EventAdvanceWarning,
		QuestionIndex: e.session.Current,
		Text:          advanceWarningText,
	})
}

// autoAdvanceFired is the forced-transition path: the inactivity window
// elapsed with no valid answer in the active slot, so an empty answer is
// stored and the session moves on.
func (e *Engine) autoAdvanceFired(epoch int) {
	e.mu.Lock()

	if e.closed || e.epoch != epoch {
		e.mu.Unlock()
		return
	}
	if e.currentSlotAnsweredLocked() {
		e.mu.Unlock()
		return
	}

	// Ensure the skipped slot exists, holding an empty answer.
	e.answerRecordLocked(e.session.Current)

	e.emitLocked(Event{
		Type:          EventAutoAdvance,
		QuestionIndex: e.session.Current,
	})
	e.advanceLocked()
	e.mu.Unlock()

	e.maybeEvaluate(e.ctx)
}

func (e *Engine) countdownTicked(epoch int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.epoch != epoch || e.remaining <= 0 {
		return
	}

	e.remaining--
	e.emitLocked(Event{
		Type:          EventCountdown,
		QuestionIndex: e.session.Current,
		Remaining:     e.remaining,
	})

	// Display only: the countdown reaching zero never forces a transition.
	if e.remaining > 0 {
		e.armCountdownLocked()
	}
}
