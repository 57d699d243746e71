package interview

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHelpPromptFiresAfterSilence(t *testing.T) {
	fx := newFixture(t, []string{"Q1?", "Q2?"}, &stubFollowups{})

	if err := fx.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	fx.clock.Advance(9 * time.Second)
	if events := fx.recorder.ofType(EventHelpPrompt); len(events) != 0 {
		t.Fatalf("help prompt fired early: %+v", events)
	}

	fx.clock.Advance(time.Second)
	events := fx.recorder.ofType(EventHelpPrompt)
	if len(events) != 1 || events[0].Text != helpPromptText {
		t.Fatalf("expected one help prompt, got %+v", events)
	}
}

func TestValidAnswerSuppressesInactivityTimers(t *testing.T) {
	followups := &stubFollowups{responses: []string{"And then?"}}
	fx := newFixture(t, []string{"Q1?", "Q2?"}, followups)
	ctx := context.Background()

	if err := fx.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := fx.engine.SubmitAnswer(ctx, "an actual answer"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The follow-up re-armed the window; drain the main question's original
	// deadlines plus most of the follow-up's own window.
	fx.clock.Advance(59 * time.Second)

	if events := fx.recorder.ofType(EventAutoAdvance); len(events) != 0 {
		t.Fatalf("auto-advance fired despite valid answer: %+v", events)
	}
	if fx.engine.Snapshot().Current != 0 {
		t.Fatalf("question index moved without an answer or timeout")
	}
}

func TestAutoAdvanceFiresOnlyAfterFullSilenceWindow(t *testing.T) {
	fx := newFixture(t, []string{"Q1?", "Q2?"}, &stubFollowups{})
	ctx := context.Background()

	if err := fx.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	fx.clock.Advance(58 * time.Second)
	warnings := fx.recorder.ofType(EventAdvanceWarning)
	if len(warnings) != 1 || warnings[0].Text != advanceWarningText {
		t.Fatalf("expected one advance warning at 58s, got %+v", warnings)
	}
	if events := fx.recorder.ofType(EventAutoAdvance); len(events) != 0 {
		t.Fatalf("auto-advance fired before the window elapsed: %+v", events)
	}

	fx.clock.Advance(2 * time.Second)
	events := fx.recorder.ofType(EventAutoAdvance)
	if len(events) != 1 || events[0].QuestionIndex != 0 {
		t.Fatalf("expected auto-advance on question 0, got %+v", events)
	}

	snapshot := fx.engine.Snapshot()
	if snapshot.Current != 1 || snapshot.State != StateAwaitingMain {
		t.Fatalf("expected question 1 after auto-advance, got %+v", snapshot)
	}

	// The skipped slot holds an empty answer and stays out of the transcript.
	record, ok := fx.engine.Answer(0)
	if !ok || record.Main != "" {
		t.Fatalf("expected empty answer record for skipped question, got %+v", record)
	}
}

func TestInputActivityRestartsFullWindow(t *testing.T) {
	fx := newFixture(t, []string{"Q1?", "Q2?"}, &stubFollowups{})
	ctx := context.Background()

	if err := fx.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 50 seconds of silence, then typing: the window restarts in full.
	fx.clock.Advance(50 * time.Second)
	fx.engine.InputActivity()

	fx.clock.Advance(59 * time.Second)
	if events := fx.recorder.ofType(EventAutoAdvance); len(events) != 0 {
		t.Fatalf("auto-advance did not get a fresh window: %+v", events)
	}

	fx.clock.Advance(time.Second)
	if events := fx.recorder.ofType(EventAutoAdvance); len(events) != 1 {
		t.Fatalf("expected auto-advance after restarted window, got %+v", events)
	}
}

func TestAutoAdvanceThroughEverySlotCompletesAndEvaluatesOnce(t *testing.T) {
	fx := newFixture(t, []string{"Q1?", "Q2?"}, &stubFollowups{})
	ctx := context.Background()

	if err := fx.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Each auto-advance arms the next question's timers, so one long advance
	// walks the whole interview.
	fx.clock.Advance(5 * time.Minute)

	if state := fx.engine.State(); state != StateComplete {
		t.Fatalf("expected complete after auto-advancing every question, got %s", state)
	}
	if events := fx.recorder.ofType(EventAutoAdvance); len(events) != 2 {
		t.Fatalf("expected 2 auto-advance events, got %d", len(events))
	}
	if events := fx.recorder.ofType(EventComplete); len(events) != 1 {
		t.Fatalf("expected one complete event, got %d", len(events))
	}
	if fx.evaluator.calls != 1 {
		t.Fatalf("expected exactly one evaluation, got %d", fx.evaluator.calls)
	}
	if transcript := fx.evaluator.transcripts[0]; len(transcript) != 0 {
		t.Fatalf("skipped questions must not enter the transcript, got %+v", transcript)
	}
}

func TestFollowupSilenceAutoAdvances(t *testing.T) {
	followups := &stubFollowups{responses: []string{"Could you go deeper?"}}
	fx := newFixture(t, []string{"Q1?", "Q2?"}, followups)
	ctx := context.Background()

	if err := fx.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := fx.engine.SubmitAnswer(ctx, "main answer"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state := fx.engine.State(); state != StateAwaitingFollowup {
		t.Fatalf("expected awaiting_followup, got %s", state)
	}

	fx.clock.Advance(time.Minute)

	snapshot := fx.engine.Snapshot()
	if snapshot.Current != 1 || snapshot.State != StateAwaitingMain {
		t.Fatalf("expected question 1 after follow-up silence, got %+v", snapshot)
	}

	// The main answer survives; only the follow-up slot stayed empty.
	record, ok := fx.engine.Answer(0)
	if !ok || record.Main != "main answer" || record.Followup != "" {
		t.Fatalf("unexpected answer record: %+v", record)
	}
}

func TestCountdownTicksWithoutForcingTransition(t *testing.T) {
	clock := newFakeClock()
	recorder := &eventRecorder{}

	engine, err := New(Config{
		Candidate:     testCandidate,
		QuestionCount: 1,
		Panel:         twoPersonaPanel(t),
		Questions:     &stubQuestions{questions: []string{"Q1?"}},
		Followups:     &stubFollowups{errs: []error{errors.New("none")}},
		Clock:         clock,
		Sink:          recorder,
		Timers: Timers{
			HelpPrompt:  time.Hour,
			AutoAdvance: 2 * time.Hour,
			WarningLead: time.Minute,
			Countdown:   5 * time.Second,
		},
	})
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(3 * time.Second)
	ticks := recorder.ofType(EventCountdown)
	if len(ticks) != 3 {
		t.Fatalf("expected 3 countdown ticks, got %d", len(ticks))
	}
	if ticks[2].Remaining != 2 {
		t.Fatalf("expected 2 seconds remaining, got %d", ticks[2].Remaining)
	}

	// Run the countdown to zero and well past it.
	clock.Advance(time.Minute)
	ticks = recorder.ofType(EventCountdown)
	if last := ticks[len(ticks)-1]; last.Remaining != 0 {
		t.Fatalf("countdown must stop at zero, got %d", last.Remaining)
	}
	if state := engine.State(); state != StateAwaitingMain {
		t.Fatalf("countdown expiry must not advance the session, got %s", state)
	}
}

func TestTimerFromPreviousQuestionIsIgnored(t *testing.T) {
	followups := &stubFollowups{errs: []error{errors.New("none"), errors.New("none")}}
	fx := newFixture(t, []string{"Q1?", "Q2?"}, followups)
	ctx := context.Background()

	if err := fx.engine.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Answer at 59s, one second before the forced advance.
	fx.clock.Advance(59 * time.Second)
	if err := fx.engine.SubmitAnswer(ctx, "just in time"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fx.engine.Snapshot().Current != 1 {
		t.Fatalf("expected question 1, got %d", fx.engine.Snapshot().Current)
	}

	// The old question's deadline passes; question 1 must not be skipped.
	fx.clock.Advance(time.Second)
	if events := fx.recorder.ofType(EventAutoAdvance); len(events) != 0 {
		t.Fatalf("stale timer advanced the session: %+v", events)
	}

	autoAdvance := fx.recorder.ofType(EventQuestion)
	if len(autoAdvance) != 2 {
		t.Fatalf("expected exactly 2 question events, got %d", len(autoAdvance))
	}
}
