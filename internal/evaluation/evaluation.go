// Package evaluation rates completed interviews. Every answered question is
// scored by every panelist independently; the per-rater bands are averaged
// into a session score and an overall verdict.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/knowlumi/interview-panel/internal/ai"
	"github.com/knowlumi/interview-panel/internal/interview"
	"github.com/knowlumi/interview-panel/internal/logger"
	"github.com/knowlumi/interview-panel/internal/panel"
)

const ratingPromptTemplate = `You are %s, a %s (%s, specialty: %s).

Rate the following candidate answer to the question, from your unique professional perspective.

Question: %s
Answer: %s

Give ONLY:
1. The score band (choose one: 0-10, 10-20, ..., 90-100)
2. A brief justification (1-2 sentences) from your perspective.
Format your response as: Band: <band>
Feedback: <justification>`

// Rating is one panelist's judgement of one answer.
type Rating struct {
	Interviewer string `json:"interviewer"`
	Role        string `json:"role"`
	Band        Band   `json:"band,omitempty"`
	Feedback    string `json:"feedback"`
}

// QuestionRating groups all panelist ratings for one answered question.
type QuestionRating struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Ratings  []Rating `json:"ratings"`
}

// Report is the final evaluation of a session.
type Report struct {
	SessionID string           `json:"sessionId"`
	Candidate string           `json:"candidate"`
	Timestamp time.Time        `json:"timestamp"`
	Questions []QuestionRating `json:"questions"`
	AvgScore  float64          `json:"avgScore"`
	Verdict   string           `json:"verdict"`
}

// Store persists evaluation reports. Reports are append only.
type Store interface {
	AppendReport(ctx context.Context, report Report) error
}

// Aggregator implements the session evaluator: it fans each transcript pair
// out to every panelist, averages the band upper bounds and persists the
// resulting report.
type Aggregator struct {
	gen    ai.Generator
	panel  *panel.Panel
	store  Store
	logger *zap.Logger

	// OnReport, when set, receives the finished report after it is stored.
	OnReport func(Report)
}

// NewAggregator builds an Aggregator. The store may be nil, in which case
// reports are produced but not persisted.
func NewAggregator(gen ai.Generator, p *panel.Panel, store Store, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{
		gen:    gen,
		panel:  p,
		store:  store,
		logger: log.With(zap.String(logger.FieldModel, gen.Model())),
	}
}

// Evaluate scores a completed session. Rater failures degrade to ratings
// without a band rather than failing the report; an empty transcript yields a
// zero-score report.
func (a *Aggregator) Evaluate(ctx context.Context, session *interview.Session, transcript []interview.TranscriptPair) {
	log := a.logger.With(zap.String(logger.FieldSession, session.ID))

	report := Report{
		SessionID: session.ID,
		Candidate: session.Candidate.Name,
		Timestamp: time.Now().UTC(),
		Questions: make([]QuestionRating, 0, len(transcript)),
	}

	total, count := 0, 0
	for _, pair := range transcript {
		ratings := a.RateAnswer(ctx, pair.Question, pair.Answer)
		for _, rating := range ratings {
			if rating.Band != "" {
				total += rating.Band.Upper()
				count++
			}
		}
		report.Questions = append(report.Questions, QuestionRating{
			Question: pair.Question,
			Answer:   pair.Answer,
			Ratings:  ratings,
		})
	}

	if count > 0 {
		report.AvgScore = float64(total) / float64(count)
	}
	report.Verdict = Verdict(report.AvgScore)

	log.Info("session evaluated",
		zap.Int("rated_answers", len(report.Questions)),
		zap.Float64("avg_score", report.AvgScore),
		zap.String("verdict", report.Verdict),
	)

	if a.store != nil {
		if err := a.store.AppendReport(ctx, report); err != nil {
			log.Error("storing evaluation report", zap.Error(err))
		}
	}

	if a.OnReport != nil {
		a.OnReport(report)
	}
}

// RateAnswer collects one rating per panelist for a single answer. A rater
// whose generation call fails contributes a band-less rating carrying the
// error text as feedback.
func (a *Aggregator) RateAnswer(ctx context.Context, question, answer string) []Rating {
	personas := a.panel.Personas()
	ratings := make([]Rating, 0, len(personas))

	for _, persona := range personas {
		prompt := fmt.Sprintf(ratingPromptTemplate,
			persona.Name, persona.Role, persona.Style, persona.Specialty,
			question, answer,
		)

		rating := Rating{Interviewer: persona.Name, Role: persona.Role}

		text, err := a.gen.GenerateContent(ctx, prompt)
		if err != nil {
			a.logger.Warn("rating generation failed",
				zap.String(logger.FieldPersona, persona.Name),
				zap.Error(err),
			)
			rating.Feedback = fmt.Sprintf("rating unavailable: %v", err)
		} else {
			rating.Band, rating.Feedback = ParseRating(text)
		}

		ratings = append(ratings, rating)
	}

	return ratings
}
