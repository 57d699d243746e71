// Package questions turns a candidate profile into persona-voiced interview
// questions through a text generator.
package questions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/knowlumi/interview-panel/internal/ai"
	"github.com/knowlumi/interview-panel/internal/interview"
	"github.com/knowlumi/interview-panel/internal/logger"
	"github.com/knowlumi/interview-panel/internal/panel"
	"github.com/knowlumi/interview-panel/internal/sanitize"
)

const questionPromptTemplate = `You are simulating a real Indian technical interview panel. You are currently acting as %s, %s, who is %s (specialty: %s).

Given the following candidate resume and job description, generate the next interview question (number %d) that is highly relevant to the candidate's background and the job requirements. Make it specific, context-aware, and from your unique perspective. Do not repeat previous questions. Do not provide feedback or commentary, only the question as it would be spoken aloud.

Resume: %s
Job Description: %s`

const followupPromptTemplate = `Given the following main interview question and the candidate's answer, generate a realistic follow-up question that a human interviewer would ask to dig deeper or clarify, based on this answer. Return only the follow-up question as a string.

Main question: %s
Candidate's answer: %s
Job Description: %s
Resume: %s`

// Loader generates main and follow-up questions. One generation call per
// question, voiced by the persona the rotation assigns to that slot.
type Loader struct {
	gen    ai.Generator
	panel  *panel.Panel
	logger *zap.Logger
}

// NewLoader builds a Loader on top of a generator and a panel.
func NewLoader(gen ai.Generator, p *panel.Panel, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		gen:    gen,
		panel:  p,
		logger: log.With(zap.String(logger.FieldModel, gen.Model())),
	}
}

// Questions generates count interview questions for the candidate. Each slot
// is prompted in the voice of its rotation persona; earlier questions are
// passed back in so the model does not repeat itself. A generation failure on
// any slot fails the whole list.
func (l *Loader) Questions(ctx context.Context, candidate interview.Candidate, count int) ([]string, error) {
	questions := make([]string, 0, count)

	for i := 0; i < count; i++ {
		persona := l.panel.For(i)

		prompt := fmt.Sprintf(questionPromptTemplate,
			persona.Name, persona.Role, persona.Style, persona.Specialty,
			i+1,
			candidate.ResumeText, candidate.JobDescription,
		)
		if len(questions) > 0 {
			prompt += "\n\nPrevious questions:\n" + numberedList(questions)
		}

		l.logger.Debug("generating interview question",
			zap.Int("index", i),
			zap.String(logger.FieldPersona, persona.Name),
		)

		raw, err := l.gen.GenerateContent(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("generating question %d: %w", i+1, err)
		}

		question := sanitize.QuestionText(raw)
		if question == "" {
			l.logger.Warn("generator returned an empty question", zap.Int("index", i))
			continue
		}
		questions = append(questions, question)
	}

	return questions, nil
}

// FollowUp generates a follow-up question for an answered main question. The
// caller treats an empty result as "no follow-up available".
func (l *Loader) FollowUp(ctx context.Context, question, answer string, candidate interview.Candidate) (string, error) {
	prompt := fmt.Sprintf(followupPromptTemplate,
		question, answer,
		candidate.JobDescription, candidate.ResumeText,
	)

	raw, err := l.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating follow-up: %w", err)
	}

	return sanitize.QuestionText(raw), nil
}

func numberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}
