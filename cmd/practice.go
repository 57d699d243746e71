package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/knowlumi/interview-panel/internal/evaluation"
	"github.com/knowlumi/interview-panel/internal/history"
	"github.com/knowlumi/interview-panel/internal/interview"
	"github.com/knowlumi/interview-panel/internal/logger"
	"github.com/knowlumi/interview-panel/internal/questions"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowReport = "Show the full report"
	PromptExit       = "Exit"
)

var finishPrompt = promptui.Select{
	Label: "Interview complete",
	Items: []string{PromptShowReport, PromptExit},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a practice interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		practice(cmd)
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("name", "n", "", "candidate name")
	practiceCmd.Flags().StringP("resume-file", "r", "", "file with the candidate resume text")
	practiceCmd.Flags().StringP("jobdesc-file", "J", "", "file with the job description")
	practiceCmd.Flags().IntP("questions", "q", 0, "number of questions to ask")
}

// practice runs a whole interview at the terminal: questions are printed as
// the panel asks them and every answer is typed at a prompt. Inactivity
// timers make no sense against a blocking prompt, so they are stretched far
// beyond any typing pause; the session budget still applies.
func practice(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	candidate, err := resolveCandidate(cmd)
	if err != nil {
		logger.Fatal("reading candidate data", zap.Error(err))
	}

	generator, err := buildGenerator(ctx, config, logger)
	if err != nil {
		logger.Fatal(
			"building the generation client",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	interviewers, err := buildPanel(config)
	if err != nil {
		logger.Fatal("loading the interviewer panel", zap.Error(err))
	}

	store, err := history.Open(firstNonEmpty(config.HistoryFile, history.DefaultPath()))
	if err != nil {
		logger.Fatal("opening the history store", zap.Error(err))
	}
	defer store.Close()

	loader := questions.NewLoader(generator, interviewers, logger)

	var report *evaluation.Report
	aggregator := evaluation.NewAggregator(generator, interviewers, store, logger)
	aggregator.OnReport = func(r evaluation.Report) { report = &r }

	count := questionCount(config)
	if flagged, _ := cmd.Flags().GetInt("questions"); flagged > 0 {
		count = flagged
	}

	engine, err := interview.New(interview.Config{
		Candidate:     candidate,
		QuestionCount: count,
		Budget:        interviewBudget(config),
		Timers: interview.Timers{
			HelpPrompt:  24 * time.Hour,
			AutoAdvance: 48 * time.Hour,
			WarningLead: time.Hour,
			Countdown:   time.Hour,
		},
		Panel:     interviewers,
		Questions: loader,
		Followups: loader,
		Evaluator: aggregator,
		Logger:    logger,
		Sink:      interview.SinkFunc(printEvent),
	})
	if err != nil {
		logger.Fatal("preparing the interview", zap.Error(err))
	}

	fmt.Println("Generating your interview questions...")
	if err := engine.Start(ctx); err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}

	answerPrompt := promptui.Prompt{Label: "Your answer"}
	for !engine.State().Terminal() {
		answer, err := answerPrompt.Run()
		if err != nil {
			engine.End()
			logger.Info("exiting", zap.String("reason", "interview abandoned"))
			return
		}
		if err := engine.SubmitAnswer(ctx, answer); err != nil {
			break
		}
	}

	if engine.State() != interview.StateComplete || report == nil {
		return
	}

	fmt.Printf("\nAverage score: %.1f\nVerdict: %s\n\n", report.AvgScore, report.Verdict)

	_, action, err := finishPrompt.Run()
	if err != nil || action != PromptShowReport {
		return
	}

	pretty, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(pretty))
}

// printEvent renders engine events for the terminal.
func printEvent(e interview.Event) {
	switch e.Type {
	case interview.EventIntro:
		fmt.Printf("\n%s\n", e.Text)
	case interview.EventQuestion:
		fmt.Printf("\n[%s] Question %d: %s\n", e.Persona.Name, e.QuestionIndex+1, e.Text)
	case interview.EventFollowup:
		fmt.Printf("\n[%s] Follow-up: %s\n", e.Persona.Name, e.Text)
	case interview.EventGenerationError, interview.EventHelpPrompt, interview.EventAdvanceWarning:
		fmt.Printf("\n%s\n", e.Text)
	case interview.EventNoQuestions:
		fmt.Printf("\n%s\n", e.Text)
	case interview.EventComplete:
		fmt.Println("\nThat was the last question. The panel is preparing your evaluation...")
	}
}

func resolveCandidate(cmd *cobra.Command) (interview.Candidate, error) {
	name, _ := cmd.Flags().GetString("name")
	resumeFile, _ := cmd.Flags().GetString("resume-file")
	jobdescFile, _ := cmd.Flags().GetString("jobdesc-file")

	candidate := interview.Candidate{Name: strings.TrimSpace(name)}

	if resumeFile != "" {
		text, err := os.ReadFile(resumeFile)
		if err != nil {
			return candidate, fmt.Errorf("reading resume: %w", err)
		}
		candidate.ResumeText = strings.TrimSpace(string(text))
	}
	if jobdescFile != "" {
		text, err := os.ReadFile(jobdescFile)
		if err != nil {
			return candidate, fmt.Errorf("reading job description: %w", err)
		}
		candidate.JobDescription = strings.TrimSpace(string(text))
	}

	return candidate, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
