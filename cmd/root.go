package cmd

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/knowlumi/interview-panel/internal/ai/gemini"
	"github.com/knowlumi/interview-panel/internal/interview"
	"github.com/knowlumi/interview-panel/internal/panel"
	"github.com/knowlumi/interview-panel/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "interview-panel"
)

type Config struct {
	Listen      string           `mapstructure:"listen"`
	HistoryFile string           `mapstructure:"history-file"`
	Interview   *InterviewConfig `mapstructure:"interview"`
	Panel       *PanelConfig     `mapstructure:"panel"`
	AI          *AIConfig        `mapstructure:"ai"`
}

type InterviewConfig struct {
	Questions          int `mapstructure:"questions"`
	BudgetMinutes      int `mapstructure:"budget-minutes"`
	HelpPromptSeconds  int `mapstructure:"help-prompt-seconds"`
	AutoAdvanceSeconds int `mapstructure:"auto-advance-seconds"`
	WarningLeadSeconds int `mapstructure:"warning-lead-seconds"`
	CountdownSeconds   int `mapstructure:"countdown-seconds"`
}

type PanelConfig struct {
	File string `mapstructure:"file"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-panel simulates a multi-interviewer technical job interview driven by a generation model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-panel.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional: flags, env and defaults cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	return config, nil
}

func resolveAPIKey(config *Config) (string, error) {
	var value, file string
	if config.AI != nil && config.AI.Gemini != nil {
		value = strings.TrimSpace(config.AI.Gemini.APIKey)
		file = strings.TrimSpace(config.AI.Gemini.APIKeyFile)
	}
	if file == "" {
		file = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	return secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: value,
		File:  file,
		Hint:  "set ai.gemini.api-key or GEMINI_API_KEY_FILE",
	})
}

func buildGenerator(ctx context.Context, config *Config, logger *zap.Logger) (*gemini.Generator, error) {
	apiKey, err := resolveAPIKey(config)
	if err != nil {
		return nil, err
	}

	var model string
	maxRetries, maxLogLength := 0, 0
	if config.AI != nil && config.AI.Gemini != nil {
		model = config.AI.Gemini.Model
		maxRetries = config.AI.Gemini.MaxRetries
		maxLogLength = config.AI.Gemini.MaxLogLength
	}

	return gemini.NewGenerator(ctx, apiKey, model, maxRetries, maxLogLength, logger)
}

func buildPanel(config *Config) (*panel.Panel, error) {
	if config.Panel != nil && config.Panel.File != "" {
		return panel.Load(config.Panel.File)
	}
	return panel.Default(), nil
}

func interviewTimers(config *Config) interview.Timers {
	timers := interview.Timers{}
	if config.Interview == nil {
		return timers
	}
	timers.HelpPrompt = time.Duration(config.Interview.HelpPromptSeconds) * time.Second
	timers.AutoAdvance = time.Duration(config.Interview.AutoAdvanceSeconds) * time.Second
	timers.WarningLead = time.Duration(config.Interview.WarningLeadSeconds) * time.Second
	timers.Countdown = time.Duration(config.Interview.CountdownSeconds) * time.Second
	return timers
}

func interviewBudget(config *Config) time.Duration {
	if config.Interview == nil {
		return 0
	}
	return time.Duration(config.Interview.BudgetMinutes) * time.Minute
}

func questionCount(config *Config) int {
	if config.Interview == nil {
		return 0
	}
	return config.Interview.Questions
}
