package cmd

import (
	"context"
	"log"
	"net/http"

	"github.com/knowlumi/interview-panel/internal/history"
	"github.com/knowlumi/interview-panel/internal/logger"
	"github.com/knowlumi/interview-panel/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultListen = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview API and event stream over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default "+defaultListen+")")
	serveCmd.Flags().String("history-file", "", "sqlite file for the evaluation history. Default is under the user home.")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("history-file", serveCmd.Flags().Lookup("history-file"))
}

func serve(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interview-panel server", zap.String("version", version))

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

	historyFile := viper.GetString("history-file")
	if historyFile == "" {
		historyFile = config.HistoryFile
	}
	if historyFile == "" {
		historyFile = history.DefaultPath()
	}

	store, err := history.Open(historyFile)
	if err != nil {
		logger.Fatal("opening the history store", zap.Error(err))
	}
	defer store.Close()

	logger.Info("history store ready", zap.String("file", historyFile))

	srv := server.New(server.Config{
		Generator:     generator,
		Panel:         interviewers,
		Reports:       store,
		QuestionCount: questionCount(config),
		Budget:        interviewBudget(config),
		Timers:        interviewTimers(config),
		Logger:        logger,
	})

	listen := viper.GetString("listen")
	if listen == "" {
		listen = config.Listen
	}
	if listen == "" {
		listen = defaultListen
	}

	logger.Info("listening", zap.String("address", listen))
	if err := http.ListenAndServe(listen, srv.Router()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
