package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/knowlumi/interview-panel/internal/history"
	"github.com/knowlumi/interview-panel/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past interview evaluations",
	Run: func(cmd *cobra.Command, _ []string) {
		showHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 10, "number of reports to show, 0 for all")
	historyCmd.Flags().Bool("full", false, "print full reports as JSON instead of a summary")
}

func showHistory(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store, err := history.Open(firstNonEmpty(config.HistoryFile, history.DefaultPath()))
	if err != nil {
		logger.Fatal("opening the history store", zap.Error(err))
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	reports, err := store.ListReports(context.Background(), limit)
	if err != nil {
		logger.Fatal("listing reports", zap.Error(err))
	}

	if len(reports) == 0 {
		fmt.Println("No interview history yet.")
		return
	}

	if full, _ := cmd.Flags().GetBool("full"); full {
		pretty, _ := json.MarshalIndent(reports, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	for _, report := range reports {
		fmt.Printf("%s  %-20s  score %5.1f  %s\n",
			report.Timestamp.Format("2006-01-02 15:04"),
			report.Candidate,
			report.AvgScore,
			report.Verdict,
		)
	}
}
