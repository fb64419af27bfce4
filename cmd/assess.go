package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/assessment"
	"github.com/hireview/hireview/internal/logger"
	"github.com/hireview/hireview/internal/server"
)

const (
	PromptShowReport   = "Show report"
	PromptDumpResponse = "Dump response to file"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run one assessment request from a JSON file without the HTTP server",
	Run: func(cmd *cobra.Command, _ []string) {
		assess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringP("file", "f", "", "request JSON file (same shape as the HTTP endpoint)")
	assessCmd.Flags().StringP("output", "o", "hireview-result.json", "file for the dumped response")
	assessCmd.Flags().BoolP("yes", "y", false, "print the report and dump the response without prompting")

	_ = assessCmd.MarkFlagRequired("file")
}

func assess(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	requestFile := cmd.Flag("file").Value.String()
	outputFile := cmd.Flag("output").Value.String()

	file, err := os.Open(requestFile)
	if err != nil {
		logger.Fatal("opening request file", zap.Error(err))
	}

	items, err := server.DecodeRequest(file)
	file.Close()
	if err != nil {
		logger.Fatal("reading request file", zap.Error(err))
	}

	runner, err := buildRunner(ctx, config, logger)
	if err != nil {
		logger.Fatal("building assessment pipeline", zap.Error(err))
	}

	logger.Info("starting the assessment", zap.Int("items", len(items)))

	result := runner.Run(ctx, items)
	reviewedAt := time.Now()

	if cmd.Flag("yes").Value.String() == "true" {
		fmt.Println(renderReport(result))
		if err := dumpResponse(result, reviewedAt, outputFile, logger); err != nil {
			logger.Fatal("dumping response", zap.Error(err))
		}
		return
	}

	prompt := promptui.Select{
		Label: "Assessment finished. What next?",
		Items: []string{PromptShowReport, PromptDumpResponse, PromptExit},
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAssessAction(action, result, reviewedAt, outputFile, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAssessAction(action string, result *assessment.Result, reviewedAt time.Time, outputFile string, logger *zap.Logger) error {
	switch action {
	case PromptShowReport:
		fmt.Println(renderReport(result))
		return nil
	case PromptDumpResponse:
		return dumpResponse(result, reviewedAt, outputFile, logger)
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func renderReport(result *assessment.Result) string {
	rows := make([][]string, 0, len(result.ItemScores))
	for _, score := range result.ItemScores {
		display := "-"
		if score.Status == assessment.StatusScored {
			display = strconv.Itoa(score.Score)
		}
		rows = append(rows, []string{
			strconv.Itoa(score.PositionID),
			string(score.Status),
			display,
			score.Reason,
		})
	}

	return fmt.Sprintf("%s\n\nDecision: %s (%d%%)\n%s",
		renderTable([]string{"ID", "STATUS", "SCORE", "REASON"}, rows),
		result.Decision, result.OverallScorePercent, result.Notes,
	)
}

func dumpResponse(result *assessment.Result, reviewedAt time.Time, outputFile string, logger *zap.Logger) error {
	payload, err := server.MarshalResult(result, reviewedAt)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	if err := os.WriteFile(outputFile, payload, 0o644); err != nil {
		return fmt.Errorf("write response file: %w", err)
	}

	logger.Info("dumped response to file", zap.String("filename", outputFile))
	return nil
}
