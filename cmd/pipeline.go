package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/ai"
	"github.com/hireview/hireview/internal/ai/gemini"
	"github.com/hireview/hireview/internal/assessment"
	"github.com/hireview/hireview/internal/gaze"
	hvlogger "github.com/hireview/hireview/internal/logger"
	"github.com/hireview/hireview/internal/media"
	"github.com/hireview/hireview/internal/secrets"
	"github.com/hireview/hireview/internal/signals"
	"github.com/hireview/hireview/internal/stt"
)

const (
	defaultSTTURL  = "http://localhost:9000"
	defaultGazeURL = "http://localhost:9100"
)

// buildRunner wires the full pipeline from configuration: media fetcher,
// signal clients, Gemini judge, processor and runner.
func buildRunner(ctx context.Context, config *Config, logger *zap.Logger) (*assessment.Runner, error) {
	judge, err := newJudge(ctx, config.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("building judge: %w", err)
	}

	mediaCfg := config.Media
	if mediaCfg == nil {
		mediaCfg = &MediaConfig{}
	}
	fetcher := media.NewFetcher(media.FetcherOptions{
		Dir:      mediaCfg.Dir,
		Timeout:  mediaCfg.Timeout,
		MaxBytes: mediaCfg.MaxBytes,
	}, logger)

	sttCfg := config.STT
	if sttCfg == nil {
		sttCfg = &STTConfig{}
	}
	sttURL := sttCfg.URL
	if sttURL == "" {
		sttURL = defaultSTTURL
	}
	transcriber := stt.NewClient(sttURL, stt.ClientOptions{
		Language: sttCfg.Language,
		Timeout:  sttCfg.Timeout,
	}, logger)

	gazeCfg := config.Gaze
	if gazeCfg == nil {
		gazeCfg = &GazeConfig{}
	}
	gazeURL := gazeCfg.URL
	if gazeURL == "" {
		gazeURL = defaultGazeURL
	}
	tracker := gaze.NewClient(gazeURL, gaze.ClientOptions{
		SampleRate: gazeCfg.SampleRate,
		MaxSamples: gazeCfg.MaxSamples,
		Timeout:    gazeCfg.Timeout,
	}, logger)

	extractor := signals.NewExtractor(transcriber, tracker, logger)
	processor := assessment.NewProcessor(fetcher, extractor, judge, logger)

	pipelineCfg := config.Pipeline
	if pipelineCfg == nil {
		pipelineCfg = &PipelineConfig{}
	}

	return assessment.NewRunner(processor, assessment.RunnerOptions{
		Concurrency: pipelineCfg.Concurrency,
		ItemTimeout: pipelineCfg.ItemTimeout,
	}, logger), nil
}

func newJudge(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Judge, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	geminiCfg := cfg.Gemini
	if geminiCfg == nil {
		geminiCfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: geminiCfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, geminiCfg.Model)
	if err != nil {
		return nil, err
	}

	judgeLogger := hvlogger.WithCommonFields(logger, "gemini", generator.Model())

	return gemini.NewJudge(generator, judgeLogger, geminiCfg.MaxLogLength), nil
}
