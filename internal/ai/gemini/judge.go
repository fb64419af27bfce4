package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/ai"
	"github.com/hireview/hireview/internal/signals"
	"github.com/hireview/hireview/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Judge scores interview answers through a Gemini generator. Transport and
// service failures get a single retry with a short backoff before they are
// surfaced to the caller.
type Judge struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	backoff   time.Duration
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	defaultRetryBackoff = 2 * time.Second

	notAvailableMarker = "[not available]"
)

func NewJudge(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Judge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Judge{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
		backoff:   defaultRetryBackoff,
	}
}

// Score builds the judgment prompt, queries the model and validates the
// returned score. An out-of-range score is clamped to the nearest bound with
// the reason annotated; a response that cannot be parsed is an error.
func (j *Judge) Score(ctx context.Context, question string, sig signals.Extracted) (*ai.Judgment, error) {
	prompt := buildPrompt(question, sig)

	j.logger.Debug("judge request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, j.maxLogLen)),
	)

	raw, err := j.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("judge service: %w", err)
	}

	j.logger.Debug("judge response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	judgment, err := parseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse judge response: %w", err)
	}

	return judgment, nil
}

// generate retries once on service failure after a fixed backoff.
func (j *Judge) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := j.generator.GenerateContent(ctx, prompt)
	if err == nil {
		return raw, nil
	}

	j.logger.Warn("judge call failed, retrying once", zap.Error(err))

	if waitErr := utils.WaitFor(ctx, j.backoff); waitErr != nil {
		return "", waitErr
	}

	return j.generator.GenerateContent(ctx, prompt)
}

func buildPrompt(question string, sig signals.Extracted) string {
	transcript := notAvailableMarker
	if sig.TranscriptOK {
		transcript = sig.Transcript
		if strings.TrimSpace(transcript) == "" {
			transcript = "[no speech detected]"
		}
	}

	attentiveness := notAvailableMarker
	gazeDetails := "- Detailed gaze metrics: not available"
	if sig.AttentivenessOK {
		attentiveness = strconv.FormatFloat(sig.Attentiveness, 'f', 2, 64)
		if m := sig.Gaze; m != nil {
			gazeDetails = fmt.Sprintf(
				"- Eye contact: %.1f%%\n- Gaze stability: %.1f%%\n- Looking away: %.1f%%\n- Attention score: %.1f%%",
				m.EyeContactPercent, m.GazeStability, m.LookingAwayPercent, m.AttentionScore,
			)
		}
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{QUESTION}}", question)
	prompt = strings.ReplaceAll(prompt, "{{TRANSCRIPT}}", transcript)
	prompt = strings.ReplaceAll(prompt, "{{ATTENTIVENESS}}", attentiveness)
	prompt = strings.ReplaceAll(prompt, "{{GAZE_METRICS}}", gazeDetails)
	return prompt
}

type rawJudgment struct {
	Score  any    `mapstructure:"score"`
	Reason string `mapstructure:"reason"`
}

func parseResponse(raw string) (*ai.Judgment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	var parsed rawJudgment
	if err := mapstructure.Decode(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode judgment: %w", err)
	}

	score, ok := coerceInt(parsed.Score)
	if !ok {
		return nil, fmt.Errorf("score %v is not an integer", parsed.Score)
	}

	reason := strings.TrimSpace(parsed.Reason)
	if reason == "" {
		reason = "no rationale provided"
	}

	if score < 0 || score > 4 {
		score = clamp(score, 0, 4)
		reason += " (score adjusted: out of range)"
	}

	return &ai.Judgment{
		Score:  score,
		Reason: reason,
		Raw:    raw,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
