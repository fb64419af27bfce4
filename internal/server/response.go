package server

import (
	"encoding/json"
	"time"

	"github.com/hireview/hireview/internal/assessment"
)

// MarshalResult renders the wire payload for an aggregated result, indented
// for file output and human inspection.
func MarshalResult(result *assessment.Result, reviewedAt time.Time) ([]byte, error) {
	return json.MarshalIndent(buildResponse(result, reviewedAt), "", "  ")
}

type assessResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *assessmentData `json:"data,omitempty"`
}

type assessmentData struct {
	Decision              string                `json:"decision"`
	ReviewedAt            string                `json:"reviewedAt"`
	ScoresOverview        scoresOverview        `json:"scoresOverview"`
	ReviewChecklistResult reviewChecklistResult `json:"reviewChecklistResult"`
	Notes                 string                `json:"notes"`
}

type scoresOverview struct {
	// Project scoring is not part of this service and stays at 0.
	Project   int `json:"project"`
	Interview int `json:"interview"`
	Total     int `json:"total"`
}

type reviewChecklistResult struct {
	Interviews interviewScores `json:"interviews"`
}

type interviewScores struct {
	MinScore int             `json:"minScore"`
	MaxScore int             `json:"maxScore"`
	Scores   []itemScoreJSON `json:"scores"`
}

type itemScoreJSON struct {
	ID     int    `json:"id"`
	Score  *int   `json:"score,omitempty"`
	Reason string `json:"reason"`
	Status string `json:"status"`
}

// buildResponse shapes an aggregated result into the wire payload. Skipped
// and errored items appear without a score but keep their reason.
func buildResponse(result *assessment.Result, reviewedAt time.Time) *assessResponse {
	scores := make([]itemScoreJSON, 0, len(result.ItemScores))
	for _, s := range result.ItemScores {
		entry := itemScoreJSON{
			ID:     s.PositionID,
			Reason: s.Reason,
			Status: string(s.Status),
		}
		if s.Status == assessment.StatusScored {
			score := s.Score
			entry.Score = &score
		}
		scores = append(scores, entry)
	}

	return &assessResponse{
		Success: true,
		Data: &assessmentData{
			Decision:   string(result.Decision),
			ReviewedAt: reviewedAt.UTC().Format(time.RFC3339),
			ScoresOverview: scoresOverview{
				Project:   0,
				Interview: result.OverallScorePercent,
				Total:     result.OverallScorePercent,
			},
			ReviewChecklistResult: reviewChecklistResult{
				Interviews: interviewScores{
					MinScore: assessment.MinScore,
					MaxScore: assessment.MaxScore,
					Scores:   scores,
				},
			},
			Notes: result.Notes,
		},
	}
}
