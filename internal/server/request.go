package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hireview/hireview/internal/assessment"
)

// DecodeRequest parses and validates an assessment request payload and
// returns the pipeline items in request order. It is shared by the HTTP
// handler and the offline assess command.
func DecodeRequest(r io.Reader) ([]assessment.Item, error) {
	var req assessRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req.items(), nil
}

// assessRequest is the wire shape of one assessment request. Interview items
// arrive grouped under the reviewChecklists collection.
type assessRequest struct {
	ReviewChecklists *reviewChecklists `json:"reviewChecklists"`
}

type reviewChecklists struct {
	Interviews []interviewItem `json:"interviews"`
}

type interviewItem struct {
	PositionID       int    `json:"positionId"`
	Question         string `json:"question"`
	IsVideoExist     bool   `json:"isVideoExist"`
	RecordedVideoURL string `json:"recordedVideoUrl"`
}

// validate rejects structurally broken requests before any item processing
// begins. Item-level problems (bad links, unreachable files) are not checked
// here; those surface later as per-item outcomes.
func (r *assessRequest) validate() error {
	if r.ReviewChecklists == nil {
		return errors.New("reviewChecklists is required")
	}
	if len(r.ReviewChecklists.Interviews) == 0 {
		return errors.New("reviewChecklists.interviews must not be empty")
	}

	for i, item := range r.ReviewChecklists.Interviews {
		if strings.TrimSpace(item.Question) == "" {
			return fmt.Errorf("interviews[%d]: question is required", i)
		}
		if item.IsVideoExist && strings.TrimSpace(item.RecordedVideoURL) == "" {
			return fmt.Errorf("interviews[%d]: recordedVideoUrl is required when isVideoExist is true", i)
		}
	}

	return nil
}

func (r *assessRequest) items() []assessment.Item {
	interviews := r.ReviewChecklists.Interviews
	items := make([]assessment.Item, 0, len(interviews))
	for _, iv := range interviews {
		items = append(items, assessment.Item{
			PositionID: iv.PositionID,
			Question:   iv.Question,
			HasVideo:   iv.IsVideoExist,
			VideoRef:   iv.RecordedVideoURL,
		})
	}
	return items
}
