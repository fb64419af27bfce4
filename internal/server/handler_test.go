package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hireview/hireview/internal/assessment"
)

type stubRunner struct {
	result *assessment.Result
	items  []assessment.Item
}

func (s *stubRunner) Run(_ context.Context, items []assessment.Item) *assessment.Result {
	s.items = items
	return s.result
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
}

func TestHandleAssess(t *testing.T) {
	runner := &stubRunner{result: &assessment.Result{
		Decision:            assessment.DecisionPassed,
		OverallScorePercent: 81,
		ItemScores: []assessment.ItemScore{
			{PositionID: 1, Score: 3, Reason: "clear and structured", Status: assessment.StatusScored},
			{PositionID: 2, Reason: "no recorded video for this question", Status: assessment.StatusSkipped},
		},
		Notes: "PASSED: 1 of 2 answers scored, average 3.25 of 4 (1 skipped, 0 errored).",
	}}

	handler := NewHandler(runner, nil)
	handler.now = fixedNow

	body := `{
		"reviewChecklists": {
			"interviews": [
				{"positionId": 1, "question": "Tell me about a hard bug.", "isVideoExist": true, "recordedVideoUrl": "https://drive.google.com/file/d/abc123/view"},
				{"positionId": 2, "question": "Why this role?", "isVideoExist": false}
			]
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/assessments", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleAssess(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	if len(runner.items) != 2 {
		t.Fatalf("expected 2 items handed to the runner, got %d", len(runner.items))
	}
	if runner.items[0].VideoRef != "https://drive.google.com/file/d/abc123/view" {
		t.Fatalf("unexpected first item: %+v", runner.items[0])
	}
	if runner.items[1].HasVideo {
		t.Fatal("second item must carry HasVideo=false")
	}

	var resp assessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected successful payload, got %+v", resp)
	}
	if resp.Data.Decision != "PASSED" {
		t.Fatalf("unexpected decision %q", resp.Data.Decision)
	}
	if resp.Data.ReviewedAt != "2026-03-14T15:09:26Z" {
		t.Fatalf("unexpected reviewedAt %q", resp.Data.ReviewedAt)
	}
	if resp.Data.ScoresOverview.Project != 0 ||
		resp.Data.ScoresOverview.Interview != 81 ||
		resp.Data.ScoresOverview.Total != 81 {
		t.Fatalf("unexpected scores overview: %+v", resp.Data.ScoresOverview)
	}

	interviews := resp.Data.ReviewChecklistResult.Interviews
	if interviews.MinScore != 0 || interviews.MaxScore != 4 {
		t.Fatalf("unexpected score bounds: %+v", interviews)
	}
	if len(interviews.Scores) != 2 {
		t.Fatalf("expected 2 item scores, got %d", len(interviews.Scores))
	}
	if interviews.Scores[0].Score == nil || *interviews.Scores[0].Score != 3 {
		t.Fatalf("scored item must carry its score: %+v", interviews.Scores[0])
	}
	if interviews.Scores[1].Score != nil {
		t.Fatalf("skipped item must omit the score: %+v", interviews.Scores[1])
	}
	if interviews.Scores[1].Status != "SKIPPED" {
		t.Fatalf("unexpected status %q", interviews.Scores[1].Status)
	}
}

func TestHandleAssessRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not json at all"},
		{name: "missing checklists", body: `{}`},
		{name: "empty interviews", body: `{"reviewChecklists": {"interviews": []}}`},
		{name: "blank question", body: `{"reviewChecklists": {"interviews": [{"positionId": 1, "question": "  "}]}}`},
		{name: "video flagged without url", body: `{"reviewChecklists": {"interviews": [{"positionId": 1, "question": "q", "isVideoExist": true}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{result: &assessment.Result{}}
			handler := NewHandler(runner, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/assessments", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.HandleAssess(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}

			var resp assessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Success {
				t.Fatal("expected success=false")
			}
			if resp.Message == "" {
				t.Fatal("expected an explanatory message")
			}
			if runner.items != nil {
				t.Fatal("runner must not run for a rejected request")
			}
		})
	}
}

func TestHandleAssessAppliesOverallTimeout(t *testing.T) {
	var sawDeadline bool
	runner := &deadlineRunner{saw: &sawDeadline}

	handler := NewHandler(runner, nil)
	handler.overallTimeout = time.Minute

	body := `{"reviewChecklists": {"interviews": [{"positionId": 1, "question": "q"}]}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleAssess(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !sawDeadline {
		t.Fatal("expected the runner context to carry a deadline")
	}
}

type deadlineRunner struct {
	saw *bool
}

func (d *deadlineRunner) Run(ctx context.Context, _ []assessment.Item) *assessment.Result {
	_, *d.saw = ctx.Deadline()
	return &assessment.Result{Decision: assessment.DecisionNeedsReview}
}

func TestMarshalResult(t *testing.T) {
	result := &assessment.Result{
		Decision:            assessment.DecisionFailed,
		OverallScorePercent: 25,
		ItemScores: []assessment.ItemScore{
			{PositionID: 7, Score: 1, Reason: "off topic", Status: assessment.StatusScored},
		},
		Notes: "FAILED: 1 of 1 answers scored, average 1.00 of 4 (0 skipped, 0 errored).",
	}

	raw, err := MarshalResult(result, fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp assessResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if resp.Data == nil || resp.Data.Decision != "FAILED" {
		t.Fatalf("unexpected payload: %s", raw)
	}
	if !strings.Contains(string(raw), "\n  ") {
		t.Fatal("expected indented output")
	}
}
