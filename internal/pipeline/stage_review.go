package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
)

type reviewResult struct {
	PostID    uint64   `json:"post_id"`
	ChecksRun []string `json:"checks_run"`
}

// runEditorialReview advances the week's draft to scheduled. The checks are
// flag-driven annotations; nothing here calls out.
func (s *Service) runEditorialReview(ctx context.Context, job *Job) (any, error) {
	var p ReviewPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("editorial_review: bad payload: %w", err)
	}

	post, err := s.repo.FindPostByWeekAndStatus(ctx, p.WeekNumber, PostDraft)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("editorial_review: no draft post for week %d, content stage has not produced one", p.WeekNumber)
	}

	var checks []string
	if p.ComplianceCheck {
		checks = append(checks, "compliance")
	}
	if p.SEOOptimization {
		checks = append(checks, "seo")
	}
	if p.FactChecking {
		checks = append(checks, "facts")
	}

	var meta map[string]any
	if len(post.Metadata) > 0 {
		if err := json.Unmarshal(post.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("editorial_review: bad post metadata: %w", err)
		}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["review"] = map[string]any{"checks_run": checks}

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	post.Metadata = raw
	post.Status = PostScheduled

	if err := s.repo.SavePost(ctx, post); err != nil {
		return nil, fmt.Errorf("editorial_review: save post: %w", err)
	}

	return reviewResult{PostID: post.ID, ChecksRun: checks}, nil
}
