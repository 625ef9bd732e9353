package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type contentResult struct {
	PostID uint64 `json:"post_id"`
	Words  int    `json:"words"`
}

func (s *Service) runGenerateContent(ctx context.Context, job *Job) (any, error) {
	var p ContentPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("generate_content: bad payload: %w", err)
	}
	if s.writer == nil {
		return nil, errors.New("generate_content: no writer configured")
	}

	post, err := s.repo.FindPostByWeekAndStatus(ctx, p.WeekNumber, PostOutline)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("generate_content: no outlined post for week %d, outline stage has not produced one", p.WeekNumber)
	}

	body, err := s.writer.Generate(ctx, writingPrompt(post, p))
	if err != nil {
		return nil, fmt.Errorf("generate_content: writer: %w", err)
	}

	post.Body = body
	post.Status = PostDraft

	if err := s.repo.SavePost(ctx, post); err != nil {
		return nil, fmt.Errorf("generate_content: save post: %w", err)
	}

	return contentResult{PostID: post.ID, Words: len(strings.Fields(body))}, nil
}

func writingPrompt(post *Post, p ContentPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a complete blog article titled %q for a legal-technology audience.\n", post.Title)
	fmt.Fprintf(&b, "Follow this outline exactly:\n%s\n", string(post.Metadata))
	fmt.Fprintf(&b, "Quality level: %s.\n", p.QualityLevel)
	if p.SEOOptimization {
		b.WriteString("Optimize headings and opening paragraphs for search.\n")
	}
	if p.LegalCompliance {
		b.WriteString("Avoid specific legal advice; include an attorney-advertising style disclaimer.\n")
	}
	return b.String()
}
