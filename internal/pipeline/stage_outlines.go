package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
)

type outlineSection struct {
	Heading    string `json:"heading"`
	Kind       string `json:"kind"` // pillar or spoke
	WordTarget int    `json:"word_target"`
}

type outlineResult struct {
	PostID   uint64 `json:"post_id"`
	Sections int    `json:"sections"`
}

// runGenerateOutlines structures the week's idea post into a pillar/spoke
// outline. Missing the idea artifact means the strategy stage never ran (or
// failed), which fails this job rather than silently writing nothing.
func (s *Service) runGenerateOutlines(ctx context.Context, job *Job) (any, error) {
	var p OutlinePayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("generate_outlines: bad payload: %w", err)
	}

	post, err := s.repo.FindPostByWeekAndStatus(ctx, p.WeekNumber, PostIdea)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("generate_outlines: no idea post for week %d, strategy stage has not produced one", p.WeekNumber)
	}

	var meta map[string]any
	if len(post.Metadata) > 0 {
		if err := json.Unmarshal(post.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("generate_outlines: bad post metadata: %w", err)
		}
	}
	if meta == nil {
		meta = map[string]any{}
	}

	sections := make([]outlineSection, 0, p.PillarCount+p.SpokeCount)
	for i := 0; i < p.PillarCount; i++ {
		sections = append(sections, outlineSection{
			Heading:    post.Title,
			Kind:       "pillar",
			WordTarget: p.WordTargets["pillar"],
		})
	}
	for i := 0; i < p.SpokeCount; i++ {
		sections = append(sections, outlineSection{
			Heading:    fmt.Sprintf("%s: part %d", post.Title, i+1),
			Kind:       "spoke",
			WordTarget: p.WordTargets["spoke"],
		})
	}
	meta["outline"] = sections

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	post.Metadata = raw
	post.Status = PostOutline

	if err := s.repo.SavePost(ctx, post); err != nil {
		return nil, fmt.Errorf("generate_outlines: save post: %w", err)
	}

	return outlineResult{PostID: post.ID, Sections: len(sections)}, nil
}
