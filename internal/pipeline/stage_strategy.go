package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// topicRotation drives strategy selection without an external call: the week
// number indexes into the table, so the calendar alone decides the topic.
var topicRotation = []struct {
	Title string
	Angle string
}{
	{"How AI Document Review Cuts Discovery Costs", "cost reduction for litigation teams"},
	{"Client Intake Automation for Small Law Firms", "practice growth through intake speed"},
	{"AI Legal Research Tools Compared", "buyer's guide for research platforms"},
	{"Ethics Rules for Generative AI in Legal Practice", "bar compliance and professional responsibility"},
	{"Contract Analysis Automation: What Actually Works", "transactional practice efficiency"},
	{"Predictive Analytics in Case Outcome Assessment", "data-driven case strategy"},
	{"Law Firm Data Security in the AI Era", "confidentiality and vendor risk"},
	{"Billing and Timekeeping Automation", "back-office modernization"},
}

type strategyResult struct {
	PostID     uint64 `json:"post_id"`
	Title      string `json:"title"`
	WeekNumber int    `json:"week_number"`
}

func (s *Service) runGenerateStrategy(ctx context.Context, job *Job) (any, error) {
	var p StrategyPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("generate_strategy: bad payload: %w", err)
	}

	topic := topicRotation[(p.WeekNumber-1+len(topicRotation))%len(topicRotation)]

	strategy := map[string]any{
		"strategy": map[string]any{
			"topic":           topic.Title,
			"angle":           topic.Angle,
			"focus_areas":     p.FocusAreas,
			"target_audience": p.TargetAudience,
		},
	}
	meta, err := json.Marshal(strategy)
	if err != nil {
		return nil, err
	}

	post := &Post{
		WeekNumber: p.WeekNumber,
		Title:      topic.Title,
		Slug:       slugify(fmt.Sprintf("%s week %d", topic.Title, p.WeekNumber)),
		Status:     PostIdea,
		Metadata:   meta,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("generate_strategy: create post: %w", err)
	}

	return strategyResult{PostID: post.ID, Title: post.Title, WeekNumber: p.WeekNumber}, nil
}

func slugify(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
