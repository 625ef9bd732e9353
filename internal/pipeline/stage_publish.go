package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type publishResult struct {
	PostID          uint64    `json:"post_id"`
	Slug            string    `json:"slug"`
	PublishedAt     time.Time `json:"published_at"`
	UpdateSitemap   bool      `json:"update_sitemap"`
	UpdateRSS       bool      `json:"update_rss"`
	SocialPromotion bool      `json:"social_promotion"`
}

// runPublishContent flips the week's scheduled post live. Sitemap, RSS and
// social promotion are delegated: the flags travel on the published event and
// whatever consumes the queue acts on them.
func (s *Service) runPublishContent(ctx context.Context, job *Job) (any, error) {
	var p PublishPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("publish_content: bad payload: %w", err)
	}

	post, err := s.repo.FindPostByWeekAndStatus(ctx, p.WeekNumber, PostScheduled)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("publish_content: no scheduled post for week %d, review stage has not produced one", p.WeekNumber)
	}

	now := s.now()
	post.Status = PostPublished
	post.PublishedAt = &now

	if err := s.repo.SavePost(ctx, post); err != nil {
		return nil, fmt.Errorf("publish_content: save post: %w", err)
	}

	if s.events != nil && (p.SocialPromotion || p.UpdateSitemap || p.UpdateRSS) {
		if err := s.events.PublishPost(ctx, post.ID, post.Slug); err != nil {
			// Promotion is best-effort; the post is already live.
			log.Printf("publish_content: event publish failed for post %d: %v", post.ID, err)
		}
	}

	return publishResult{
		PostID:          post.ID,
		Slug:            post.Slug,
		PublishedAt:     now,
		UpdateSitemap:   p.UpdateSitemap,
		UpdateRSS:       p.UpdateRSS,
		SocialPromotion: p.SocialPromotion,
	}, nil
}
