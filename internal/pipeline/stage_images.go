package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type ImageOutcome struct {
	PostID    uint64 `json:"post_id"`
	ImageType string `json:"image_type"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ImageStageResult separates per-image successes and failures so downstream
// consumers can decide whether a partial set blocks publication.
type ImageStageResult struct {
	WeekNumber int            `json:"week_number"`
	Succeeded  []ImageOutcome `json:"succeeded"`
	Failed     []ImageOutcome `json:"failed"`
}

// runGenerateImages is deliberately more lenient than the other stages: a
// failed render is recorded and skipped rather than failing the job, and the
// post's images_generated flag is set either way so the stage never reruns
// against the same posts.
func (s *Service) runGenerateImages(ctx context.Context, job *Job) (any, error) {
	var p ImagesPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("generate_images: bad payload: %w", err)
	}
	if s.images == nil {
		return nil, errors.New("generate_images: no image generator configured")
	}

	posts, err := s.repo.ListPostsNeedingImages(ctx, p.WeekNumber)
	if err != nil {
		return nil, err
	}

	result := &ImageStageResult{WeekNumber: p.WeekNumber}
	for i := range posts {
		post := &posts[i]
		for _, imgType := range p.ImageTypes {
			prompt := fmt.Sprintf("%s illustration for article %q", imgType, post.Title)
			url, genErr := s.images.Generate(ctx, prompt, imgType, p.StylePreference)
			if genErr != nil {
				result.Failed = append(result.Failed, ImageOutcome{
					PostID:    post.ID,
					ImageType: imgType,
					Error:     genErr.Error(),
				})
				continue
			}

			switch imgType {
			case "hero":
				post.HeroImageURL = url
			case "social":
				post.SocialImageURL = url
			case "diagram":
				post.DiagramImageURL = url
			}
			result.Succeeded = append(result.Succeeded, ImageOutcome{
				PostID:    post.ID,
				ImageType: imgType,
				URL:       url,
			})
		}

		post.ImagesGenerated = true
		if err := s.repo.SavePost(ctx, post); err != nil {
			return nil, fmt.Errorf("generate_images: save post %d: %w", post.ID, err)
		}
	}

	return result, nil
}
