package pipeline

import (
	"context"
	"time"
)

// ScrapedPage is what the research collaborator hands back for one URL.
type ScrapedPage struct {
	URL   string
	Title string
	Text  string
}

// Scraper extracts article text from a source URL. headless selects the
// browser-rendered path for script-heavy sites.
type Scraper interface {
	Extract(ctx context.Context, url string, headless bool) (*ScrapedPage, error)
}

// ArticleWriter turns a writing prompt into full article body text.
type ArticleWriter interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator renders one image for a post and returns its hosted URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, imageType, style string) (string, error)
}

// EventPublisher fans out a published-post event; sitemap/RSS/social promotion
// is delegated to whatever consumes it.
type EventPublisher interface {
	PublishPost(ctx context.Context, postID uint64, slug string) error
}

// Locker guards the scheduler tick against concurrent invocations.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type stageFunc func(ctx context.Context, job *Job) (any, error)

// Service wires the job store to the stage handlers and their external
// collaborators. Every entry point is a short-lived call; the service itself
// holds no mutable state beyond what lives in the store.
type Service struct {
	repo    *Repo
	scraper Scraper
	writer  ArticleWriter
	images  ImageGenerator
	events  EventPublisher
	lock    Locker

	now    func() time.Time
	stages map[JobType]stageFunc
}

func NewService(repo *Repo, scraper Scraper, writer ArticleWriter, images ImageGenerator, events EventPublisher, lock Locker) *Service {
	s := &Service{
		repo:    repo,
		scraper: scraper,
		writer:  writer,
		images:  images,
		events:  events,
		lock:    lock,
		now:     time.Now,
	}
	s.stages = map[JobType]stageFunc{
		TypeGenerateStrategy: s.runGenerateStrategy,
		TypeResearchHarvest:  s.runResearchHarvest,
		TypeGenerateOutlines: s.runGenerateOutlines,
		TypeGenerateContent:  s.runGenerateContent,
		TypeEditorialReview:  s.runEditorialReview,
		TypeGenerateImages:   s.runGenerateImages,
		TypePublishContent:   s.runPublishContent,
	}
	return s
}
