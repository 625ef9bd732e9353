package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeScraper struct {
	err   error
	calls int
}

func (f *fakeScraper) Extract(ctx context.Context, url string, headless bool) (*ScrapedPage, error) {
	_ = ctx
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ScrapedPage{URL: url, Title: "title", Text: "extracted text"}, nil
}

type fakeWriter struct {
	text string
	err  error
}

func (f *fakeWriter) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeImager struct {
	failTypes map[string]bool
}

func (f *fakeImager) Generate(ctx context.Context, prompt, imageType, style string) (string, error) {
	_ = ctx
	_ = prompt
	_ = style
	if f.failTypes[imageType] {
		return "", errors.New("render failed")
	}
	return "https://cdn.example.com/" + imageType + ".png", nil
}

type fakeEvents struct {
	published []uint64
}

func (f *fakeEvents) PublishPost(ctx context.Context, postID uint64, slug string) error {
	_ = ctx
	_ = slug
	f.published = append(f.published, postID)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Job{}, &Post{}, &ResearchSource{}, &TriggerRun{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTestService wires fakes for all collaborators and pins the clock.
func newTestService(t *testing.T, at time.Time) (*Service, *Repo) {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	svc := NewService(repo,
		&fakeScraper{},
		&fakeWriter{text: "article body text"},
		&fakeImager{},
		&fakeEvents{},
		nil,
	)
	svc.now = func() time.Time { return at }
	return svc, repo
}

func advance(svc *Service, to time.Time) {
	svc.now = func() time.Time { return to }
}
