package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// runStage fast-forwards past the stage's offset and processes one job.
func runStage(t *testing.T, svc *Service, offset time.Duration) *ProcessResult {
	t.Helper()
	advance(svc, testStart.Add(offset+time.Second))
	res, err := svc.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if res.Message != "" {
		t.Fatalf("expected a due job at offset %s, got %q", offset, res.Message)
	}
	return res
}

func TestFullCycleHappyPath(t *testing.T) {
	svc, repo := newTestService(t, testStart)
	events := &fakeEvents{}
	svc.events = events
	ctx := context.Background()

	if _, err := svc.StartCycle(ctx, 5); err != nil {
		t.Fatalf("start cycle: %v", err)
	}

	for i, typ := range StageOrder {
		res := runStage(t, svc, stageOffsets[i])
		if res.JobType != typ {
			t.Fatalf("stage %d ran %s, want %s", i, res.JobType, typ)
		}
		if !res.Success {
			t.Fatalf("stage %s failed: %s", typ, res.Error)
		}
	}

	post, err := repo.FindPostByWeekAndStatus(ctx, 5, PostPublished)
	if err != nil {
		t.Fatalf("find post: %v", err)
	}
	if post == nil {
		t.Fatalf("no published post after full cycle")
	}
	if post.PublishedAt == nil {
		t.Fatalf("published_at not stamped")
	}
	if post.Body == "" {
		t.Fatalf("published post has no body")
	}
	if !post.ImagesGenerated {
		t.Fatalf("images_generated flag not set")
	}
	if post.HeroImageURL == "" || post.SocialImageURL == "" || post.DiagramImageURL == "" {
		t.Fatalf("image urls missing: %+v", post)
	}
	if len(events.published) != 1 || events.published[0] != post.ID {
		t.Fatalf("published event not emitted: %v", events.published)
	}

	srcCount, _ := repo.CountSourcesByWeek(ctx, 5)
	if srcCount == 0 {
		t.Fatalf("research stage stored no sources")
	}

	st, _ := svc.CycleStatus(ctx, 5)
	if st.Completed != 7 || st.ProgressPercentage != 100 {
		t.Fatalf("final status: %+v", st)
	}
}

func TestStrategyRotatesTopicsByWeek(t *testing.T) {
	svc, repo := newTestService(t, testStart)
	ctx := context.Background()

	runFor := func(week int) *Post {
		payload, _ := json.Marshal(StrategyPayload{WeekNumber: week})
		job := &Job{Payload: payload}
		if _, err := svc.runGenerateStrategy(ctx, job); err != nil {
			t.Fatalf("strategy week %d: %v", week, err)
		}
		p, err := repo.FindPostByWeekAndStatus(ctx, week, PostIdea)
		if err != nil || p == nil {
			t.Fatalf("idea post week %d: %v", week, err)
		}
		return p
	}

	a := runFor(1)
	b := runFor(2)
	c := runFor(1 + len(topicRotation))

	if a.Title == b.Title {
		t.Fatalf("consecutive weeks got the same topic %q", a.Title)
	}
	if a.Title != c.Title {
		t.Fatalf("rotation did not wrap: week 1 %q vs week %d %q", a.Title, 1+len(topicRotation), c.Title)
	}
}

func TestResearchRespectsQualityThreshold(t *testing.T) {
	svc, repo := newTestService(t, testStart)
	scraper := &fakeScraper{}
	svc.scraper = scraper
	ctx := context.Background()

	payload, _ := json.Marshal(ResearchPayload{
		WeekNumber:       4,
		TargetSources:    len(sourceCatalog),
		QualityThreshold: 0.7,
	})
	out, err := svc.runResearchHarvest(ctx, &Job{Payload: payload})
	if err != nil {
		t.Fatalf("research: %v", err)
	}

	res := out.(researchResult)
	if res.SourcesStored == 0 {
		t.Fatalf("nothing stored")
	}
	if res.SourcesSkipped == 0 {
		t.Fatalf("low-trust catalog entries were not skipped")
	}
	if scraper.calls != res.SourcesStored {
		t.Fatalf("scraper called %d times for %d stored sources", scraper.calls, res.SourcesStored)
	}

	n, _ := repo.CountSourcesByWeek(ctx, 4)
	if int(n) != res.SourcesStored {
		t.Fatalf("stored %d rows, result says %d", n, res.SourcesStored)
	}
}

func TestResearchClampsTargetSources(t *testing.T) {
	svc, _ := newTestService(t, testStart)
	ctx := context.Background()

	payload, _ := json.Marshal(ResearchPayload{WeekNumber: 4, TargetSources: -3, QualityThreshold: 0.5})
	out, err := svc.runResearchHarvest(ctx, &Job{Payload: payload})
	if err != nil {
		t.Fatalf("negative target must harvest nothing, not fail: %v", err)
	}
	res := out.(researchResult)
	if res.SourcesStored != 0 || res.SourcesSkipped != 0 {
		t.Fatalf("negative target harvested something: %+v", res)
	}

	payload, _ = json.Marshal(ResearchPayload{WeekNumber: 4, TargetSources: 100, QualityThreshold: 0})
	out, err = svc.runResearchHarvest(ctx, &Job{Payload: payload})
	if err != nil {
		t.Fatalf("oversized target: %v", err)
	}
	if res := out.(researchResult); res.SourcesStored != len(sourceCatalog) {
		t.Fatalf("oversized target stored %d, want the whole catalog (%d)", res.SourcesStored, len(sourceCatalog))
	}
}

func TestResearchScraperErrorFailsStage(t *testing.T) {
	svc, _ := newTestService(t, testStart)
	svc.scraper = &fakeScraper{err: errors.New("timeout")}

	payload, _ := json.Marshal(ResearchPayload{WeekNumber: 4, TargetSources: 3, QualityThreshold: 0})
	if _, err := svc.runResearchHarvest(context.Background(), &Job{Payload: payload}); err == nil {
		t.Fatalf("expected scraper error to fail the stage")
	}
}

func TestContentRequiresOutlinedPost(t *testing.T) {
	svc, _ := newTestService(t, testStart)

	payload, _ := json.Marshal(ContentPayload{WeekNumber: 8})
	_, err := svc.runGenerateContent(context.Background(), &Job{Payload: payload})
	if err == nil {
		t.Fatalf("expected missing-outline error")
	}
}

func TestImagesPartialFailure(t *testing.T) {
	svc, repo := newTestService(t, testStart)
	svc.images = &fakeImager{failTypes: map[string]bool{"social": true}}
	ctx := context.Background()

	post := &Post{WeekNumber: 6, Title: "t", Slug: "t-6", Status: PostScheduled}
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	payload, _ := json.Marshal(ImagesPayload{
		WeekNumber: 6,
		ImageTypes: []string{"hero", "social", "diagram"},
	})
	out, err := svc.runGenerateImages(ctx, &Job{Payload: payload})
	if err != nil {
		t.Fatalf("partial image failure must not fail the job: %v", err)
	}

	res := out.(*ImageStageResult)
	if len(res.Succeeded) != 2 || len(res.Failed) != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 2/1", len(res.Succeeded), len(res.Failed))
	}
	if res.Failed[0].ImageType != "social" {
		t.Fatalf("wrong failed type: %+v", res.Failed[0])
	}

	got, _ := repo.FindPostByWeekAndStatus(ctx, 6, PostScheduled)
	if got == nil {
		t.Fatalf("post vanished")
	}
	if !got.ImagesGenerated {
		t.Fatalf("images_generated must be set despite the partial failure")
	}
	if got.HeroImageURL == "" || got.DiagramImageURL == "" {
		t.Fatalf("successful urls not written: %+v", got)
	}
	if got.SocialImageURL != "" {
		t.Fatalf("failed type wrote a url: %q", got.SocialImageURL)
	}
}

func TestPublishRequiresScheduledPost(t *testing.T) {
	svc, _ := newTestService(t, testStart)

	payload, _ := json.Marshal(PublishPayload{WeekNumber: 9})
	if _, err := svc.runPublishContent(context.Background(), &Job{Payload: payload}); err == nil {
		t.Fatalf("expected missing-scheduled-post error")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"How AI Document Review Cuts Discovery Costs week 5": "how-ai-document-review-cuts-discovery-costs-week-5",
		"Ethics, Rules & AI!": "ethics-rules-ai",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
