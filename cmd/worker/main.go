package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lexfield/contentpipe/internal/ai"
	"github.com/lexfield/contentpipe/internal/config"
	"github.com/lexfield/contentpipe/internal/db"
	"github.com/lexfield/contentpipe/internal/images"
	"github.com/lexfield/contentpipe/internal/pipeline"
	"github.com/lexfield/contentpipe/internal/scrape"
	"github.com/lexfield/contentpipe/internal/store/rabbitmq"
	"github.com/lexfield/contentpipe/internal/store/redisstore"
)

// Weekly cycle trigger plus a backup twelve hours later in case the first
// invocation was missed.
const (
	weeklyTickSpec = "0 6 * * 1"
	backupTickSpec = "0 18 * * 1"
	reclaimSpec    = "@every 10m"
)

func newWriter(cfg config.Config) ai.Writer {
	reg := ai.NewRegistry()

	reg.Register("ollama", func(ctx context.Context, model string) (ai.Writer, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaWriter(cfg.OllamaBaseURL, m), nil
	})

	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Writer, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterWriter(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey,
			m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})

	w, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("ai writer: %v", err)
	}
	return w
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := pipeline.NewRepo(gdb)

	scraper := scrape.NewBrowserlessClient(cfg.ScraperBaseURL, cfg.ScraperToken)
	imgClient := images.NewClient(cfg.ImageAPIBaseURL, cfg.ImageAPIKey)
	locks := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer locks.Close()

	var events pipeline.EventPublisher
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Printf("rabbit unavailable, publishing without events: %v", err)
	} else {
		events = pub
		defer pub.Close()
	}

	svc := pipeline.NewService(repo, scraper, newWriter(cfg), imgClient, events, locks)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()

	tick := func(source string) func() {
		return func() {
			res, err := svc.Tick(ctx, source)
			if err != nil {
				log.Printf("tick(%s): %v", source, err)
				return
			}
			if res.Skipped {
				log.Printf("tick(%s): week %d already enqueued", source, res.WeekNumber)
			} else {
				log.Printf("tick(%s): week %d enqueued %d jobs", source, res.WeekNumber, res.JobsCreated)
			}
		}
	}
	mustAdd(c, weeklyTickSpec, tick("cron"))
	mustAdd(c, backupTickSpec, tick("cron-backup"))

	mustAdd(c, fmt.Sprintf("@every %s", cfg.ProcessEvery), func() {
		res, err := svc.ProcessNext(ctx)
		if err != nil {
			log.Printf("process next: %v", err)
			return
		}
		switch {
		case res.Message != "":
			// nothing due; stay quiet
		case res.Success:
			log.Printf("job %s (%s) completed", res.JobID, res.JobType)
		default:
			log.Printf("job %s (%s) failed: %s", res.JobID, res.JobType, res.Error)
		}
	})

	mustAdd(c, reclaimSpec, func() {
		n, err := repo.ReclaimStale(ctx, time.Now().Add(-cfg.StaleClaimAfter))
		if err != nil {
			log.Printf("reclaim stale: %v", err)
			return
		}
		if n > 0 {
			log.Printf("reclaimed %d stale jobs", n)
		}
	})

	c.Start()
	log.Printf("worker started (process every %s, stale claim after %s)", cfg.ProcessEvery, cfg.StaleClaimAfter)

	<-ctx.Done()
	log.Printf("worker shutting down")
	<-c.Stop().Done()
}

func mustAdd(c *cron.Cron, spec string, fn func()) {
	if _, err := c.AddFunc(spec, fn); err != nil {
		log.Fatalf("cron add %q: %v", spec, err)
	}
}
