package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lexfield/contentpipe/internal/ai"
	"github.com/lexfield/contentpipe/internal/config"
	"github.com/lexfield/contentpipe/internal/db"
	"github.com/lexfield/contentpipe/internal/httpapi"
	"github.com/lexfield/contentpipe/internal/images"
	"github.com/lexfield/contentpipe/internal/pipeline"
	"github.com/lexfield/contentpipe/internal/scrape"
	"github.com/lexfield/contentpipe/internal/store/rabbitmq"
	"github.com/lexfield/contentpipe/internal/store/redisstore"
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
		// Promotion fan-out is optional; the pipeline publishes without it.
		log.Printf("rabbit unavailable, publishing without events: %v", err)
	} else {
		events = pub
		defer pub.Close()
	}

	svc := pipeline.NewService(repo, scraper, newWriter(cfg), imgClient, events, locks)

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           httpapi.NewRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening on %s", cfg.APIAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("api shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
