package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// sourceCatalog is the fixed harvest list. Trust is a per-outlet baseline the
// quality threshold filters against.
var sourceCatalog = []struct {
	URL   string
	Trust float64
}{
	{"https://www.lawsitesblog.com", 0.9},
	{"https://www.abajournal.com/topics/legal-technology", 0.95},
	{"https://www.artificiallawyer.com", 0.85},
	{"https://www.legaltechnews.com", 0.8},
	{"https://www.lawnext.com", 0.85},
	{"https://www.legalitprofessionals.com", 0.65},
	{"https://abovethelaw.com/technology", 0.6},
}

type researchResult struct {
	WeekNumber     int `json:"week_number"`
	SourcesStored  int `json:"sources_stored"`
	SourcesSkipped int `json:"sources_skipped"`
}

func (s *Service) runResearchHarvest(ctx context.Context, job *Job) (any, error) {
	var p ResearchPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("research_harvest: bad payload: %w", err)
	}
	if s.scraper == nil {
		return nil, errors.New("research_harvest: no scraper configured")
	}

	n := p.TargetSources
	if n < 0 {
		n = 0
	}
	if n > len(sourceCatalog) {
		n = len(sourceCatalog)
	}

	stored, skipped := 0, 0
	for _, src := range sourceCatalog[:n] {
		if src.Trust < p.QualityThreshold {
			skipped++
			continue
		}

		page, err := s.scraper.Extract(ctx, src.URL, p.UsePuppeteer)
		if err != nil {
			return nil, fmt.Errorf("research_harvest: extract %s: %w", src.URL, err)
		}

		if err := s.repo.CreateSource(ctx, &ResearchSource{
			WeekNumber: p.WeekNumber,
			URL:        page.URL,
			Title:      page.Title,
			Excerpt:    page.Text,
			TrustScore: src.Trust,
		}); err != nil {
			return nil, fmt.Errorf("research_harvest: store source: %w", err)
		}
		stored++
	}

	return researchResult{WeekNumber: p.WeekNumber, SourcesStored: stored, SourcesSkipped: skipped}, nil
}
