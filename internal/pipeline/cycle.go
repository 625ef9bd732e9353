package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// projectEpoch anchors week numbering. Week 1 starts here; the number is
// derived from wall-clock time, never stored as global state.
var projectEpoch = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

// WeekNumberAt returns the 1-based pipeline week containing t.
func WeekNumberAt(t time.Time) int {
	return int(t.Sub(projectEpoch)/(7*24*time.Hour)) + 1
}

// stageOffsets staggers the cycle's jobs so each stage's external work has
// nominally finished before the next stage becomes claimable. Indexed in
// StageOrder order, strictly increasing.
var stageOffsets = []time.Duration{
	0,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	45 * time.Minute,
	50 * time.Minute,
	70 * time.Minute,
}

// completionBuffer pads the estimate past the last stage's offset.
const completionBuffer = 15 * time.Minute

type CycleStart struct {
	WeekNumber          int                `json:"week_number"`
	JobIDs              map[JobType]string `json:"jobs"`
	EstimatedCompletion time.Time          `json:"estimated_completion"`
}

// StartCycle enqueues the week's seven stage jobs with staggered scheduled_at
// values. The insert is transactional and the (week_number, type) unique index
// rejects a second cycle for the same week, so calling this twice cannot
// produce duplicate stages.
func (s *Service) StartCycle(ctx context.Context, week int) (*CycleStart, error) {
	if week <= 0 {
		return nil, fmt.Errorf("start cycle: invalid week number %d", week)
	}

	now := s.now()
	jobs := make([]*Job, 0, len(StageOrder))
	ids := make(map[JobType]string, len(StageOrder))

	for i, typ := range StageOrder {
		id, err := NewJobID()
		if err != nil {
			return nil, err
		}

		payload, err := defaultPayload(typ, week)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, &Job{
			ID:          id,
			Type:        typ,
			WeekNumber:  week,
			Payload:     payload,
			Status:      JobPending,
			ScheduledAt: now.Add(stageOffsets[i]),
		})
		ids[typ] = id
	}

	if err := s.repo.CreateJobs(ctx, jobs); err != nil {
		return nil, fmt.Errorf("start cycle week %d: %w", week, err)
	}

	return &CycleStart{
		WeekNumber:          week,
		JobIDs:              ids,
		EstimatedCompletion: now.Add(stageOffsets[len(stageOffsets)-1] + completionBuffer),
	}, nil
}

func defaultPayload(typ JobType, week int) ([]byte, error) {
	var p any
	switch typ {
	case TypeGenerateStrategy:
		p = StrategyPayload{
			WeekNumber:     week,
			FocusAreas:     []string{"legal_ai", "law_firm_operations", "compliance"},
			TargetAudience: "small and mid-size law firms",
		}
	case TypeResearchHarvest:
		p = ResearchPayload{
			WeekNumber:       week,
			TargetSources:    5,
			UsePuppeteer:     true,
			QualityThreshold: 0.7,
		}
	case TypeGenerateOutlines:
		p = OutlinePayload{
			WeekNumber:  week,
			PillarCount: 1,
			SpokeCount:  3,
			WordTargets: map[string]int{"pillar": 2500, "spoke": 1200},
		}
	case TypeGenerateContent:
		p = ContentPayload{
			WeekNumber:      week,
			QualityLevel:    "premium",
			SEOOptimization: true,
			LegalCompliance: true,
		}
	case TypeEditorialReview:
		p = ReviewPayload{
			WeekNumber:      week,
			ComplianceCheck: true,
			SEOOptimization: true,
			FactChecking:    true,
		}
	case TypeGenerateImages:
		p = ImagesPayload{
			WeekNumber:      week,
			ImageTypes:      []string{"hero", "social", "diagram"},
			StylePreference: "professional",
		}
	case TypePublishContent:
		p = PublishPayload{
			WeekNumber:      week,
			UpdateSitemap:   true,
			UpdateRSS:       true,
			SocialPromotion: true,
		}
	default:
		return nil, fmt.Errorf("unknown job type %q", typ)
	}
	return json.Marshal(p)
}
