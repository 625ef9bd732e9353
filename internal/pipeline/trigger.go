package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// tickLockTTL bounds how long a crashed tick can hold the cycle-start lock.
const tickLockTTL = 10 * time.Minute

type TickResult struct {
	WeekNumber          int                `json:"week_number"`
	Skipped             bool               `json:"skipped"`
	JobsCreated         int                `json:"jobs_created,omitempty"`
	JobIDs              map[JobType]string `json:"jobs,omitempty"`
	EstimatedCompletion *time.Time         `json:"estimated_completion,omitempty"`
}

// Tick computes the current week from the clock and starts its cycle unless
// one already exists. This pre-check, not StartCycle, is what makes the weekly
// trigger (and its backup invocation) idempotent; the lock only narrows the
// window between two ticks racing the same check.
func (s *Service) Tick(ctx context.Context, source string) (*TickResult, error) {
	week := WeekNumberAt(s.now())

	var lockKey string
	if s.lock != nil {
		lockKey = fmt.Sprintf("contentpipe:cycle_start:%d", week)
		ok, err := s.lock.Acquire(ctx, lockKey, tickLockTTL)
		if err != nil {
			return nil, fmt.Errorf("tick: acquire lock: %w", err)
		}
		if !ok {
			return &TickResult{WeekNumber: week, Skipped: true}, nil
		}
	}

	exists, err := s.repo.HasJobsForWeek(ctx, week)
	if err != nil {
		s.releaseTickLock(ctx, lockKey)
		return nil, fmt.Errorf("tick: %w", err)
	}
	if exists {
		s.recordTrigger(ctx, week, source, true, "cycle already enqueued")
		return &TickResult{WeekNumber: week, Skipped: true}, nil
	}

	start, err := s.StartCycle(ctx, week)
	if err != nil {
		s.recordTrigger(ctx, week, source, false, "start failed: "+err.Error())
		s.releaseTickLock(ctx, lockKey)
		return nil, err
	}

	s.recordTrigger(ctx, week, source, false, fmt.Sprintf("enqueued %d jobs", len(start.JobIDs)))

	est := start.EstimatedCompletion
	return &TickResult{
		WeekNumber:          week,
		JobsCreated:         len(start.JobIDs),
		JobIDs:              start.JobIDs,
		EstimatedCompletion: &est,
	}, nil
}

// releaseTickLock frees the cycle-start lock after a failed tick so a retry
// does not have to wait out the TTL.
func (s *Service) releaseTickLock(ctx context.Context, key string) {
	if s.lock == nil || key == "" {
		return
	}
	if err := s.lock.Release(ctx, key); err != nil {
		log.Printf("release lock %s: %v", key, err)
	}
}

// recordTrigger writes the audit row; a failure here must not fail the tick.
func (s *Service) recordTrigger(ctx context.Context, week int, source string, skipped bool, outcome string) {
	run := &TriggerRun{
		ID:         uuid.NewString(),
		WeekNumber: week,
		Source:     source,
		Skipped:    skipped,
		Outcome:    outcome,
	}
	if err := s.repo.CreateTriggerRun(ctx, run); err != nil {
		log.Printf("trigger run log failed (week=%d source=%s): %v", week, source, err)
	}
}
