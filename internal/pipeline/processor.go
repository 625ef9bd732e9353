package pipeline

import (
	"context"
	"fmt"
	"log"
)

const NoJobsReadyMessage = "No jobs ready for processing"

// ProcessResult is the outcome of one ProcessNext call. When no job was due,
// only Message is set. A handler failure is carried in Error; it is never
// returned as a call error.
type ProcessResult struct {
	JobID   string  `json:"job_id,omitempty"`
	JobType JobType `json:"job_type,omitempty"`
	Success bool    `json:"success"`
	Result  any     `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
	Message string  `json:"message,omitempty"`
}

// ProcessNext claims and executes at most one due job. The claim is a single
// conditional update; losing it is indistinguishable from no job being due,
// which is what keeps overlapping invocations from double-running a stage.
func (s *Service) ProcessNext(ctx context.Context) (*ProcessResult, error) {
	now := s.now()

	job, err := s.repo.NextDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("process next: %w", err)
	}
	if job == nil {
		return &ProcessResult{Message: NoJobsReadyMessage}, nil
	}

	claimed, err := s.repo.ClaimJob(ctx, job.ID, now)
	if err != nil {
		return nil, fmt.Errorf("claim job %s: %w", job.ID, err)
	}
	if !claimed {
		return &ProcessResult{Message: NoJobsReadyMessage}, nil
	}

	handler, ok := s.stages[job.Type]
	if !ok {
		// Unknown type can only come from a hand-inserted row.
		msg := fmt.Sprintf("no handler for job type %q", job.Type)
		if err := s.repo.MarkJobFailed(ctx, job.ID, s.now(), msg); err != nil {
			return nil, err
		}
		return &ProcessResult{JobID: job.ID, JobType: job.Type, Error: msg}, nil
	}

	result, handlerErr := handler(ctx, job)
	if handlerErr != nil {
		log.Printf("job %s (%s) failed: %v", job.ID, job.Type, handlerErr)
		if err := s.repo.MarkJobFailed(ctx, job.ID, s.now(), handlerErr.Error()); err != nil {
			return nil, fmt.Errorf("mark job %s failed: %w", job.ID, err)
		}
		return &ProcessResult{
			JobID:   job.ID,
			JobType: job.Type,
			Error:   handlerErr.Error(),
		}, nil
	}

	if err := s.repo.MarkJobCompleted(ctx, job.ID, s.now()); err != nil {
		return nil, fmt.Errorf("mark job %s completed: %w", job.ID, err)
	}

	return &ProcessResult{
		JobID:   job.ID,
		JobType: job.Type,
		Success: true,
		Result:  result,
	}, nil
}
