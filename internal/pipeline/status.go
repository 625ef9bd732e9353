package pipeline

import (
	"context"
	"math"
)

type CycleStatus struct {
	WeekNumber         int   `json:"week_number"`
	TotalJobs          int   `json:"total_jobs"`
	Completed          int   `json:"completed"`
	InProgress         int   `json:"in_progress"`
	Pending            int   `json:"pending"`
	Failed             int   `json:"failed"`
	ProgressPercentage int   `json:"progress_percentage"`
	Jobs               []Job `json:"jobs"`
}

// CycleStatus aggregates the week's job counts. A week with no jobs yet
// reports zero totals and zero progress rather than an error.
func (s *Service) CycleStatus(ctx context.Context, week int) (*CycleStatus, error) {
	jobs, err := s.repo.ListJobsByWeek(ctx, week)
	if err != nil {
		return nil, err
	}

	st := &CycleStatus{
		WeekNumber: week,
		TotalJobs:  len(jobs),
		Jobs:       jobs,
	}
	for _, j := range jobs {
		switch j.Status {
		case JobCompleted:
			st.Completed++
		case JobInProgress:
			st.InProgress++
		case JobPending:
			st.Pending++
		case JobFailed:
			st.Failed++
		}
	}
	if st.TotalJobs > 0 {
		st.ProgressPercentage = int(math.Round(100 * float64(st.Completed) / float64(st.TotalJobs)))
	}
	return st, nil
}
