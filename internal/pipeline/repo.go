package pipeline

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// CreateJobs inserts a cycle's jobs in one transaction so a mid-cycle write
// failure leaves no orphaned stages. The unique (week_number, type) index
// rejects a duplicate cycle at the store level.
func (r *Repo) CreateJobs(ctx context.Context, jobs []*Job) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, j := range jobs {
			if err := tx.Create(j).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// NextDue returns the earliest pending job whose scheduled_at has passed, or
// nil when nothing is ready.
func (r *Repo) NextDue(ctx context.Context, now time.Time) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", JobPending, now).
		Order("scheduled_at ASC").
		First(&j).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

// ClaimJob marks a job in_progress only if it is still pending. The returned
// bool is the claim: false means another processor got there first.
func (r *Repo) ClaimJob(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobPending).
		Updates(map[string]any{
			"status":     JobInProgress,
			"started_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repo) MarkJobCompleted(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       JobCompleted,
			"completed_at": now,
			"error":        nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, now time.Time, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       JobFailed,
			"completed_at": now,
			"error":        errMsg,
		}).Error
}

// ReclaimStale flips in_progress jobs whose claim is older than the window
// back to pending so a crashed processor cannot strand a cycle.
func (r *Repo) ReclaimStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("status = ? AND started_at < ?", JobInProgress, olderThan).
		Updates(map[string]any{
			"status":     JobPending,
			"started_at": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *Repo) HasJobsForWeek(ctx context.Context, week int) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Job{}).
		Where("week_number = ?", week).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) ListJobsByWeek(ctx context.Context, week int) ([]Job, error) {
	var jobs []Job
	if err := r.db.WithContext(ctx).
		Where("week_number = ?", week).
		Order("scheduled_at ASC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Posts

func (r *Repo) CreatePost(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindPostByWeekAndStatus returns the week's artifact in the given status, or
// nil when no such post exists (stage preconditions branch on that).
func (r *Repo) FindPostByWeekAndStatus(ctx context.Context, week int, status PostStatus) (*Post, error) {
	var p Post
	err := r.db.WithContext(ctx).
		Where("week_number = ? AND status = ?", week, status).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListPostsNeedingImages returns the week's posts past review that have not
// had their images generated yet.
func (r *Repo) ListPostsNeedingImages(ctx context.Context, week int) ([]Post, error) {
	var posts []Post
	err := r.db.WithContext(ctx).
		Where("week_number = ? AND status IN ? AND images_generated = ?",
			week, []PostStatus{PostScheduled, PostPublished}, false).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *Repo) SavePost(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Research sources

func (r *Repo) CreateSource(ctx context.Context, s *ResearchSource) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) CountSourcesByWeek(ctx context.Context, week int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ResearchSource{}).
		Where("week_number = ?", week).
		Count(&n).Error
	return n, err
}

// Trigger audit log

func (r *Repo) CreateTriggerRun(ctx context.Context, t *TriggerRun) error {
	return r.db.WithContext(ctx).Create(t).Error
}
