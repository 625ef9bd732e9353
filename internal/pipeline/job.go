package pipeline

import (
	"time"

	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type JobType string

const (
	TypeGenerateStrategy JobType = "generate_strategy"
	TypeResearchHarvest  JobType = "research_harvest"
	TypeGenerateOutlines JobType = "generate_outlines"
	TypeGenerateContent  JobType = "generate_content"
	TypeEditorialReview  JobType = "editorial_review"
	TypeGenerateImages   JobType = "generate_images"
	TypePublishContent   JobType = "publish_content"
)

// StageOrder lists the job types in pipeline order. StartCycle staggers
// scheduled_at along this order and tests rely on it.
var StageOrder = []JobType{
	TypeGenerateStrategy,
	TypeResearchHarvest,
	TypeGenerateOutlines,
	TypeGenerateContent,
	TypeEditorialReview,
	TypeGenerateImages,
	TypePublishContent,
}

type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	Type JobType `gorm:"type:varchar(32);not null;index:uniq_week_type,unique,priority:2" json:"type"`

	// WeekNumber is also carried inside Payload; the column exists so the
	// store can filter a cycle without parsing JSON.
	WeekNumber int `gorm:"not null;index;index:uniq_week_type,unique,priority:1" json:"week_number"`

	Payload datatypes.JSON `gorm:"not null" json:"payload"`

	Status JobStatus `gorm:"type:varchar(16);not null;index" json:"status"`

	ScheduledAt time.Time  `gorm:"not null;index" json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "pipeline_jobs" }

// Stage payloads. Every payload carries the owning week number; the rest of
// the fields are knobs the matching stage handler reads.

type StrategyPayload struct {
	WeekNumber     int      `json:"week_number"`
	FocusAreas     []string `json:"focus_areas"`
	TargetAudience string   `json:"target_audience"`
}

type ResearchPayload struct {
	WeekNumber       int     `json:"week_number"`
	TargetSources    int     `json:"target_sources"`
	UsePuppeteer     bool    `json:"use_puppeteer"`
	QualityThreshold float64 `json:"quality_threshold"`
}

type OutlinePayload struct {
	WeekNumber  int            `json:"week_number"`
	PillarCount int            `json:"pillar_count"`
	SpokeCount  int            `json:"spoke_count"`
	WordTargets map[string]int `json:"word_targets"`
}

type ContentPayload struct {
	WeekNumber      int    `json:"week_number"`
	QualityLevel    string `json:"quality_level"`
	SEOOptimization bool   `json:"seo_optimization"`
	LegalCompliance bool   `json:"legal_compliance"`
}

type ReviewPayload struct {
	WeekNumber      int  `json:"week_number"`
	ComplianceCheck bool `json:"compliance_check"`
	SEOOptimization bool `json:"seo_optimization"`
	FactChecking    bool `json:"fact_checking"`
}

type ImagesPayload struct {
	WeekNumber      int      `json:"week_number"`
	ImageTypes      []string `json:"image_types"`
	StylePreference string   `json:"style_preference"`
}

type PublishPayload struct {
	WeekNumber      int  `json:"week_number"`
	UpdateSitemap   bool `json:"update_sitemap"`
	UpdateRSS       bool `json:"update_rss"`
	SocialPromotion bool `json:"social_promotion"`
}
