package pipeline

import (
	"time"

	"gorm.io/datatypes"
)

type PostStatus string

const (
	PostIdea      PostStatus = "idea"
	PostOutline   PostStatus = "outline"
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
)

// Post is the content artifact a cycle's stages progressively fill in. The
// pipeline only ever touches the fields below; rendering lives elsewhere.
type Post struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	WeekNumber int        `gorm:"not null;index" json:"week_number"`
	Title      string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Status     PostStatus `gorm:"type:varchar(16);not null;index" json:"status"`

	// Strategy document, outline and review notes accumulate here.
	Metadata datatypes.JSON `json:"metadata"`

	Body string `gorm:"type:text" json:"body"`

	HeroImageURL    string `gorm:"type:varchar(512)" json:"hero_image_url"`
	SocialImageURL  string `gorm:"type:varchar(512)" json:"social_image_url"`
	DiagramImageURL string `gorm:"type:varchar(512)" json:"diagram_image_url"`
	ImagesGenerated bool   `gorm:"not null;default:false" json:"images_generated"`

	PublishedAt *time.Time `json:"published_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

// ResearchSource is one harvested page kept for the week's writing stage.
type ResearchSource struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	WeekNumber int     `gorm:"not null;index" json:"week_number"`
	URL        string  `gorm:"type:varchar(512);not null" json:"url"`
	Title      string  `gorm:"type:varchar(255)" json:"title"`
	Excerpt    string  `gorm:"type:text" json:"excerpt"`
	TrustScore float64 `gorm:"not null" json:"trust_score"`

	CreatedAt time.Time `json:"created_at"`
}

func (ResearchSource) TableName() string { return "research_sources" }

// TriggerRun is the audit record the scheduler tick writes, one row per
// invocation whether or not a cycle was started.
type TriggerRun struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"` // UUID
	WeekNumber int       `gorm:"not null;index" json:"week_number"`
	Source     string    `gorm:"type:varchar(32);not null" json:"source"`
	Skipped    bool      `gorm:"not null" json:"skipped"`
	Outcome    string    `gorm:"type:varchar(255)" json:"outcome"`
	CreatedAt  time.Time `json:"created_at"`
}

func (TriggerRun) TableName() string { return "trigger_runs" }
