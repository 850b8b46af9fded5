package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board is a monitored source (news keyword set or job board URL) that the
// scheduled monitor sweeps.
type Board struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	App           string         `gorm:"column:app;not null;index" json:"app"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	URL           string         `gorm:"column:url" json:"url,omitempty"`
	Keywords      string         `gorm:"column:keywords" json:"keywords,omitempty"`
	LastScrapedAt *time.Time     `gorm:"column:last_scraped_at;index" json:"last_scraped_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Board) TableName() string { return "boards" }

// ScrapeHistory is an append-only ledger of monitor sweeps.
type ScrapeHistory struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID         *uuid.UUID `gorm:"type:uuid;column:board_id;index" json:"board_id,omitempty"`
	Status          string     `gorm:"column:status;not null" json:"status"`
	JobsFound       int        `gorm:"column:jobs_found;not null;default:0" json:"jobs_found"`
	ExecutionTimeMs int64      `gorm:"column:execution_time_ms;not null;default:0" json:"execution_time_ms"`
	StartedAt       time.Time  `gorm:"column:started_at;not null;default:now();index" json:"started_at"`
}

func (ScrapeHistory) TableName() string { return "scrape_history" }
