package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Article modes. A cluster's parent guide carries ModeGuide (or ModeStory for
// plain articles); children carry one of the remaining modes or ModeTopic.
const (
	ModeStory  = "story"
	ModeGuide  = "guide"
	ModeYolo   = "yolo"
	ModeVoices = "voices"
	ModeTopic  = "topic"
	ModeHub    = "hub"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

type Article struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex:idx_articles_slug_app" json:"slug"`
	App         string     `gorm:"column:app;not null;uniqueIndex:idx_articles_slug_app;index" json:"app"`
	ArticleType string     `gorm:"column:article_type;index" json:"article_type"`
	ArticleMode string     `gorm:"column:article_mode;index" json:"article_mode"`
	ClusterID   *uuid.UUID `gorm:"type:uuid;column:cluster_id;index" json:"cluster_id,omitempty"`
	ParentID    *uuid.UUID `gorm:"type:uuid;column:parent_id;index" json:"parent_id,omitempty"`

	Title           string `gorm:"column:title;not null" json:"title"`
	Content         string `gorm:"column:content;type:text" json:"content"`
	Excerpt         string `gorm:"column:excerpt" json:"excerpt"`
	MetaDescription string `gorm:"column:meta_description" json:"meta_description"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`

	Status           string         `gorm:"column:status;not null;default:'draft';index" json:"status"`
	FeaturedAssetURL string         `gorm:"column:featured_asset_url" json:"featured_asset_url,omitempty"`
	HeroAssetURL     string         `gorm:"column:hero_asset_url" json:"hero_asset_url,omitempty"`
	VideoPlaybackID  string         `gorm:"column:video_playback_id;index" json:"video_playback_id,omitempty"`
	VideoAssetID     string         `gorm:"column:video_asset_id" json:"video_asset_id,omitempty"`
	VideoNarrative   datatypes.JSON `gorm:"column:video_narrative;type:jsonb" json:"video_narrative,omitempty"`

	TargetKeyword     string `gorm:"column:target_keyword;index" json:"target_keyword,omitempty"`
	KeywordVolume     int    `gorm:"column:keyword_volume" json:"keyword_volume,omitempty"`
	KeywordDifficulty int    `gorm:"column:keyword_difficulty" json:"keyword_difficulty,omitempty"`

	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	PublishedAt *time.Time     `gorm:"column:published_at;index" json:"published_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Article) TableName() string { return "articles" }

// ArticleCountry links an article into a country hub with a role
// ("cluster", "topic", "voices", ...). Reconstructed hub payloads join
// through this table.
type ArticleCountry struct {
	ArticleID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"article_id"`
	CountryCode string    `gorm:"column:country_code;primaryKey;size:2" json:"country_code"`
	Role        string    `gorm:"column:role;not null" json:"role"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ArticleCountry) TableName() string { return "article_countries" }
