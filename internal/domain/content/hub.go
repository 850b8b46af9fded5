package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CountryHub struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CountryCode  string    `gorm:"column:country_code;not null;size:2;uniqueIndex:idx_country_hubs_code_slug" json:"country_code"`
	LocationName string    `gorm:"column:location_name;not null" json:"location_name"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex:idx_country_hubs_code_slug" json:"slug"`

	Title           string `gorm:"column:title;not null" json:"title"`
	MetaDescription string `gorm:"column:meta_description" json:"meta_description"`
	HubContent      string `gorm:"column:hub_content;type:text" json:"hub_content"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	SEOData datatypes.JSON `gorm:"column:seo_data;type:jsonb" json:"seo_data,omitempty"`

	VideoPlaybackID string `gorm:"column:video_playback_id" json:"video_playback_id,omitempty"`
	Status          string `gorm:"column:status;not null;default:'draft';index" json:"status"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CountryHub) TableName() string { return "country_hubs" }

// Country is read-mostly reference data keyed on ISO 3166-1 alpha-2 code.
type Country struct {
	CountryCode string         `gorm:"column:country_code;primaryKey;size:2" json:"country_code"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Flag        string         `gorm:"column:flag" json:"flag,omitempty"`
	Region      string         `gorm:"column:region;index" json:"region,omitempty"`
	Continent   string         `gorm:"column:continent" json:"continent,omitempty"`
	Facts       datatypes.JSON `gorm:"column:facts;type:jsonb" json:"facts,omitempty"`
	VisaTypes   datatypes.JSON `gorm:"column:visa_types;type:jsonb" json:"visa_types,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Country) TableName() string { return "countries" }
