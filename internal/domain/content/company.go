package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Company struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug             string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Name             string         `gorm:"column:name;not null" json:"name"`
	App              string         `gorm:"column:app;index" json:"app"`
	WebsiteURL       string         `gorm:"column:website_url" json:"website_url,omitempty"`
	Category         string         `gorm:"column:category;index" json:"category,omitempty"`
	FeaturedImageURL string         `gorm:"column:featured_image_url" json:"featured_image_url,omitempty"`
	MetaDescription  string         `gorm:"column:meta_description" json:"meta_description,omitempty"`
	Payload          datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Status           string         `gorm:"column:status;not null;default:'draft';index" json:"status"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Company) TableName() string { return "companies" }

// ArticleCompany is the many-to-many join between articles and the companies
// they mention, weighted by relevance.
type ArticleCompany struct {
	ArticleID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"article_id"`
	CompanyID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"company_id"`
	RelevanceScore float64   `gorm:"column:relevance_score;not null;default:0" json:"relevance_score"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ArticleCompany) TableName() string { return "article_companies" }
