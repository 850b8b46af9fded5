package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
)

type CompanyRepo interface {
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Company, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Company) (uuid.UUID, error)
	LinkArticle(ctx context.Context, tx *gorm.DB, articleID, companyID uuid.UUID, relevance float64) error
}

type companyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyRepo(db *gorm.DB, baseLog *logger.Logger) CompanyRepo {
	return &companyRepo{db: db, log: baseLog.With("repo", "CompanyRepo")}
}

func (r *companyRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Company, error) {
	if slug == "" {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Company
	if err := t.WithContext(ctx).Where("slug = ?", slug).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *companyRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Company) (uuid.UUID, error) {
	if row == nil || row.Slug == "" {
		return uuid.Nil, gorm.ErrInvalidData
	}
	t := tx
	if t == nil {
		t = r.db
	}

	existing, err := r.GetBySlug(ctx, t, row.Slug)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}

	now := time.Now().UTC()
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}

	if err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"app",
				"website_url",
				"category",
				"featured_image_url",
				"meta_description",
				"payload",
				"status",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (r *companyRepo) LinkArticle(ctx context.Context, tx *gorm.DB, articleID, companyID uuid.UUID, relevance float64) error {
	if articleID == uuid.Nil || companyID == uuid.Nil {
		return nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	row := &types.ArticleCompany{
		ArticleID:      articleID,
		CompanyID:      companyID,
		RelevanceScore: relevance,
		CreatedAt:      time.Now().UTC(),
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "article_id"}, {Name: "company_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"relevance_score"}),
		}).
		Create(row).Error
}
