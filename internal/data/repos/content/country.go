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

type CountryRepo interface {
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Country, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Country) error
	LinkArticle(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, countryCode, role string) error
}

type countryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCountryRepo(db *gorm.DB, baseLog *logger.Logger) CountryRepo {
	return &countryRepo{db: db, log: baseLog.With("repo", "CountryRepo")}
}

func (r *countryRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Country, error) {
	if code == "" {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Country
	if err := t.WithContext(ctx).Where("country_code = ?", code).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *countryRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Country) error {
	if row == nil || row.CountryCode == "" {
		return gorm.ErrInvalidData
	}
	t := tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "country_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "slug", "flag", "region", "continent", "facts", "visa_types", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *countryRepo) LinkArticle(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, countryCode, role string) error {
	if articleID == uuid.Nil || countryCode == "" {
		return nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	row := &types.ArticleCountry{
		ArticleID:   articleID,
		CountryCode: countryCode,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "article_id"}, {Name: "country_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(row).Error
}
