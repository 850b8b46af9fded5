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

type HubRepo interface {
	GetByCountrySlug(ctx context.Context, tx *gorm.DB, countryCode, slug string) (*types.CountryHub, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.CountryHub) (uuid.UUID, error)
}

type hubRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHubRepo(db *gorm.DB, baseLog *logger.Logger) HubRepo {
	return &hubRepo{db: db, log: baseLog.With("repo", "HubRepo")}
}

func (r *hubRepo) GetByCountrySlug(ctx context.Context, tx *gorm.DB, countryCode, slug string) (*types.CountryHub, error) {
	if countryCode == "" || slug == "" {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CountryHub
	if err := t.WithContext(ctx).Where("country_code = ? AND slug = ?", countryCode, slug).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *hubRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.CountryHub) (uuid.UUID, error) {
	if row == nil || row.CountryCode == "" || row.Slug == "" {
		return uuid.Nil, gorm.ErrInvalidData
	}
	t := tx
	if t == nil {
		t = r.db
	}

	existing, err := r.GetByCountrySlug(ctx, t, row.CountryCode, row.Slug)
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
			Columns: []clause.Column{{Name: "country_code"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"location_name",
				"title",
				"meta_description",
				"hub_content",
				"payload",
				"seo_data",
				"video_playback_id",
				"status",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}
