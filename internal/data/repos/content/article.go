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

// ArticleRepo owns the slug-keyed article table. All writes are upserts on
// (slug, app); the returned id is stable across activity replays.
type ArticleRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Article, error)
	GetBySlugApp(ctx context.Context, tx *gorm.DB, slug, app string) (*types.Article, error)
	GetRecentByApp(ctx context.Context, tx *gorm.DB, app string, since time.Time, limit int) ([]*types.Article, error)
	GetByClusterID(ctx context.Context, tx *gorm.DB, clusterID uuid.UUID) ([]*types.Article, error)

	Upsert(ctx context.Context, tx *gorm.DB, row *types.Article) (uuid.UUID, error)
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	return &articleRepo{db: db, log: baseLog.With("repo", "ArticleRepo")}
}

func (r *articleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Article, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Article
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *articleRepo) GetBySlugApp(ctx context.Context, tx *gorm.DB, slug, app string) (*types.Article, error) {
	if slug == "" || app == "" {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Article
	if err := t.WithContext(ctx).Where("slug = ? AND app = ?", slug, app).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *articleRepo) GetRecentByApp(ctx context.Context, tx *gorm.DB, app string, since time.Time, limit int) ([]*types.Article, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.Article
	if err := t.WithContext(ctx).
		Where("app = ? AND created_at >= ?", app, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *articleRepo) GetByClusterID(ctx context.Context, tx *gorm.DB, clusterID uuid.UUID) ([]*types.Article, error) {
	if clusterID == uuid.Nil {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Article
	if err := t.WithContext(ctx).
		Where("cluster_id = ?", clusterID).
		Order("parent_id ASC NULLS FIRST, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *articleRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Article) (uuid.UUID, error) {
	if row == nil || row.Slug == "" || row.App == "" {
		return uuid.Nil, gorm.ErrInvalidData
	}
	t := tx
	if t == nil {
		t = r.db
	}

	// Reuse the existing id so replays return the same value.
	existing, err := r.GetBySlugApp(ctx, t, row.Slug, row.App)
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
			Columns: []clause.Column{{Name: "slug"}, {Name: "app"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"article_type",
				"article_mode",
				"cluster_id",
				"parent_id",
				"title",
				"content",
				"excerpt",
				"meta_description",
				"payload",
				"status",
				"featured_asset_url",
				"hero_asset_url",
				"video_playback_id",
				"video_asset_id",
				"video_narrative",
				"target_keyword",
				"keyword_volume",
				"keyword_difficulty",
				"published_at",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}
