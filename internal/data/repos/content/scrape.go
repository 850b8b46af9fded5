package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
)

type BoardRepo interface {
	GetByApp(ctx context.Context, tx *gorm.DB, app string) ([]*types.Board, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Board) (uuid.UUID, error)
	TouchScraped(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type boardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBoardRepo(db *gorm.DB, baseLog *logger.Logger) BoardRepo {
	return &boardRepo{db: db, log: baseLog.With("repo", "BoardRepo")}
}

func (r *boardRepo) GetByApp(ctx context.Context, tx *gorm.DB, app string) ([]*types.Board, error) {
	if app == "" {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Board
	if err := t.WithContext(ctx).Where("app = ?", app).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *boardRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Board) (uuid.UUID, error) {
	if row == nil || row.App == "" || row.Name == "" {
		return uuid.Nil, gorm.ErrInvalidData
	}
	t := tx
	if t == nil {
		t = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if err := t.WithContext(ctx).Save(row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (r *boardRepo) TouchScraped(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Model(&types.Board{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_scraped_at": at, "updated_at": time.Now().UTC()}).Error
}

type ScrapeHistoryRepo interface {
	Append(ctx context.Context, tx *gorm.DB, boardID *uuid.UUID, status string, found int, took time.Duration) error
	GetRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ScrapeHistory, error)
}

type scrapeHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScrapeHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ScrapeHistoryRepo {
	return &scrapeHistoryRepo{db: db, log: baseLog.With("repo", "ScrapeHistoryRepo")}
}

func (r *scrapeHistoryRepo) Append(ctx context.Context, tx *gorm.DB, boardID *uuid.UUID, status string, found int, took time.Duration) error {
	t := tx
	if t == nil {
		t = r.db
	}
	row := &types.ScrapeHistory{
		ID:              uuid.New(),
		BoardID:         boardID,
		Status:          status,
		JobsFound:       found,
		ExecutionTimeMs: took.Milliseconds(),
		StartedAt:       time.Now().UTC(),
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *scrapeHistoryRepo) GetRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ScrapeHistory, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var out []*types.ScrapeHistory
	if err := t.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
