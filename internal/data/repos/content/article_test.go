package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pressroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pressroom-backend/internal/domain"
)

func TestArticleRepo_UpsertIsIdempotentOnSlugApp(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewArticleRepo(db, testutil.Logger(t))
	ctx := context.Background()

	slug := "upsert-idempotent-" + uuid.NewString()[:8]

	first := &types.Article{
		Slug:        slug,
		App:         "finance",
		ArticleMode: types.ModeStory,
		Title:       "First title",
		Content:     "<p>first</p>",
		Status:      types.StatusDraft,
	}
	id1, err := repo.Upsert(ctx, tx, first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if id1 == uuid.Nil {
		t.Fatalf("first upsert returned nil id")
	}

	second := &types.Article{
		Slug:        slug,
		App:         "finance",
		ArticleMode: types.ModeStory,
		Title:       "Second title",
		Content:     "<p>second</p>",
		Status:      types.StatusPublished,
	}
	id2, err := repo.Upsert(ctx, tx, second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("upsert changed the id: first=%s second=%s", id1, id2)
	}

	got, err := repo.GetBySlugApp(ctx, tx, slug, "finance")
	if err != nil {
		t.Fatalf("GetBySlugApp: %v", err)
	}
	if got == nil {
		t.Fatalf("article not found after upsert")
	}
	if got.Title != "Second title" || got.Status != types.StatusPublished {
		t.Fatalf("upsert did not replace mutable columns: %+v", got)
	}
}

func TestArticleRepo_SameSlugDifferentAppAreDistinct(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewArticleRepo(db, testutil.Logger(t))
	ctx := context.Background()

	slug := "cross-app-" + uuid.NewString()[:8]

	idA, err := repo.Upsert(ctx, tx, &types.Article{Slug: slug, App: "finance", Title: "a", Status: types.StatusDraft})
	if err != nil {
		t.Fatalf("upsert app a: %v", err)
	}
	idB, err := repo.Upsert(ctx, tx, &types.Article{Slug: slug, App: "relocation", Title: "b", Status: types.StatusDraft})
	if err != nil {
		t.Fatalf("upsert app b: %v", err)
	}
	if idA == idB {
		t.Fatalf("distinct apps collided on slug %q", slug)
	}
}

func TestArticleRepo_GetRecentByApp(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewArticleRepo(db, testutil.Logger(t))
	ctx := context.Background()

	app := "app-" + uuid.NewString()[:8]
	for i := 0; i < 3; i++ {
		_, err := repo.Upsert(ctx, tx, &types.Article{
			Slug:   "recent-" + uuid.NewString()[:8],
			App:    app,
			Title:  "t",
			Status: types.StatusPublished,
		})
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	since := time.Now().UTC().Add(-7 * 24 * time.Hour)
	got, err := repo.GetRecentByApp(ctx, tx, app, since, 2)
	if err != nil {
		t.Fatalf("GetRecentByApp: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}

	none, err := repo.GetRecentByApp(ctx, tx, app, time.Now().UTC().Add(time.Hour), 50)
	if err != nil {
		t.Fatalf("GetRecentByApp future since: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no rows newer than the future cutoff, got %d", len(none))
	}
}

func TestArticleRepo_GetByClusterID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewArticleRepo(db, testutil.Logger(t))
	ctx := context.Background()

	cluster := uuid.New()

	parentID, err := repo.Upsert(ctx, tx, &types.Article{
		Slug:        "cluster-parent-" + uuid.NewString()[:8],
		App:         "relocation",
		ArticleMode: types.ModeGuide,
		ClusterID:   &cluster,
		Title:       "parent",
		Status:      types.StatusPublished,
	})
	if err != nil {
		t.Fatalf("upsert parent: %v", err)
	}

	_, err = repo.Upsert(ctx, tx, &types.Article{
		Slug:        "cluster-child-" + uuid.NewString()[:8],
		App:         "relocation",
		ArticleMode: types.ModeTopic,
		ClusterID:   &cluster,
		ParentID:    &parentID,
		Title:       "child",
		Status:      types.StatusPublished,
	})
	if err != nil {
		t.Fatalf("upsert child: %v", err)
	}

	got, err := repo.GetByClusterID(ctx, tx, cluster)
	if err != nil {
		t.Fatalf("GetByClusterID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cluster rows, got %d", len(got))
	}
	if got[0].ParentID != nil {
		t.Fatalf("expected the cluster parent first, got child %s", got[0].ID)
	}
}
