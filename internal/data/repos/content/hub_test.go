package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pressroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pressroom-backend/internal/domain"
)

func TestHubRepo_UpsertKeyedOnCountryAndSlug(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewHubRepo(db, testutil.Logger(t))
	ctx := context.Background()

	slug := "hub-" + uuid.NewString()[:8]

	id1, err := repo.Upsert(ctx, tx, &types.CountryHub{
		CountryCode:  "SG",
		LocationName: "Singapore",
		Slug:         slug,
		Title:        "Living in Singapore",
		Payload:      datatypes.JSON([]byte(`{}`)),
		Status:       types.StatusDraft,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	id2, err := repo.Upsert(ctx, tx, &types.CountryHub{
		CountryCode:  "SG",
		LocationName: "Singapore",
		Slug:         slug,
		Title:        "Living in Singapore, updated",
		Payload:      datatypes.JSON([]byte(`{"v":2}`)),
		Status:       types.StatusPublished,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("hub upsert changed the id: %s vs %s", id1, id2)
	}

	got, err := repo.GetByCountrySlug(ctx, tx, "SG", slug)
	if err != nil {
		t.Fatalf("GetByCountrySlug: %v", err)
	}
	if got == nil || got.Title != "Living in Singapore, updated" || got.Status != types.StatusPublished {
		t.Fatalf("hub not replaced: %+v", got)
	}

	// Same slug under another country is a separate hub.
	id3, err := repo.Upsert(ctx, tx, &types.CountryHub{
		CountryCode:  "GB",
		LocationName: "United Kingdom",
		Slug:         slug,
		Title:        "Living in the UK",
		Payload:      datatypes.JSON([]byte(`{}`)),
		Status:       types.StatusDraft,
	})
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if id3 == id1 {
		t.Fatalf("hubs for distinct countries collided on slug %q", slug)
	}
}

func TestCompanyRepo_UpsertAndLink(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	companies := NewCompanyRepo(db, log)
	articles := NewArticleRepo(db, log)
	ctx := context.Background()

	slug := "acme-" + uuid.NewString()[:8]
	id1, err := companies.Upsert(ctx, tx, &types.Company{
		Slug:   slug,
		Name:   "Acme Capital",
		App:    "finance",
		Status: types.StatusDraft,
	})
	if err != nil {
		t.Fatalf("company upsert: %v", err)
	}
	id2, err := companies.Upsert(ctx, tx, &types.Company{
		Slug:   slug,
		Name:   "Acme Capital LLP",
		App:    "finance",
		Status: types.StatusPublished,
	})
	if err != nil {
		t.Fatalf("company re-upsert: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("company upsert changed the id")
	}

	articleID, err := articles.Upsert(ctx, tx, &types.Article{
		Slug:   "acme-profile-" + uuid.NewString()[:8],
		App:    "finance",
		Title:  "profile",
		Status: types.StatusPublished,
	})
	if err != nil {
		t.Fatalf("article upsert: %v", err)
	}

	if err := companies.LinkArticle(ctx, tx, articleID, id1, 0.9); err != nil {
		t.Fatalf("link: %v", err)
	}
	// Re-linking updates the score instead of erroring.
	if err := companies.LinkArticle(ctx, tx, articleID, id1, 0.4); err != nil {
		t.Fatalf("re-link: %v", err)
	}

	var link types.ArticleCompany
	if err := tx.Where("article_id = ? AND company_id = ?", articleID, id1).First(&link).Error; err != nil {
		t.Fatalf("read link: %v", err)
	}
	if link.RelevanceScore != 0.4 {
		t.Fatalf("expected relevance 0.4, got %v", link.RelevanceScore)
	}
}
