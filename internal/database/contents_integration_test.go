package database

import (
	"context"
	"errors"
	"testing"

	"nyapix/internal/models"
)

func TestCreateContentIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	tag := createTestFacet(t, db, models.FacetTag, "sky", u.ID)
	char := createTestFacet(t, db, models.FacetCharacter, "miku", u.ID)
	author := createTestFacet(t, db, models.FacetAuthor, "kei", u.ID)
	src, err := db.CreateSource(ctx, "pixiv")
	if err != nil {
		t.Fatalf("CreateSource failed: %v", err)
	}

	id := createTestContent(t, db, models.ContentItem{
		Title:        "evening",
		Description:  "a photo",
		OwnerID:      u.ID,
		Visibility:   models.VisibilityPrivate,
		SourceID:     &src.ID,
		TagIDs:       []int64{tag},
		CharacterIDs: []int64{char},
		AuthorIDs:    []int64{author},
		Media: &models.Media{
			Kind:      models.MediaImage,
			ObjectKey: "objects/abc.png",
			MimeType:  "image/png",
			Size:      1024,
		},
	})

	items, err := db.ContentsByID(ctx, []int64{id, 999})
	if err != nil {
		t.Fatalf("ContentsByID failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("ContentsByID returned %d items, want 1", len(items))
	}
	got := items[id]
	if got.Title != "evening" || got.Description != "a photo" || got.Visibility != models.VisibilityPrivate {
		t.Errorf("unexpected content fields: %+v", got)
	}
	if got.SourceID == nil || *got.SourceID != src.ID {
		t.Errorf("SourceID = %v, want %d", got.SourceID, src.ID)
	}
	if len(got.TagIDs) != 1 || got.TagIDs[0] != tag {
		t.Errorf("TagIDs = %v", got.TagIDs)
	}
	if len(got.CharacterIDs) != 1 || got.CharacterIDs[0] != char {
		t.Errorf("CharacterIDs = %v", got.CharacterIDs)
	}
	if len(got.AuthorIDs) != 1 || got.AuthorIDs[0] != author {
		t.Errorf("AuthorIDs = %v", got.AuthorIDs)
	}
	if got.Media == nil || got.Media.ObjectKey != "objects/abc.png" || got.Media.Kind != models.MediaImage {
		t.Errorf("Media = %+v", got.Media)
	}
}

func TestContentsByIDEmptyFacetsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	u := createTestUser(t, db, "alice")
	id := createTestContent(t, db, models.ContentItem{OwnerID: u.ID})

	items, err := db.ContentsByID(context.Background(), []int64{id})
	if err != nil {
		t.Fatalf("ContentsByID failed: %v", err)
	}
	got := items[id]
	if got.TagIDs == nil || got.CharacterIDs == nil || got.AuthorIDs == nil {
		t.Error("facet id lists should be empty, not nil")
	}
	if got.Media != nil {
		t.Errorf("Media = %+v, want nil", got.Media)
	}
}

func TestCreateContentInvalidFacetRollsBackIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")

	_, err := db.CreateContent(ctx, &models.ContentItem{
		Title:      "broken",
		OwnerID:    u.ID,
		Visibility: models.VisibilityPublic,
		TagIDs:     []int64{12345},
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("CreateContent error = %v, want ErrInvalidReference", err)
	}

	ids, _, total, err := db.ContentIDsByOwner(ctx, u.ID, 1, 10)
	if err != nil {
		t.Fatalf("ContentIDsByOwner failed: %v", err)
	}
	if total != 0 || len(ids) != 0 {
		t.Errorf("content row survived a failed create: total=%d ids=%v", total, ids)
	}
}

func TestUpdateContentIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	old := createTestFacet(t, db, models.FacetTag, "old", u.ID)
	fresh := createTestFacet(t, db, models.FacetTag, "fresh", u.ID)
	author := createTestFacet(t, db, models.FacetAuthor, "kei", u.ID)
	src, _ := db.CreateSource(ctx, "web")

	id := createTestContent(t, db, models.ContentItem{
		OwnerID:   u.ID,
		SourceID:  &src.ID,
		TagIDs:    []int64{old},
		AuthorIDs: []int64{author},
	})

	title := "renamed"
	vis := models.VisibilityPrivate
	noSource := int64(0)
	err := db.UpdateContent(ctx, id, ContentUpdate{
		Title:      &title,
		Visibility: &vis,
		SourceID:   &noSource,
		Facets:     map[models.FacetKind][]int64{models.FacetTag: {fresh}},
	})
	if err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}

	items, _ := db.ContentsByID(ctx, []int64{id})
	got := items[id]
	if got.Title != "renamed" || got.Visibility != models.VisibilityPrivate {
		t.Errorf("fields not updated: %+v", got)
	}
	if got.SourceID != nil {
		t.Errorf("SourceID = %v, want nil", *got.SourceID)
	}
	if len(got.TagIDs) != 1 || got.TagIDs[0] != fresh {
		t.Errorf("TagIDs = %v, want [%d]", got.TagIDs, fresh)
	}
	if len(got.AuthorIDs) != 1 || got.AuthorIDs[0] != author {
		t.Errorf("authors should be untouched, got %v", got.AuthorIDs)
	}

	if err := db.UpdateContent(ctx, 999, ContentUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateContent on missing id error = %v, want ErrNotFound", err)
	}
	err = db.UpdateContent(ctx, id, ContentUpdate{
		Facets: map[models.FacetKind][]int64{models.FacetCharacter: {555}},
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("UpdateContent with unknown facet error = %v, want ErrInvalidReference", err)
	}
}

func TestDeleteContentIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	tag := createTestFacet(t, db, models.FacetTag, "sky", u.ID)
	id := createTestContent(t, db, models.ContentItem{
		OwnerID: u.ID,
		TagIDs:  []int64{tag},
		Media:   &models.Media{Kind: models.MediaVideo, ObjectKey: "v/1.mp4", MimeType: "video/mp4"},
	})
	album, err := db.CreateAlbum(ctx, u.ID, "favs", "")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}
	if _, err := db.AddContentToAlbum(ctx, album.ID, id); err != nil {
		t.Fatalf("AddContentToAlbum failed: %v", err)
	}

	key, err := db.DeleteContent(ctx, id)
	if err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}
	if key != "v/1.mp4" {
		t.Errorf("DeleteContent returned key %q, want v/1.mp4", key)
	}

	ids, err := db.IDsWithFacet(ctx, models.FacetTag, tag)
	if err != nil {
		t.Fatalf("IDsWithFacet failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("tag still lists deleted content: %v", ids)
	}
	inAlbum, _ := db.AlbumContentIDs(ctx, album.ID)
	if len(inAlbum) != 0 {
		t.Errorf("album still lists deleted content: %v", inAlbum)
	}
	if _, err := db.ContentOwnership(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("ContentOwnership after delete error = %v, want ErrNotFound", err)
	}
	if _, err := db.DeleteContent(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteContent error = %v, want ErrNotFound", err)
	}
}

func TestAccessInfoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	u := createTestUser(t, db, "alice")
	pub := createTestContent(t, db, models.ContentItem{OwnerID: u.ID, Visibility: models.VisibilityPublic})
	priv := createTestContent(t, db, models.ContentItem{OwnerID: u.ID, Visibility: models.VisibilityPrivate})

	info, err := db.AccessInfo(context.Background(), []int64{pub, priv, 404})
	if err != nil {
		t.Fatalf("AccessInfo failed: %v", err)
	}
	if len(info) != 2 {
		t.Fatalf("AccessInfo returned %d rows, want 2", len(info))
	}
	if info[pub].Visibility != models.VisibilityPublic || info[priv].Visibility != models.VisibilityPrivate {
		t.Errorf("unexpected visibility: %+v", info)
	}
	if info[priv].OwnerID != u.ID {
		t.Errorf("OwnerID = %d, want %d", info[priv].OwnerID, u.ID)
	}
}

func TestContentIDsByOwnerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	var mine []int64
	for range 5 {
		mine = append(mine, createTestContent(t, db, models.ContentItem{OwnerID: alice.ID}))
	}
	createTestContent(t, db, models.ContentItem{OwnerID: bob.ID})

	ids, w, total, err := db.ContentIDsByOwner(context.Background(), alice.ID, 2, 2)
	if err != nil {
		t.Fatalf("ContentIDsByOwner failed: %v", err)
	}
	if total != 5 || w.TotalPages != 3 {
		t.Errorf("total=%d pages=%d, want 5 and 3", total, w.TotalPages)
	}
	want := []int64{mine[2], mine[1]}
	if len(ids) != 2 || ids[0] != want[0] || ids[1] != want[1] {
		t.Errorf("page 2 = %v, want %v", ids, want)
	}

	ids, _, _, err = db.ContentIDsByOwner(context.Background(), alice.ID, 9, 2)
	if err != nil {
		t.Fatalf("ContentIDsByOwner failed: %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("out of range page = %v, want empty non-nil slice", ids)
	}
}
