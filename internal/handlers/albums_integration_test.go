package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"nyapix/internal/models"
)

// =============================================================================
// Album Tests
// =============================================================================

func TestAlbumLifecycle(t *testing.T) {
	env := setupIntegrationTest(t, true)
	public := env.content(t, models.ContentItem{OwnerID: env.alice.ID}, false)
	private := env.content(t, models.ContentItem{OwnerID: env.alice.ID, Visibility: models.VisibilityPrivate}, false)

	w := env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{Title: " Holiday ", Description: "2024"}, env.alice)
	expectStatus(t, w, http.StatusCreated)
	album := decodeBody[models.Album](t, w)
	if album.Title != "Holiday" || album.OwnerID != env.alice.ID {
		t.Fatalf("unexpected album %+v", album)
	}
	base := fmt.Sprintf("/api/albums/%d", album.ID)

	for _, id := range []int64{public, private} {
		expectStatus(t, env.do(t, http.MethodPost, fmt.Sprintf("%s/contents/%d", base, id), nil, "", env.alice), http.StatusNoContent)
	}
	expectStatus(t, env.do(t, http.MethodPost, fmt.Sprintf("%s/contents/%d", base, public), nil, "", env.alice), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPost, fmt.Sprintf("%s/contents/%d", base, public), nil, "", env.bob), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPost, fmt.Sprintf("%s/contents/9999", base), nil, "", env.alice), http.StatusNotFound)

	w = env.do(t, http.MethodGet, base, nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	detail := decodeBody[models.AlbumDetail](t, w)
	if len(detail.Contents) != 1 || detail.Contents[0].ID != public {
		t.Errorf("anonymous viewer should see only public content, got %+v", detail.Contents)
	}

	w = env.do(t, http.MethodGet, base, nil, "", env.alice)
	expectStatus(t, w, http.StatusOK)
	if detail := decodeBody[models.AlbumDetail](t, w); len(detail.Contents) != 2 {
		t.Errorf("owner should see both items, got %d", len(detail.Contents))
	}

	expectStatus(t, env.do(t, http.MethodDelete, fmt.Sprintf("%s/contents/%d", base, private), nil, "", env.alice), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodDelete, fmt.Sprintf("%s/contents/%d", base, private), nil, "", env.alice), http.StatusNotFound)

	expectStatus(t, env.do(t, http.MethodDelete, base, nil, "", env.bob), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodDelete, base, nil, "", env.alice), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, base, nil, "", env.alice), http.StatusNotFound)

	expectStatus(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/%d", public), nil, "", nil), http.StatusOK)
}

func TestAddAlbumContentHidesPrivateContent(t *testing.T) {
	env := setupIntegrationTest(t, true)
	public := env.content(t, models.ContentItem{OwnerID: env.alice.ID}, false)
	private := env.content(t, models.ContentItem{OwnerID: env.alice.ID, Visibility: models.VisibilityPrivate}, false)

	w := env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{Title: "borrowed"}, env.bob)
	expectStatus(t, w, http.StatusCreated)
	base := fmt.Sprintf("/api/albums/%d", decodeBody[models.Album](t, w).ID)

	tests := []struct {
		name    string
		content int64
		want    int
	}{
		{"someone else's public content", public, http.StatusNoContent},
		{"someone else's private content", private, http.StatusNotFound},
		{"missing content", 9999, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, fmt.Sprintf("%s/contents/%d", base, tt.content), nil, "", env.bob)
			expectStatus(t, w, tt.want)
		})
	}

	// a private id must read exactly like a missing one
	for _, id := range []int64{private, 9999} {
		body := env.do(t, http.MethodPost, fmt.Sprintf("%s/contents/%d", base, id), nil, "", env.bob).Body.String()
		if !strings.Contains(body, "not found") {
			t.Errorf("content %d: expected a not found body, got %q", id, body)
		}
	}

	w = env.do(t, http.MethodGet, base, nil, "", env.bob)
	expectStatus(t, w, http.StatusOK)
	if detail := decodeBody[models.AlbumDetail](t, w); len(detail.Contents) != 1 || detail.Contents[0].ID != public {
		t.Errorf("album should hold only the public item, got %+v", detail.Contents)
	}
}

func TestUpdateAlbum(t *testing.T) {
	env := setupIntegrationTest(t, true)
	w := env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{Title: "Draft", Description: "keep me"}, env.alice)
	expectStatus(t, w, http.StatusCreated)
	path := fmt.Sprintf("/api/albums/%d", decodeBody[models.Album](t, w).ID)

	w = env.doJSON(t, http.MethodPut, path, map[string]string{"title": "Final"}, env.alice)
	expectStatus(t, w, http.StatusOK)
	album := decodeBody[models.Album](t, w)
	if album.Title != "Final" || album.Description != "keep me" {
		t.Errorf("expected only the title to change, got %+v", album)
	}

	w = env.doJSON(t, http.MethodPut, path, map[string]string{"description": ""}, env.admin)
	expectStatus(t, w, http.StatusOK)
	if album := decodeBody[models.Album](t, w); album.Description != "" || album.Title != "Final" {
		t.Errorf("expected description cleared, got %+v", album)
	}

	expectStatus(t, env.doJSON(t, http.MethodPut, path, map[string]string{"title": "  "}, env.alice), http.StatusBadRequest)
	expectStatus(t, env.doJSON(t, http.MethodPut, path, map[string]string{"title": "mine"}, env.bob), http.StatusForbidden)
	expectStatus(t, env.doJSON(t, http.MethodPut, "/api/albums/9999", map[string]string{"title": "x"}, env.alice), http.StatusNotFound)
	expectStatus(t, env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{}, env.alice), http.StatusBadRequest)
}

func TestMyAlbums(t *testing.T) {
	env := setupIntegrationTest(t, true)
	for _, title := range []string{"one", "two", "three"} {
		expectStatus(t, env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{Title: title}, env.alice), http.StatusCreated)
	}
	expectStatus(t, env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{Title: "bob's"}, env.bob), http.StatusCreated)

	w := env.do(t, http.MethodGet, "/api/albums/mine?size=2", nil, "", env.alice)
	expectStatus(t, w, http.StatusOK)
	page := decodeBody[models.AlbumListPage](t, w)
	if page.Total != 3 || page.TotalPages != 2 || len(page.Albums) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Albums[0].Title != "three" {
		t.Errorf("expected newest album first, got %q", page.Albums[0].Title)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/albums/mine", nil, "", nil), http.StatusUnauthorized)
}

func TestSearchAlbums(t *testing.T) {
	env := setupIntegrationTest(t, true)
	cat := env.facet(t, models.FacetTag, "cat", env.alice)

	c1 := env.content(t, models.ContentItem{OwnerID: env.alice.ID, TagIDs: []int64{cat}}, false)
	c2 := env.content(t, models.ContentItem{OwnerID: env.alice.ID, TagIDs: []int64{cat}}, false)
	hidden := env.content(t, models.ContentItem{OwnerID: env.alice.ID, TagIDs: []int64{cat}, Visibility: models.VisibilityPrivate}, false)

	newAlbum := func(title string, contents ...int64) int64 {
		w := env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{Title: title}, env.alice)
		expectStatus(t, w, http.StatusCreated)
		id := decodeBody[models.Album](t, w).ID
		for _, c := range contents {
			expectStatus(t, env.do(t, http.MethodPost, fmt.Sprintf("/api/albums/%d/contents/%d", id, c), nil, "", env.alice), http.StatusNoContent)
		}
		return id
	}
	small := newAlbum("small", c1)
	big := newAlbum("big", c1, c2)
	secret := newAlbum("secret", hidden)
	newAlbum("empty")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/albums/search?needed_tags=%d", cat), nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	page := decodeBody[models.AlbumPage](t, w)
	if page.TotalAlbums != 2 || len(page.Albums) != 2 {
		t.Fatalf("expected 2 albums for the anonymous viewer, got %+v", page)
	}
	if page.Albums[0].ID != big || page.Albums[0].MatchCount != 2 || page.Albums[1].ID != small {
		t.Errorf("expected big then small, got %+v", page.Albums)
	}

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/albums/search?needed_tags=%d", cat), nil, "", env.alice)
	expectStatus(t, w, http.StatusOK)
	page = decodeBody[models.AlbumPage](t, w)
	if page.TotalAlbums != 3 {
		t.Fatalf("expected owner to match 3 albums, got %+v", page)
	}
	if last := page.Albums[2]; last.ID != secret || last.MatchCount != 1 {
		t.Errorf("expected ties ordered by album id, got %+v", page.Albums)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/albums/search?max_results=0", nil, "", nil), http.StatusBadRequest)
}

func TestAlbumOwner(t *testing.T) {
	env := setupIntegrationTest(t, true)
	w := env.doJSON(t, http.MethodPost, "/api/albums", AlbumRequest{Title: "x"}, env.bob)
	expectStatus(t, w, http.StatusCreated)
	id := decodeBody[models.Album](t, w).ID
	path := fmt.Sprintf("/api/admin/albums/%d/owner", id)

	w = env.do(t, http.MethodGet, path, nil, "", env.admin)
	expectStatus(t, w, http.StatusOK)
	if resp := decodeBody[AlbumOwnerResponse](t, w); resp.AlbumID != id || resp.OwnerID != env.bob.ID {
		t.Errorf("unexpected owner response %+v", resp)
	}

	expectStatus(t, env.do(t, http.MethodGet, path, nil, "", env.bob), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, path, nil, "", nil), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/admin/albums/9999/owner", nil, "", env.admin), http.StatusNotFound)
}

// =============================================================================
// Source Tests
// =============================================================================

func TestSources(t *testing.T) {
	env := setupIntegrationTest(t, true)

	expectStatus(t, env.doJSON(t, http.MethodPost, "/api/sources", SourceRequest{Name: "pixiv"}, env.alice), http.StatusForbidden)
	expectStatus(t, env.doJSON(t, http.MethodPost, "/api/sources", SourceRequest{Name: "pixiv"}, nil), http.StatusUnauthorized)

	w := env.doJSON(t, http.MethodPost, "/api/sources", SourceRequest{Name: " pixiv "}, env.admin)
	expectStatus(t, w, http.StatusCreated)
	source := decodeBody[models.Source](t, w)
	if source.Name != "pixiv" {
		t.Errorf("expected trimmed name, got %q", source.Name)
	}
	expectStatus(t, env.doJSON(t, http.MethodPost, "/api/sources", SourceRequest{Name: "pixiv"}, env.admin), http.StatusConflict)
	expectStatus(t, env.doJSON(t, http.MethodPost, "/api/sources", SourceRequest{Name: "danbooru"}, env.admin), http.StatusCreated)

	w = env.do(t, http.MethodGet, "/api/sources", nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	if sources := decodeBody[[]models.Source](t, w); len(sources) != 2 || sources[0].Name != "danbooru" {
		t.Errorf("expected sources ordered by name, got %+v", sources)
	}

	w = env.do(t, http.MethodGet, "/api/sources/by-name/pixiv", nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	if s := decodeBody[models.Source](t, w); s.ID != source.ID {
		t.Errorf("by-name lookup returned %d, want %d", s.ID, source.ID)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/sources/by-name/nope", nil, "", nil), http.StatusNotFound)

	path := fmt.Sprintf("/api/sources/%d", source.ID)
	w = env.doJSON(t, http.MethodPut, path, SourceRequest{Name: "Pixiv"}, env.admin)
	expectStatus(t, w, http.StatusOK)
	if s := decodeBody[models.Source](t, w); s.Name != "Pixiv" {
		t.Errorf("expected renamed source, got %q", s.Name)
	}

	content := env.content(t, models.ContentItem{OwnerID: env.alice.ID, SourceID: &source.ID}, false)

	expectStatus(t, env.do(t, http.MethodDelete, path, nil, "", env.alice), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodDelete, path, nil, "", env.admin), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, path, nil, "", nil), http.StatusNotFound)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/%d", content), nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	if item := decodeBody[models.ContentItem](t, w); item.SourceID != nil {
		t.Errorf("expected source cleared from content, got %d", *item.SourceID)
	}
}
