package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nyapix/internal/models"
)

// pngPayload is a minimal PNG header followed by filler.
var pngPayload = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"), bytes.Repeat([]byte{0}, 64)...)

func multipartUpload(t *testing.T, content any, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if content != nil {
		var field string
		switch c := content.(type) {
		case string:
			field = c
		default:
			data, err := json.Marshal(c)
			if err != nil {
				t.Fatalf("failed to marshal content: %v", err)
			}
			field = string(data)
		}
		if err := mw.WriteField("content", field); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if payload != nil {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		if _, err := fw.Write(payload); err != nil {
			t.Fatalf("write payload failed: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close failed: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// =============================================================================
// Upload Tests
// =============================================================================

func TestUploadContent(t *testing.T) {
	env := setupIntegrationTest(t, true)
	tag := env.facet(t, models.FacetTag, "cat", env.alice)

	body, ct := multipartUpload(t, ContentRequest{
		Title:       "  Sleepy cat ",
		Description: "on a sofa",
		Tags:        []int64{tag},
	}, "cat.bin", pngPayload)
	w := env.do(t, http.MethodPost, "/api/contents", body, ct, env.alice)
	expectStatus(t, w, http.StatusCreated)

	item := decodeBody[models.ContentItem](t, w)
	if item.Title != "Sleepy cat" {
		t.Errorf("expected trimmed title, got %q", item.Title)
	}
	if item.OwnerID != env.alice.ID || item.Visibility != models.VisibilityPublic {
		t.Errorf("unexpected owner or visibility: %+v", item)
	}
	if len(item.TagIDs) != 1 || item.TagIDs[0] != tag {
		t.Errorf("expected tags [%d], got %v", tag, item.TagIDs)
	}
	if item.Media == nil || item.Media.Kind != models.MediaImage || item.Media.MimeType != "image/png" {
		t.Fatalf("expected png image media, got %+v", item.Media)
	}
	if item.Media.Size != int64(len(pngPayload)) {
		t.Errorf("expected size %d, got %d", len(pngPayload), item.Media.Size)
	}

	sum := sha256.Sum256(pngPayload)
	if item.FileHash != hex.EncodeToString(sum[:]) {
		t.Errorf("unexpected file hash %q", item.FileHash)
	}

	key := strings.TrimPrefix(item.URL, "https://blobs.test/")
	if key == item.URL || !strings.HasPrefix(key, "image/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected playback URL %q", item.URL)
	}
	if !bytes.Equal(env.blobs.objects[key], pngPayload) {
		t.Error("stored object does not match the uploaded payload")
	}
	if env.blobs.types[key] != "image/png" {
		t.Errorf("expected content type image/png, got %q", env.blobs.types[key])
	}
}

func TestUploadContentRejections(t *testing.T) {
	env := setupIntegrationTest(t, true)

	tests := []struct {
		name    string
		user    *models.User
		content any
		payload []byte
		want    int
	}{
		{"anonymous", nil, ContentRequest{Title: "x"}, pngPayload, http.StatusUnauthorized},
		{"missing title", env.alice, ContentRequest{}, pngPayload, http.StatusBadRequest},
		{"blank title", env.alice, ContentRequest{Title: "   "}, pngPayload, http.StatusBadRequest},
		{"bad visibility", env.alice, map[string]any{"title": "x", "visibility": "friends"}, pngPayload, http.StatusBadRequest},
		{"invalid json", env.alice, "{not json", pngPayload, http.StatusBadRequest},
		{"missing content field", env.alice, nil, pngPayload, http.StatusBadRequest},
		{"missing file", env.alice, ContentRequest{Title: "x"}, nil, http.StatusBadRequest},
		{"negative tag id", env.alice, ContentRequest{Title: "x", Tags: []int64{-3}}, pngPayload, http.StatusBadRequest},
		{"unknown tag", env.alice, ContentRequest{Title: "x", Tags: []int64{404}}, pngPayload, http.StatusBadRequest},
		{"unsupported type", env.alice, ContentRequest{Title: "x"}, []byte("just some plain text"), http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartUpload(t, tt.content, "upload", tt.payload)
			w := env.do(t, http.MethodPost, "/api/contents", body, ct, tt.user)
			expectStatus(t, w, tt.want)
		})
	}

	if n := len(env.blobs.objects); n != 0 {
		t.Errorf("rejected uploads left %d objects behind", n)
	}
}

func TestUploadContentNotMultipart(t *testing.T) {
	env := setupIntegrationTest(t, true)

	w := env.doJSON(t, http.MethodPost, "/api/contents", ContentRequest{Title: "x"}, env.alice)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestUploadContentStorageDisabled(t *testing.T) {
	env := setupIntegrationTest(t, false)

	body, ct := multipartUpload(t, ContentRequest{Title: "x"}, "x.png", pngPayload)
	w := env.do(t, http.MethodPost, "/api/contents", body, ct, env.alice)
	expectStatus(t, w, http.StatusServiceUnavailable)
}

func TestUploadContentStorageFailure(t *testing.T) {
	env := setupIntegrationTest(t, true)
	env.blobs.putErr = errors.New("bucket unavailable")

	body, ct := multipartUpload(t, ContentRequest{Title: "x"}, "x.png", pngPayload)
	w := env.do(t, http.MethodPost, "/api/contents", body, ct, env.alice)
	expectStatus(t, w, http.StatusInternalServerError)
	if strings.Contains(w.Body.String(), "bucket unavailable") {
		t.Error("internal error details leaked to the client")
	}
}

// =============================================================================
// Search Tests
// =============================================================================

func TestSearchContents(t *testing.T) {
	env := setupIntegrationTest(t, true)

	cat := env.facet(t, models.FacetTag, "cat", env.alice)
	dog := env.facet(t, models.FacetTag, "dog", env.alice)
	miku := env.facet(t, models.FacetCharacter, "miku", env.alice)

	public := env.content(t, models.ContentItem{OwnerID: env.alice.ID, TagIDs: []int64{cat}}, false)
	private := env.content(t, models.ContentItem{OwnerID: env.alice.ID, TagIDs: []int64{cat}, Visibility: models.VisibilityPrivate}, false)
	both := env.content(t, models.ContentItem{OwnerID: env.bob.ID, TagIDs: []int64{cat, dog}, CharacterIDs: []int64{miku}}, false)

	ids := func(page models.ContentPage) []int64 {
		out := []int64{}
		for _, c := range page.Contents {
			out = append(out, c.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		query string
		user  *models.User
		want  []int64
	}{
		{"anonymous sees public only", fmt.Sprintf("needed_tags=%d", cat), nil, []int64{both, public}},
		{"owner sees private", fmt.Sprintf("needed_tags=%d", cat), env.alice, []int64{both, private, public}},
		{"other user", fmt.Sprintf("needed_tags=%d", cat), env.bob, []int64{both, public}},
		{"comma separated", fmt.Sprintf("needed_tags=%d,%d", cat, dog), nil, []int64{both}},
		{"repeated", fmt.Sprintf("needed_tags=%d&needed_tags=%d", cat, dog), nil, []int64{both}},
		{"exclusion", fmt.Sprintf("needed_tags=%d&tags_to_exclude=%d", cat, dog), env.alice, []int64{private, public}},
		{"across kinds", fmt.Sprintf("needed_tags=%d&needed_characters=%d", cat, miku), nil, []int64{both}},
		{"excluded character", fmt.Sprintf("needed_tags=%d&characters_to_exclude=%d", cat, miku), nil, []int64{public}},
		{"nothing needed", fmt.Sprintf("tags_to_exclude=%d", dog), env.alice, []int64{}},
		{"unknown facet", "needed_tags=999", nil, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/contents/search?"+tt.query, nil, "", tt.user)
			expectStatus(t, w, http.StatusOK)
			page := decodeBody[models.ContentPage](t, w)
			got := ids(page)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if page.TotalContents != len(tt.want) {
				t.Errorf("expected total %d, got %d", len(tt.want), page.TotalContents)
			}
		})
	}
}

func TestSearchContentsPagination(t *testing.T) {
	env := setupIntegrationTest(t, true)
	tag := env.facet(t, models.FacetTag, "wallpaper", env.alice)

	var created []int64
	for i := 0; i < 5; i++ {
		created = append(created, env.content(t, models.ContentItem{OwnerID: env.alice.ID, TagIDs: []int64{tag}}, false))
	}

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/search?needed_tags=%d&page=2&max_results=2", tag), nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	page := decodeBody[models.ContentPage](t, w)
	if page.TotalPages != 3 || page.TotalContents != 5 {
		t.Errorf("expected 3 pages of 5 items, got %d pages of %d", page.TotalPages, page.TotalContents)
	}
	if len(page.Contents) != 2 || page.Contents[0].ID != created[2] || page.Contents[1].ID != created[1] {
		t.Errorf("unexpected second page %+v", page.Contents)
	}
	if page.Contents[0].URL == "" {
		t.Error("expected playback URLs on search results")
	}

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/search?needed_tags=%d&page=9&max_results=2", tag), nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	if page := decodeBody[models.ContentPage](t, w); len(page.Contents) != 0 || page.TotalContents != 5 {
		t.Errorf("expected an empty out-of-range page, got %+v", page)
	}
}

func TestSearchContentsInvalidParameters(t *testing.T) {
	env := setupIntegrationTest(t, true)

	for _, query := range []string{
		"needed_tags=abc",
		"needed_tags=1,-2",
		"page=0",
		"page=x",
		"max_results=501",
		"max_results=-1",
	} {
		w := env.do(t, http.MethodGet, "/api/contents/search?"+query, nil, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, w.Code)
		}
	}
}

func TestMyContents(t *testing.T) {
	env := setupIntegrationTest(t, true)

	first := env.content(t, models.ContentItem{OwnerID: env.alice.ID, Visibility: models.VisibilityPrivate}, false)
	second := env.content(t, models.ContentItem{OwnerID: env.alice.ID}, true)
	env.content(t, models.ContentItem{OwnerID: env.bob.ID}, false)

	w := env.do(t, http.MethodGet, "/api/contents/mine", nil, "", env.alice)
	expectStatus(t, w, http.StatusOK)
	page := decodeBody[models.ContentPage](t, w)
	if page.TotalContents != 2 || len(page.Contents) != 2 {
		t.Fatalf("expected 2 items, got %+v", page)
	}
	if page.Contents[0].ID != second || page.Contents[1].ID != first {
		t.Errorf("expected newest first, got %d, %d", page.Contents[0].ID, page.Contents[1].ID)
	}
	if page.Contents[0].URL != "" {
		t.Errorf("item without media should have no URL, got %q", page.Contents[0].URL)
	}

	w = env.do(t, http.MethodGet, "/api/contents/mine?page=2&size=1", nil, "", env.alice)
	expectStatus(t, w, http.StatusOK)
	if page := decodeBody[models.ContentPage](t, w); len(page.Contents) != 1 || page.Contents[0].ID != first || page.TotalPages != 2 {
		t.Errorf("unexpected second page %+v", page)
	}

	w = env.do(t, http.MethodGet, "/api/contents/mine?page=4611686018427387904&size=4", nil, "", env.alice)
	expectStatus(t, w, http.StatusOK)
	if page := decodeBody[models.ContentPage](t, w); len(page.Contents) != 0 || page.TotalContents != 2 {
		t.Errorf("expected an empty page past the end, got %+v", page)
	}

	w = env.do(t, http.MethodGet, "/api/contents/search?needed_tags=1&page=4611686018427387904&max_results=4", nil, "", env.alice)
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/contents/mine", nil, "", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

// =============================================================================
// Get, Update, Delete and Media Tests
// =============================================================================

func TestGetContentAccess(t *testing.T) {
	env := setupIntegrationTest(t, true)
	id := env.content(t, models.ContentItem{OwnerID: env.alice.ID, Visibility: models.VisibilityPrivate}, false)

	path := fmt.Sprintf("/api/contents/%d", id)
	expectStatus(t, env.do(t, http.MethodGet, path, nil, "", env.alice), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, path, nil, "", env.bob), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, path, nil, "", nil), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, "/api/contents/9999", nil, "", nil), http.StatusNotFound)
}

func TestUpdateContent(t *testing.T) {
	env := setupIntegrationTest(t, true)
	cat := env.facet(t, models.FacetTag, "cat", env.alice)
	dog := env.facet(t, models.FacetTag, "dog", env.alice)
	author := env.facet(t, models.FacetAuthor, "hokusai", env.alice)
	id := env.content(t, models.ContentItem{OwnerID: env.alice.ID, TagIDs: []int64{cat}, AuthorIDs: []int64{author}}, false)
	path := fmt.Sprintf("/api/contents/%d", id)

	w := env.doJSON(t, http.MethodPatch, path, map[string]any{
		"title":      "Renamed",
		"visibility": "private",
		"tags":       []int64{dog},
	}, env.alice)
	expectStatus(t, w, http.StatusOK)
	item := decodeBody[models.ContentItem](t, w)
	if item.Title != "Renamed" || item.Visibility != models.VisibilityPrivate {
		t.Errorf("fields not updated: %+v", item)
	}
	if len(item.TagIDs) != 1 || item.TagIDs[0] != dog {
		t.Errorf("expected tags replaced with [%d], got %v", dog, item.TagIDs)
	}
	if len(item.AuthorIDs) != 1 || item.AuthorIDs[0] != author {
		t.Errorf("authors should be untouched, got %v", item.AuthorIDs)
	}

	w = env.doJSON(t, http.MethodPatch, path, map[string]any{"tags": []int64{}}, env.alice)
	expectStatus(t, w, http.StatusOK)
	if item := decodeBody[models.ContentItem](t, w); len(item.TagIDs) != 0 {
		t.Errorf("expected tags cleared, got %v", item.TagIDs)
	}

	tests := []struct {
		name string
		path string
		body any
		user *models.User
		want int
	}{
		{"other user", path, map[string]any{"title": "mine now"}, env.bob, http.StatusForbidden},
		{"admin", path, map[string]any{"description": "moderated"}, env.admin, http.StatusOK},
		{"anonymous", path, map[string]any{"title": "x"}, nil, http.StatusUnauthorized},
		{"blank title", path, map[string]any{"title": " "}, env.alice, http.StatusBadRequest},
		{"bad visibility", path, map[string]any{"visibility": "hidden"}, env.alice, http.StatusBadRequest},
		{"unknown field", path, map[string]any{"rating": 5}, env.alice, http.StatusBadRequest},
		{"unknown tag", path, map[string]any{"tags": []int64{999}}, env.alice, http.StatusBadRequest},
		{"unknown source", path, map[string]any{"source_id": 999}, env.alice, http.StatusBadRequest},
		{"missing content", "/api/contents/9999", map[string]any{"title": "x"}, env.alice, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, env.doJSON(t, http.MethodPatch, tt.path, tt.body, tt.user), tt.want)
		})
	}
}

func TestDeleteContent(t *testing.T) {
	env := setupIntegrationTest(t, true)

	body, ct := multipartUpload(t, ContentRequest{Title: "doomed"}, "x.png", pngPayload)
	w := env.do(t, http.MethodPost, "/api/contents", body, ct, env.alice)
	expectStatus(t, w, http.StatusCreated)
	item := decodeBody[models.ContentItem](t, w)
	key := strings.TrimPrefix(item.URL, "https://blobs.test/")
	path := fmt.Sprintf("/api/contents/%d", item.ID)

	expectStatus(t, env.do(t, http.MethodDelete, path, nil, "", env.bob), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodDelete, path, nil, "", env.alice), http.StatusNoContent)

	if env.blobs.has(key) {
		t.Errorf("object %s should be removed with its content", key)
	}
	expectStatus(t, env.do(t, http.MethodGet, path, nil, "", env.alice), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodDelete, path, nil, "", env.alice), http.StatusNotFound)
}

func TestContentMedia(t *testing.T) {
	env := setupIntegrationTest(t, true)
	withMedia := env.content(t, models.ContentItem{OwnerID: env.alice.ID}, false)
	private := env.content(t, models.ContentItem{OwnerID: env.alice.ID, Visibility: models.VisibilityPrivate}, false)
	noMedia := env.content(t, models.ContentItem{OwnerID: env.alice.ID}, true)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/%d/media", withMedia), nil, "", nil)
	expectStatus(t, w, http.StatusFound)
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "https://blobs.test/image/") {
		t.Errorf("unexpected redirect %q", loc)
	}

	expectStatus(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/%d/media", private), nil, "", nil), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/%d/media", private), nil, "", env.alice), http.StatusFound)
	expectStatus(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/%d/media", noMedia), nil, "", nil), http.StatusNotFound)
}

func TestContentMediaStorageDisabled(t *testing.T) {
	env := setupIntegrationTest(t, false)
	id := env.content(t, models.ContentItem{OwnerID: env.alice.ID}, false)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/contents/%d", id), nil, "", nil)
	expectStatus(t, w, http.StatusOK)
	if item := decodeBody[models.ContentItem](t, w); item.URL != fmt.Sprintf("v1/image/%d", id) {
		t.Errorf("expected legacy media path, got %q", item.URL)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/contents/%d/media", id), nil)
	env.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}
