package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nyapix/internal/auth"
	"nyapix/internal/database"
	"nyapix/internal/logging"
	"nyapix/internal/media"
	"nyapix/internal/metrics"
	"nyapix/internal/models"
	"nyapix/internal/search"
)

// multipartMemory is how much of an upload is held in memory before the
// rest spills to a temporary file.
const multipartMemory = 32 << 20

// ContentRequest is the JSON "content" field of an upload
type ContentRequest struct {
	Title       string            `json:"title" validate:"required,max=256"`
	Description string            `json:"description" validate:"max=4096"`
	Visibility  models.Visibility `json:"visibility" validate:"omitempty,oneof=public private"`
	SourceID    *int64            `json:"source_id" validate:"omitempty,gt=0"`
	Tags        []int64           `json:"tags"`
	Characters  []int64           `json:"characters"`
	Authors     []int64           `json:"authors"`
}

// ContentPatchRequest changes the supplied fields of a content item. A facet
// list that is present replaces that kind's links; source_id 0 clears the
// source.
type ContentPatchRequest struct {
	Title       *string            `json:"title" validate:"omitempty,max=256"`
	Description *string            `json:"description" validate:"omitempty,max=4096"`
	Visibility  *models.Visibility `json:"visibility" validate:"omitempty,oneof=public private"`
	SourceID    *int64             `json:"source_id" validate:"omitempty,gte=0"`
	Tags        *[]int64           `json:"tags"`
	Characters  *[]int64           `json:"characters"`
	Authors     *[]int64           `json:"authors"`
}

// searchRequest builds a search from query parameters for the current viewer.
func searchRequest(r *http.Request) (search.Request, error) {
	req := search.Request{ViewerID: auth.ViewerFrom(r.Context()).ID}

	lists := []struct {
		param string
		dst   *[]int64
	}{
		{"needed_tags", &req.NeededTags},
		{"needed_characters", &req.NeededCharacters},
		{"needed_authors", &req.NeededAuthors},
		{"tags_to_exclude", &req.ExcludedTags},
		{"characters_to_exclude", &req.ExcludedCharacters},
		{"authors_to_exclude", &req.ExcludedAuthors},
	}
	for _, l := range lists {
		ids, err := queryIDs(r, l.param)
		if err != nil {
			return search.Request{}, err
		}
		*l.dst = ids
	}

	var err error
	if req.Page, err = queryInt(r, "page", search.DefaultPage); err != nil {
		return search.Request{}, err
	}
	if req.MaxResults, err = queryInt(r, "max_results", search.DefaultMaxResults); err != nil {
		return search.Request{}, err
	}
	return req, nil
}

// checkIDs rejects non-positive ids in a facet list.
func checkIDs(field string, ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return badRequest("%s contains invalid id %d", field, id)
		}
	}
	return nil
}

// SearchContents runs a faceted content search
func (h *Handlers) SearchContents(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.engine.SearchContent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, page)
}

// MyContents lists the viewer's own content, newest first
func (h *Handlers) MyContents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := auth.ViewerFrom(ctx)

	page, size, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ids, window, total, err := h.db.ContentIDsByOwner(ctx, viewer.ID, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	contents, err := h.engine.Contents(ctx, ids)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusOK, models.ContentPage{
		Contents:      contents,
		TotalPages:    window.TotalPages,
		TotalContents: total,
	})
}

// UploadContent stores a new content item from a multipart form holding a
// JSON "content" field and a "file" part
func (h *Handlers) UploadContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := auth.ViewerFrom(ctx)

	if h.blobs == nil {
		writeError(w, r, media.ErrStorageDisabled)
		return
	}
	if h.memory.ShouldThrottle() {
		w.Header().Set("Retry-After", "30")
		writeJSONError(w, "Server is under memory pressure, retry later", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, badRequest("invalid multipart form: %v", err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("Failed to remove multipart temp files: %v", err)
		}
	}()

	var req ContentRequest
	if err := json.Unmarshal([]byte(r.FormValue("content")), &req); err != nil {
		writeError(w, r, badRequest("invalid JSON in content field: %v", err))
		return
	}
	if err := h.validateContent(req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("file is required"))
		return
	}
	defer file.Close()

	detected, payload, err := media.Sniff(file)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("unknown", "rejected").Inc()
		writeError(w, r, err)
		return
	}
	kind := string(detected.Kind)

	hash := sha256.New()
	key := media.ObjectKey(detected.Kind, detected.Extension)
	if err := h.blobs.Put(ctx, key, io.TeeReader(payload, hash), header.Size, detected.MimeType); err != nil {
		metrics.UploadsTotal.WithLabelValues(kind, "error").Inc()
		writeError(w, r, err)
		return
	}

	item := &models.ContentItem{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		OwnerID:      viewer.ID,
		Visibility:   req.Visibility,
		SourceID:     req.SourceID,
		FileHash:     hex.EncodeToString(hash.Sum(nil)),
		TagIDs:       req.Tags,
		CharacterIDs: req.Characters,
		AuthorIDs:    req.Authors,
		Media: &models.Media{
			Kind:      detected.Kind,
			ObjectKey: key,
			MimeType:  detected.MimeType,
			Size:      header.Size,
		},
	}
	id, err := h.db.CreateContent(ctx, item)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(kind, "error").Inc()
		if delErr := h.blobs.Delete(ctx, key); delErr != nil {
			logging.Warn("Failed to remove orphaned object %s: %v", key, delErr)
		}
		writeError(w, r, err)
		return
	}
	metrics.UploadsTotal.WithLabelValues(kind, "success").Inc()
	metrics.UploadBytes.WithLabelValues(kind).Add(float64(header.Size))
	logging.Info("User %d uploaded content %d (%s, %d bytes)", viewer.ID, id, detected.MimeType, header.Size)

	created, err := h.engine.GetContent(ctx, viewer.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (h *Handlers) validateContent(req ContentRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Title) == "" {
		return badRequest("title is required")
	}
	return errors.Join(
		checkIDs("tags", req.Tags),
		checkIDs("characters", req.Characters),
		checkIDs("authors", req.Authors),
	)
}

// GetContent returns one content item the viewer may access
func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.engine.GetContent(r.Context(), auth.ViewerFrom(r.Context()).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, item)
}

// authorizeContent checks that the viewer may change content id.
func (h *Handlers) authorizeContent(r *http.Request, id int64) error {
	owner, err := h.db.ContentOwnership(r.Context(), id)
	if err != nil {
		return err
	}
	if !auth.ViewerFrom(r.Context()).CanModify(owner.OwnerID) {
		return fmt.Errorf("content %d: %w", id, search.ErrForbidden)
	}
	return nil
}

// UpdateContent applies a partial update to a content item
func (h *Handlers) UpdateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req ContentPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, r, badRequest("title must not be empty"))
		return
	}

	update := database.ContentUpdate{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		SourceID:    req.SourceID,
		Facets:      map[models.FacetKind][]int64{},
	}
	lists := map[models.FacetKind]*[]int64{
		models.FacetTag:       req.Tags,
		models.FacetCharacter: req.Characters,
		models.FacetAuthor:    req.Authors,
	}
	for kind, ids := range lists {
		if ids == nil {
			continue
		}
		if err := checkIDs(string(kind), *ids); err != nil {
			writeError(w, r, err)
			return
		}
		update.Facets[kind] = *ids
	}

	if err := h.authorizeContent(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.UpdateContent(ctx, id, update); err != nil {
		writeError(w, r, err)
		return
	}

	// An admin may edit private content it cannot otherwise view.
	items, err := h.engine.Contents(ctx, []int64{id})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(items) == 0 {
		writeError(w, r, fmt.Errorf("content %d: %w", id, database.ErrNotFound))
		return
	}
	writeJSONStatus(w, http.StatusOK, items[0])
}

// DeleteContent removes a content item and its stored media
func (h *Handlers) DeleteContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authorizeContent(r, id); err != nil {
		writeError(w, r, err)
		return
	}

	key, err := h.db.DeleteContent(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if key != "" && h.blobs != nil {
		if err := h.blobs.Delete(ctx, key); err != nil {
			logging.Warn("Failed to remove object %s of content %d: %v", key, id, err)
		}
	}
	logging.Info("Content %d deleted by user %d", id, auth.ViewerFrom(ctx).ID)
	w.WriteHeader(http.StatusNoContent)
}

// ContentMedia redirects to the playback URL of a content item's media
func (h *Handlers) ContentMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.engine.GetContent(r.Context(), auth.ViewerFrom(r.Context()).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item.Media == nil {
		writeJSONError(w, "Content has no media", http.StatusNotFound)
		return
	}
	if h.blobs == nil {
		writeError(w, r, media.ErrStorageDisabled)
		return
	}

	w.Header().Set("Cache-Control", "private, no-store")
	http.Redirect(w, r, item.URL, http.StatusFound)
}
