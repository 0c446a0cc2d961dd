package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"nyapix/internal/access"
	"nyapix/internal/auth"
	"nyapix/internal/database"
	"nyapix/internal/models"
	"nyapix/internal/search"
)

// AlbumRequest creates an album
type AlbumRequest struct {
	Title       string `json:"title" validate:"required,max=256"`
	Description string `json:"description" validate:"max=4096"`
}

// AlbumPatchRequest edits the supplied album fields
type AlbumPatchRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=256"`
	Description *string `json:"description" validate:"omitempty,max=4096"`
}

// AlbumOwnerResponse answers the admin owner lookup
type AlbumOwnerResponse struct {
	AlbumID int64 `json:"album_id"`
	OwnerID int64 `json:"owner_id"`
}

// SearchAlbums ranks albums by how much of their content matches the search
func (h *Handlers) SearchAlbums(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.engine.SearchAlbums(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, page)
}

// MyAlbums lists the viewer's albums, newest first
func (h *Handlers) MyAlbums(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	albums, err := h.db.AlbumsOwnedBy(r.Context(), auth.ViewerFrom(r.Context()).ID, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, albums)
}

// CreateAlbum stores a new, empty album owned by the viewer
func (h *Handlers) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req AlbumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, r, badRequest("title must not be blank"))
		return
	}

	album, err := h.db.CreateAlbum(r.Context(), auth.ViewerFrom(r.Context()).ID, title, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, album)
}

// GetAlbum returns an album with the contents the viewer may access
func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	album, err := h.engine.GetAlbum(r.Context(), auth.ViewerFrom(r.Context()).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, album)
}

// ownedAlbum loads album id and checks that the viewer may change it.
func (h *Handlers) ownedAlbum(r *http.Request, id int64) (*models.Album, error) {
	album, err := h.db.GetAlbum(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !auth.ViewerFrom(r.Context()).CanModify(album.OwnerID) {
		return nil, fmt.Errorf("album %d: %w", id, search.ErrForbidden)
	}
	return album, nil
}

// UpdateAlbum edits an album's title or description
func (h *Handlers) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req AlbumPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, r, badRequest("title must not be blank"))
			return
		}
		req.Title = &title
	}

	if _, err := h.ownedAlbum(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.UpdateAlbum(ctx, id, req.Title, req.Description); err != nil {
		writeError(w, r, err)
		return
	}
	album, err := h.db.GetAlbum(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, album)
}

// DeleteAlbum removes an album. Its contents are kept.
func (h *Handlers) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedAlbum(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.DeleteAlbum(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAlbumContent puts a content item into an album
func (h *Handlers) AddAlbumContent(w http.ResponseWriter, r *http.Request) {
	albumID, contentID, err := albumContentIDs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedAlbum(r, albumID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.visibleContent(r, contentID); err != nil {
		writeError(w, r, err)
		return
	}

	added, err := h.db.AddContentToAlbum(r.Context(), albumID, contentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !added {
		writeError(w, r, fmt.Errorf("content %d in album %d: %w", contentID, albumID, database.ErrConflict))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// visibleContent reports content the viewer may not access as missing, so
// album edits cannot reveal which private ids exist.
func (h *Handlers) visibleContent(r *http.Request, contentID int64) error {
	owner, err := h.db.ContentOwnership(r.Context(), contentID)
	if err != nil {
		return err
	}
	if !access.CanAccess(auth.ViewerFrom(r.Context()).ID, owner) {
		return fmt.Errorf("content %d: %w", contentID, database.ErrNotFound)
	}
	return nil
}

// RemoveAlbumContent takes a content item out of an album
func (h *Handlers) RemoveAlbumContent(w http.ResponseWriter, r *http.Request) {
	albumID, contentID, err := albumContentIDs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedAlbum(r, albumID); err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := h.db.RemoveContentFromAlbum(r.Context(), albumID, contentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, fmt.Errorf("content %d in album %d: %w", contentID, albumID, database.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func albumContentIDs(r *http.Request) (albumID, contentID int64, err error) {
	if albumID, err = pathID(r, "id"); err != nil {
		return 0, 0, err
	}
	if contentID, err = pathID(r, "contentId"); err != nil {
		return 0, 0, err
	}
	return albumID, contentID, nil
}

// AlbumOwner reports who owns an album
func (h *Handlers) AlbumOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	album, err := h.db.GetAlbum(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, AlbumOwnerResponse{AlbumID: album.ID, OwnerID: album.OwnerID})
}
