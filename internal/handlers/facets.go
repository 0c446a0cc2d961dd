package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"nyapix/internal/auth"
	"nyapix/internal/logging"
	"nyapix/internal/models"
	"nyapix/internal/search"
)

const maxFacetSearchLimit = 100

// FacetRequest names a tag, character or author
type FacetRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

// facetKind reads the facet kind from the route.
func facetKind(r *http.Request) (models.FacetKind, error) {
	kind, ok := models.ParseFacetKind(mux.Vars(r)["kind"])
	if !ok {
		return "", badRequest("unknown facet kind %q", mux.Vars(r)["kind"])
	}
	return kind, nil
}

// facetName decodes and normalizes a facet name from the request body.
func facetName(w http.ResponseWriter, r *http.Request) (string, error) {
	var req FacetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	name := models.NormalizeFacetName(req.Name)
	if name == "" {
		return "", badRequest("name must not be blank")
	}
	return name, nil
}

// ListFacets returns one page of facets ordered by name
func (h *Handlers) ListFacets(w http.ResponseWriter, r *http.Request) {
	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, size, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	facets, err := h.db.ListFacets(r.Context(), kind, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, facets)
}

// SearchFacets returns facets whose name contains q
func (h *Handlers) SearchFacets(w http.ResponseWriter, r *http.Request) {
	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := models.NormalizeFacetName(r.URL.Query().Get("q"))
	facets, err := h.db.SearchFacets(r.Context(), kind, query, min(limit, maxFacetSearchLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, facets)
}

// MyFacets lists the facets the viewer created
func (h *Handlers) MyFacets(w http.ResponseWriter, r *http.Request) {
	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	facets, err := h.db.FacetsOwnedBy(r.Context(), kind, auth.ViewerFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, facets)
}

// GetFacet returns a facet by id
func (h *Handlers) GetFacet(w http.ResponseWriter, r *http.Request) {
	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	facet, err := h.db.GetFacet(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, facet)
}

// GetFacetByName returns a facet by name
func (h *Handlers) GetFacetByName(w http.ResponseWriter, r *http.Request) {
	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	facet, err := h.db.GetFacetByName(r.Context(), kind, models.NormalizeFacetName(mux.Vars(r)["name"]))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, facet)
}

// CreateFacet stores a new facet owned by the viewer
func (h *Handlers) CreateFacet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, err := facetName(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	viewer := auth.ViewerFrom(ctx)
	facet, err := h.db.CreateFacet(ctx, kind, name, viewer.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.Debug("User %d created %s %q", viewer.ID, kind, name)
	writeJSONStatus(w, http.StatusCreated, facet)
}

// authorizeFacet checks that the viewer may change facet id.
func (h *Handlers) authorizeFacet(r *http.Request, kind models.FacetKind, id int64) error {
	facet, err := h.db.GetFacet(r.Context(), kind, id)
	if err != nil {
		return err
	}
	if !auth.ViewerFrom(r.Context()).CanModify(facet.OwnerID) {
		return fmt.Errorf("%s %d: %w", kind, id, search.ErrForbidden)
	}
	return nil
}

// RenameFacet changes a facet's name
func (h *Handlers) RenameFacet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, err := facetName(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.authorizeFacet(r, kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.RenameFacet(ctx, kind, id, name); err != nil {
		writeError(w, r, err)
		return
	}

	facet, err := h.db.GetFacet(ctx, kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, facet)
}

// DeleteFacet removes a facet and unlinks it from all content
func (h *Handlers) DeleteFacet(w http.ResponseWriter, r *http.Request) {
	kind, err := facetKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.authorizeFacet(r, kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.DeleteFacet(r.Context(), kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
