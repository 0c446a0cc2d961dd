package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// SourceRequest names a content source
type SourceRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

func sourceName(w http.ResponseWriter, r *http.Request) (string, error) {
	var req SourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", badRequest("name must not be blank")
	}
	return name, nil
}

// ListSources returns every source ordered by name
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.db.ListSources(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, sources)
}

// GetSource returns a source by id
func (h *Handlers) GetSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	source, err := h.db.GetSource(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, source)
}

// GetSourceByName returns a source by its exact name
func (h *Handlers) GetSourceByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(mux.Vars(r)["name"])
	if name == "" {
		writeError(w, r, badRequest("name must not be blank"))
		return
	}
	source, err := h.db.GetSourceByName(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, source)
}

// CreateSource stores a new source
func (h *Handlers) CreateSource(w http.ResponseWriter, r *http.Request) {
	name, err := sourceName(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	source, err := h.db.CreateSource(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, source)
}

// RenameSource changes a source's name
func (h *Handlers) RenameSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, err := sourceName(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.RenameSource(r.Context(), id, name); err != nil {
		writeError(w, r, err)
		return
	}
	source, err := h.db.GetSource(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, source)
}

// DeleteSource removes a source. Content that named it keeps no source.
func (h *Handlers) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.db.DeleteSource(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
