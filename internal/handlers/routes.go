package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"nyapix/internal/auth"
)

const facetKinds = "{kind:tags|characters|authors}"

// RegisterRoutes mounts the API on r. Authentication must already have
// attached the viewer to each request.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	user := func(f http.HandlerFunc) http.Handler { return auth.RequireUser(f) }
	admin := func(f http.HandlerFunc) http.Handler { return auth.RequireAdmin(f) }

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	a := r.PathPrefix("/api/auth").Subrouter()
	a.HandleFunc("/login", h.Login).Methods("POST")
	a.Handle("/me", user(h.Me)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Contents
	api.HandleFunc("/contents/search", h.SearchContents).Methods("GET")
	api.Handle("/contents/mine", user(h.MyContents)).Methods("GET")
	api.Handle("/contents", user(h.UploadContent)).Methods("POST")
	api.HandleFunc("/contents/{id:[0-9]+}", h.GetContent).Methods("GET")
	api.Handle("/contents/{id:[0-9]+}", user(h.UpdateContent)).Methods("PATCH")
	api.Handle("/contents/{id:[0-9]+}", user(h.DeleteContent)).Methods("DELETE")
	api.HandleFunc("/contents/{id:[0-9]+}/media", h.ContentMedia).Methods("GET")

	// Sources
	api.HandleFunc("/sources", h.ListSources).Methods("GET")
	api.Handle("/sources", admin(h.CreateSource)).Methods("POST")
	api.HandleFunc("/sources/by-name/{name}", h.GetSourceByName).Methods("GET")
	api.HandleFunc("/sources/{id:[0-9]+}", h.GetSource).Methods("GET")
	api.Handle("/sources/{id:[0-9]+}", admin(h.RenameSource)).Methods("PUT")
	api.Handle("/sources/{id:[0-9]+}", admin(h.DeleteSource)).Methods("DELETE")

	// Albums
	api.HandleFunc("/albums/search", h.SearchAlbums).Methods("GET")
	api.Handle("/albums/mine", user(h.MyAlbums)).Methods("GET")
	api.Handle("/albums", user(h.CreateAlbum)).Methods("POST")
	api.HandleFunc("/albums/{id:[0-9]+}", h.GetAlbum).Methods("GET")
	api.Handle("/albums/{id:[0-9]+}", user(h.UpdateAlbum)).Methods("PUT")
	api.Handle("/albums/{id:[0-9]+}", user(h.DeleteAlbum)).Methods("DELETE")
	api.Handle("/albums/{id:[0-9]+}/contents/{contentId:[0-9]+}", user(h.AddAlbumContent)).Methods("POST")
	api.Handle("/albums/{id:[0-9]+}/contents/{contentId:[0-9]+}", user(h.RemoveAlbumContent)).Methods("DELETE")
	api.Handle("/admin/albums/{id:[0-9]+}/owner", admin(h.AlbumOwner)).Methods("GET")

	// Facets: tags, characters and authors share one set of routes
	api.HandleFunc("/"+facetKinds, h.ListFacets).Methods("GET")
	api.Handle("/"+facetKinds, user(h.CreateFacet)).Methods("POST")
	api.HandleFunc("/"+facetKinds+"/search", h.SearchFacets).Methods("GET")
	api.Handle("/"+facetKinds+"/mine", user(h.MyFacets)).Methods("GET")
	api.HandleFunc("/"+facetKinds+"/by-name/{name}", h.GetFacetByName).Methods("GET")
	api.HandleFunc("/"+facetKinds+"/{id:[0-9]+}", h.GetFacet).Methods("GET")
	api.Handle("/"+facetKinds+"/{id:[0-9]+}", user(h.RenameFacet)).Methods("PUT")
	api.Handle("/"+facetKinds+"/{id:[0-9]+}", user(h.DeleteFacet)).Methods("DELETE")
}
