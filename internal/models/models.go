package models

import (
	"strings"
	"time"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

type FacetKind string

const (
	FacetTag       FacetKind = "tag"
	FacetCharacter FacetKind = "character"
	FacetAuthor    FacetKind = "author"
)

// FacetKinds lists every facet kind in intersection priority order.
var FacetKinds = []FacetKind{FacetTag, FacetCharacter, FacetAuthor}

// ParseFacetKind accepts both the singular kind and the plural route segment
// ("tags", "characters", "authors").
func ParseFacetKind(s string) (FacetKind, bool) {
	switch strings.TrimSuffix(strings.ToLower(s), "s") {
	case "tag":
		return FacetTag, true
	case "character":
		return FacetCharacter, true
	case "author":
		return FacetAuthor, true
	}
	return "", false
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Media struct {
	ID        int64     `json:"id" db:"id"`
	ContentID int64     `json:"-" db:"content_id"`
	Kind      MediaKind `json:"kind" db:"kind"`
	ObjectKey string    `json:"-" db:"object_key"`
	MimeType  string    `json:"mime_type" db:"mime_type"`
	Size      int64     `json:"size" db:"size"`
}

type ContentItem struct {
	ID           int64      `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	OwnerID      int64      `json:"owner_id" db:"owner_id"`
	Visibility   Visibility `json:"visibility" db:"visibility"`
	SourceID     *int64     `json:"source_id,omitempty" db:"source_id"`
	FileHash     string     `json:"file_hash,omitempty" db:"file_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	TagIDs       []int64    `json:"tags" db:"-"`
	CharacterIDs []int64    `json:"characters" db:"-"`
	AuthorIDs    []int64    `json:"authors" db:"-"`
	Media        *Media     `json:"media,omitempty" db:"-"`
	URL          string     `json:"url" db:"-"`
}

// FacetIDs returns the item's facet ids for kind.
func (c *ContentItem) FacetIDs(kind FacetKind) []int64 {
	switch kind {
	case FacetTag:
		return c.TagIDs
	case FacetCharacter:
		return c.CharacterIDs
	case FacetAuthor:
		return c.AuthorIDs
	}
	return nil
}

// SetFacetIDs replaces the item's facet ids for kind.
func (c *ContentItem) SetFacetIDs(kind FacetKind, ids []int64) {
	switch kind {
	case FacetTag:
		c.TagIDs = ids
	case FacetCharacter:
		c.CharacterIDs = ids
	case FacetAuthor:
		c.AuthorIDs = ids
	}
}

// Ownership is the subset of a content item the access rule looks at.
type Ownership struct {
	ID         int64      `db:"id"`
	OwnerID    int64      `db:"owner_id"`
	Visibility Visibility `db:"visibility"`
}

type Facet struct {
	ID        int64     `json:"id" db:"id"`
	Kind      FacetKind `json:"kind" db:"-"`
	Name      string    `json:"name" db:"name"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Source struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Album struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AlbumSummary is an album search hit.
type AlbumSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MatchCount  int    `json:"match_count"`
}

// AlbumDetail is an album with the contents its viewer may see.
type AlbumDetail struct {
	Album
	Contents []ContentItem `json:"contents"`
}

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Nickname     string    `json:"nickname" db:"nickname"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type ContentPage struct {
	Contents      []ContentItem `json:"contents"`
	TotalPages    int           `json:"total_pages"`
	TotalContents int           `json:"total_contents"`
}

type AlbumPage struct {
	Albums      []AlbumSummary `json:"albums"`
	TotalPages  int            `json:"total_pages"`
	TotalAlbums int            `json:"total_albums"`
}

type FacetPage struct {
	Facets     []Facet `json:"facets"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
	Total      int     `json:"total"`
}

type AlbumListPage struct {
	Albums     []Album `json:"albums"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
	Total      int     `json:"total"`
}

// NormalizeFacetName lowercases a facet name and joins its words with
// underscores, so "Blue Sky" and "blue_sky" name the same facet.
func NormalizeFacetName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}
