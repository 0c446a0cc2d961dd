package auth

import (
	"context"

	"nyapix/internal/access"
	"nyapix/internal/models"
)

// Viewer identifies the user behind a request.
type Viewer struct {
	ID   int64
	Role models.Role
}

// Anonymous reports whether no user is identified.
func (v Viewer) Anonymous() bool {
	return v.ID == access.Anonymous
}

// IsAdmin reports whether the viewer holds the admin role.
func (v Viewer) IsAdmin() bool {
	return !v.Anonymous() && v.Role == models.RoleAdmin
}

// CanModify reports whether the viewer may change something owned by
// ownerID.
func (v Viewer) CanModify(ownerID int64) bool {
	return v.IsAdmin() || (!v.Anonymous() && v.ID == ownerID)
}

type viewerKey struct{}

// WithViewer returns a context carrying v.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFrom returns the viewer stored in ctx, or the anonymous viewer.
func ViewerFrom(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}
