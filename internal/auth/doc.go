// Package auth issues and verifies the bearer tokens that identify a viewer.
//
// Tokens are HS256 signed JWTs carrying the user id and role. Authenticate
// parses the Authorization header of every request and stores the viewer in
// the request context; requests without a header proceed anonymously.
// RequireUser and RequireAdmin guard routes that need an identified viewer.
//
//	issuer := auth.NewIssuer(secret, 24*time.Hour)
//	token, _ := issuer.Issue(user.ID, user.Role)
//
//	router.Use(auth.Authenticate(issuer))
//	router.Handle("/api/albums", auth.RequireUser(createAlbum))
//
// Handlers read the viewer with ViewerFrom; the anonymous viewer has id 0.
package auth
