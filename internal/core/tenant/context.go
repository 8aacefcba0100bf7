package tenant

import (
	"context"
)

type siteKey struct{}

// WithSite stores the resolved site in ctx. Only the HTTP edge uses this;
// handlers read it back and pass Site.ID explicitly to services.
func WithSite(ctx context.Context, s *Site) context.Context {
	return context.WithValue(ctx, siteKey{}, s)
}

// GetSite retrieves the site resolved for the current request.
func GetSite(ctx context.Context) *Site {
	s, _ := ctx.Value(siteKey{}).(*Site)
	return s
}

// GetID returns the resolved site id or an empty ID.
func GetID(ctx context.Context) ID {
	if s := GetSite(ctx); s != nil {
		return s.ID
	}
	return ""
}
