package tenant

import "errors"

var (
	// ErrSiteNotFound is returned when a site does not exist.
	ErrSiteNotFound = errors.New("site not found")

	// ErrSiteNotActive is returned when a site exists but is not active.
	ErrSiteNotActive = errors.New("site is not active")
)
