// Package tenant models sites. All sites share one database; every row carries
// a tenant_id and every core operation receives the tenant explicitly.
package tenant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID identifies a site. It is passed explicitly into every core operation.
type ID string

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return id == "" }

// ParseID validates a UUID string and returns it as an ID.
func ParseID(raw string) (ID, error) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse tenant id: %w", err)
	}
	return ID(u.String()), nil
}

// Status represents site lifecycle state.
type Status string

const (
	// StatusActive - site can accept requests
	StatusActive Status = "active"

	// StatusSuspended - site is temporarily disabled
	StatusSuspended Status = "suspended"

	// StatusDeleted - site is marked for deletion
	StatusDeleted Status = "deleted"
)

// Site represents a tenant row.
type Site struct {
	ID          ID        `db:"id"`
	Slug        string    `db:"slug"`
	DisplayName string    `db:"display_name"`
	Status      Status    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsActive returns true if the site can accept requests.
func (s *Site) IsActive() bool {
	return s.Status == StatusActive
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// CreateSiteInput contains data for creating a new site.
type CreateSiteInput struct {
	Slug        string
	DisplayName string
}

// Validate checks if input is valid and normalises the slug.
func (i *CreateSiteInput) Validate() error {
	i.Slug = strings.ToLower(strings.TrimSpace(i.Slug))
	if i.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if !slugPattern.MatchString(i.Slug) {
		return fmt.Errorf("slug must be lowercase letters, digits or dashes (max 63)")
	}
	if strings.TrimSpace(i.DisplayName) == "" {
		return fmt.Errorf("display_name is required")
	}
	return nil
}
