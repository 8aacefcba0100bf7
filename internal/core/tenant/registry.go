package tenant

import (
	"context"
	"fmt"
	"sync"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry provides access to site records.
type Registry interface {
	// GetByID retrieves a site by id.
	GetByID(ctx context.Context, id ID) (*Site, error)

	// ListActive returns all active sites.
	ListActive(ctx context.Context) ([]*Site, error)

	// ListAll returns all sites.
	ListAll(ctx context.Context) ([]*Site, error)

	// Create inserts a new site row and populates s.ID.
	Create(ctx context.Context, s *Site) error

	// UpdateStatus changes the status of a site.
	UpdateStatus(ctx context.Context, id ID, status Status) error
}

const siteColumns = `id, slug, display_name, status, created_at, updated_at`

// PostgresRegistry implements Registry on the sites table.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

func (r *PostgresRegistry) GetByID(ctx context.Context, id ID) (*Site, error) {
	var s Site
	err := pgxscan.Get(ctx, r.pool, &s, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, string(id))
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("get site by id: %w", err)
	}
	return &s, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Site, error) {
	var sites []*Site
	err := pgxscan.Select(ctx, r.pool, &sites,
		`SELECT `+siteColumns+` FROM sites WHERE status = $1 ORDER BY slug`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active sites: %w", err)
	}
	return sites, nil
}

func (r *PostgresRegistry) ListAll(ctx context.Context) ([]*Site, error) {
	var sites []*Site
	err := pgxscan.Select(ctx, r.pool, &sites, `SELECT `+siteColumns+` FROM sites ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, s *Site) error {
	if s == nil {
		return fmt.Errorf("site is nil")
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sites (slug, display_name, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, s.Slug, s.DisplayName, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) UpdateStatus(ctx context.Context, id ID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sites SET status = $2, updated_at = NOW() WHERE id = $1
	`, string(id), status)
	if err != nil {
		return fmt.Errorf("update site status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)

// MemoryRegistry keeps sites in process. Used by STORAGE=memory and tests.
type MemoryRegistry struct {
	mu    sync.RWMutex
	sites map[ID]*Site
	order []ID
}

func NewMemoryRegistry(sites ...*Site) *MemoryRegistry {
	r := &MemoryRegistry{sites: make(map[ID]*Site)}
	for _, s := range sites {
		r.sites[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	return r
}

func (r *MemoryRegistry) GetByID(_ context.Context, id ID) (*Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sites[id]
	if !ok {
		return nil, ErrSiteNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRegistry) ListActive(ctx context.Context) ([]*Site, error) {
	all, _ := r.ListAll(ctx)
	active := all[:0]
	for _, s := range all {
		if s.IsActive() {
			active = append(active, s)
		}
	}
	return active, nil
}

func (r *MemoryRegistry) ListAll(_ context.Context) ([]*Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Site, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.sites[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRegistry) Create(_ context.Context, s *Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		return fmt.Errorf("site id is required")
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	cp := *s
	r.sites[s.ID] = &cp
	r.order = append(r.order, s.ID)
	return nil
}

func (r *MemoryRegistry) UpdateStatus(_ context.Context, id ID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sites[id]
	if !ok {
		return ErrSiteNotFound
	}
	s.Status = status
	return nil
}

var _ Registry = (*MemoryRegistry)(nil)
