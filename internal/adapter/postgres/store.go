package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline/internal/domain/catalog"
	"github.com/bookline/bookline/internal/domain/resource"
	"github.com/bookline/bookline/internal/domain/tenant"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Tenants ---

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Timezone, &t.ConfirmationPolicy,
		&t.SlotGranularityMin, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const tenantCols = `id, name, slug, timezone, confirmation_policy, slot_granularity_minutes, enabled, created_at, updated_at`

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantCols+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantCols+` FROM tenants WHERE id = $1`, id)
	t, err := scanTenant(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, slug, timezone, confirmation_policy, slot_granularity_minutes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+tenantCols,
		req.Name, req.Slug, req.Timezone, req.ConfirmationPolicy, req.SlotGranularityMin)
	t, err := scanTenant(row)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants
		 SET name = $2, timezone = $3, confirmation_policy = $4,
		     slot_granularity_minutes = $5, enabled = $6, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, t.Timezone, t.ConfirmationPolicy, t.SlotGranularityMin, t.Enabled)
	return execExpectOne(tag, err, "update tenant %s", t.ID)
}

// --- Resources ---

func scanResource(row scannable) (resource.Resource, error) {
	var r resource.Resource
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const resourceCols = `id, tenant_id, name, active, created_at, updated_at`

func (s *Store) ListResources(ctx context.Context) ([]resource.Resource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+resourceCols+` FROM resources WHERE tenant_id = $1 ORDER BY created_at`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []resource.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *Store) GetResource(ctx context.Context, id string) (*resource.Resource, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+resourceCols+` FROM resources WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))
	r, err := scanResource(row)
	if err != nil {
		return nil, notFoundWrap(err, "get resource %s", id)
	}
	return &r, nil
}

func (s *Store) CreateResource(ctx context.Context, req resource.CreateRequest) (*resource.Resource, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO resources (tenant_id, name) VALUES ($1, $2)
		 RETURNING `+resourceCols,
		tenantFromCtx(ctx), req.Name)
	r, err := scanResource(row)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return &r, nil
}

func (s *Store) UpdateResource(ctx context.Context, r *resource.Resource) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE resources SET name = $2, active = $3, updated_at = now()
		 WHERE id = $1 AND tenant_id = $4`,
		r.ID, r.Name, r.Active, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update resource %s", r.ID)
}

// --- Availability windows ---

func scanWindow(row scannable) (resource.AvailabilityWindow, error) {
	var w resource.AvailabilityWindow
	var start, end string
	err := row.Scan(&w.ID, &w.ResourceID, &w.Weekday, &start, &end, &w.Available,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return w, err
	}
	if w.Start, err = resource.ParseTimeOfDay(start); err != nil {
		return w, err
	}
	if w.End, err = resource.ParseTimeOfDay(end); err != nil {
		return w, err
	}
	return w, nil
}

func (s *Store) ListWindows(ctx context.Context, resourceID string) ([]resource.AvailabilityWindow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, resource_id, weekday, start_time::text, end_time::text, available, created_at, updated_at
		 FROM availability_windows
		 WHERE resource_id = $1 AND tenant_id = $2
		 ORDER BY weekday`,
		resourceID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list windows for %s: %w", resourceID, err)
	}
	defer rows.Close()

	var windows []resource.AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (s *Store) PutWindow(ctx context.Context, w *resource.AvailabilityWindow) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO availability_windows
		    (tenant_id, resource_id, weekday, start_time, end_time, available)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (resource_id, weekday) DO UPDATE
		    SET start_time = EXCLUDED.start_time,
		        end_time = EXCLUDED.end_time,
		        available = EXCLUDED.available,
		        updated_at = now()
		 RETURNING id, created_at, updated_at`,
		tenantFromCtx(ctx), w.ResourceID, w.Weekday, w.Start.String(), w.End.String(), w.Available,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put window %s/%s: %w", w.ResourceID, w.Weekday, err)
	}
	return nil
}

func (s *Store) DeleteWindow(ctx context.Context, resourceID string, day resource.Weekday) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM availability_windows
		 WHERE resource_id = $1 AND weekday = $2 AND tenant_id = $3`,
		resourceID, day, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete window %s/%s", resourceID, day)
}

// --- Blockouts ---

func (s *Store) ListBlockouts(ctx context.Context, resourceID string, from, to time.Time) ([]resource.Blockout, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, resource_id, start_at, end_at, description, created_at
		 FROM blockouts
		 WHERE resource_id = $1 AND tenant_id = $2
		   AND start_at < $4 AND end_at > $3
		 ORDER BY start_at`,
		resourceID, tenantFromCtx(ctx), from, to)
	if err != nil {
		return nil, fmt.Errorf("list blockouts for %s: %w", resourceID, err)
	}
	defer rows.Close()

	var blockouts []resource.Blockout
	for rows.Next() {
		var b resource.Blockout
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.Start, &b.End, &b.Description, &b.CreatedAt); err != nil {
			return nil, err
		}
		blockouts = append(blockouts, b)
	}
	return blockouts, rows.Err()
}

func (s *Store) CreateBlockout(ctx context.Context, b *resource.Blockout) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO blockouts (tenant_id, resource_id, start_at, end_at, description)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		tenantFromCtx(ctx), b.ResourceID, b.Start, b.End, b.Description,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create blockout for %s: %w", b.ResourceID, err)
	}
	return nil
}

func (s *Store) DeleteBlockout(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM blockouts WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete blockout %s", id)
}

// --- Services ---

func scanService(row scannable) (catalog.Service, error) {
	var svc catalog.Service
	err := row.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.DurationMin,
		&svc.GranularityMin, &svc.CreatedAt, &svc.UpdatedAt)
	return svc, err
}

const serviceCols = `id, tenant_id, name, duration_minutes, granularity_minutes, created_at, updated_at`

func (s *Store) ListServices(ctx context.Context) ([]catalog.Service, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+serviceCols+` FROM services WHERE tenant_id = $1 ORDER BY created_at`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []catalog.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range services {
		pool, err := s.serviceResources(ctx, services[i].ID)
		if err != nil {
			return nil, err
		}
		services[i].ResourceIDs = pool
	}
	return services, nil
}

func (s *Store) GetService(ctx context.Context, id string) (*catalog.Service, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+serviceCols+` FROM services WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))
	svc, err := scanService(row)
	if err != nil {
		return nil, notFoundWrap(err, "get service %s", id)
	}
	if svc.ResourceIDs, err = s.serviceResources(ctx, svc.ID); err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *Store) serviceResources(ctx context.Context, serviceID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT resource_id FROM service_resources WHERE service_id = $1 ORDER BY resource_id`,
		serviceID)
	if err != nil {
		return nil, fmt.Errorf("service %s resources: %w", serviceID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CreateService(ctx context.Context, req catalog.CreateRequest) (*catalog.Service, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`INSERT INTO services (tenant_id, name, duration_minutes, granularity_minutes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+serviceCols,
		tenantFromCtx(ctx), req.Name, req.DurationMin, req.GranularityMin)
	svc, err := scanService(row)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	for _, rid := range req.ResourceIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO service_resources (service_id, resource_id) VALUES ($1, $2)`,
			svc.ID, rid); err != nil {
			return nil, fmt.Errorf("create service pool: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	svc.ResourceIDs = append([]string{}, req.ResourceIDs...)
	return &svc, nil
}

func (s *Store) UpdateService(ctx context.Context, svc *catalog.Service) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update service %s: %w", svc.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE services
		 SET name = $2, duration_minutes = $3, granularity_minutes = $4, updated_at = now()
		 WHERE id = $1 AND tenant_id = $5`,
		svc.ID, svc.Name, svc.DurationMin, svc.GranularityMin, tenantFromCtx(ctx))
	if err := execExpectOne(tag, err, "update service %s", svc.ID); err != nil {
		return err
	}

	// Replace the resource pool; changes only affect future slot queries.
	if _, err := tx.Exec(ctx,
		`DELETE FROM service_resources WHERE service_id = $1`, svc.ID); err != nil {
		return fmt.Errorf("update service pool: %w", err)
	}
	for _, rid := range svc.ResourceIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO service_resources (service_id, resource_id) VALUES ($1, $2)`,
			svc.ID, rid); err != nil {
			return fmt.Errorf("update service pool: %w", err)
		}
	}

	return tx.Commit(ctx)
}
