package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

func (s *Store) CreateTenant(ctx context.Context, t *tracker.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tenants(id, name, created_at, updated_at)
		values ($1,$2,$3,$4)
	`, t.ID, t.Name, t.CreatedAt, t.UpdatedAt)
	return mapWriteError(err)
}

func (s *Store) Tenant(ctx context.Context, id string) (*tracker.Tenant, error) {
	var t tracker.Tenant
	err := s.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at from tenants where id=$1
	`, id).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracker.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
