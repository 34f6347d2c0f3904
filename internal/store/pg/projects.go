package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

const projectColumns = `id, tenant_id, key, name, description, lead_id, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*tracker.Project, error) {
	var (
		p    tracker.Project
		lead sql.NullString
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.Key, &p.Name, &p.Description, &lead, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracker.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.LeadID = lead.String
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *tracker.Project) error {
	_, err := s.db.ExecContext(ctx, `
		insert into projects(id, tenant_id, key, name, description, lead_id, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.TenantID, p.Key, p.Name, p.Description, nullString(p.LeadID), p.CreatedAt, p.UpdatedAt)
	return mapWriteError(err)
}

func (s *Store) Project(ctx context.Context, tenantID, id string) (*tracker.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+projectColumns+`
		from projects where tenant_id=$1 and id=$2
	`, tenantID, id)
	return scanProject(row)
}

func (s *Store) ListProjects(ctx context.Context, tenantID string) ([]*tracker.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+projectColumns+`
		from projects where tenant_id=$1
		order by key asc
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tracker.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p *tracker.Project) error {
	res, err := s.db.ExecContext(ctx, `
		update projects set key=$3, name=$4, description=$5, lead_id=$6, updated_at=$7
		where tenant_id=$1 and id=$2
	`, p.TenantID, p.ID, p.Key, p.Name, p.Description, nullString(p.LeadID), p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

func (s *Store) DeleteProject(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from projects where tenant_id=$1 and id=$2
	`, tenantID, id)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

func (s *Store) CountProjectIssues(ctx context.Context, tenantID, projectID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		select count(*) from issues where tenant_id=$1 and project_id=$2
	`, tenantID, projectID).Scan(&n)
	return n, err
}
