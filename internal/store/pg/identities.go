package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

const identityColumns = `
	id, tenant_id, email, display_name, password_hash, role, owner,
	cap_create_issues, cap_edit_issues, cap_delete_issues, cap_assign_issues,
	cap_view_all_issues, cap_manage_users, cap_view_reports, cap_export_data,
	status, last_login_at, created_at, updated_at`

func scanIdentity(row interface{ Scan(...any) error }) (*tracker.Identity, error) {
	var (
		i         tracker.Identity
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&i.ID, &i.TenantID, &i.Email, &i.DisplayName, &i.PasswordHash, &i.Role, &i.Owner,
		&i.Capabilities.CreateIssues, &i.Capabilities.EditIssues, &i.Capabilities.DeleteIssues,
		&i.Capabilities.AssignIssues, &i.Capabilities.ViewAllIssues, &i.Capabilities.ManageUsers,
		&i.Capabilities.ViewReports, &i.Capabilities.ExportData,
		&i.Status, &lastLogin, &i.CreatedAt, &i.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracker.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		at := lastLogin.Time
		i.LastLoginAt = &at
	}
	return &i, nil
}

func (s *Store) CreateIdentity(ctx context.Context, i *tracker.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		insert into identities(
			id, tenant_id, email, display_name, password_hash, role, owner,
			cap_create_issues, cap_edit_issues, cap_delete_issues, cap_assign_issues,
			cap_view_all_issues, cap_manage_users, cap_view_reports, cap_export_data,
			status, last_login_at, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		i.ID, i.TenantID, i.Email, i.DisplayName, i.PasswordHash, i.Role, i.Owner,
		i.Capabilities.CreateIssues, i.Capabilities.EditIssues, i.Capabilities.DeleteIssues,
		i.Capabilities.AssignIssues, i.Capabilities.ViewAllIssues, i.Capabilities.ManageUsers,
		i.Capabilities.ViewReports, i.Capabilities.ExportData,
		i.Status, nullTime(i.LastLoginAt), i.CreatedAt, i.UpdatedAt,
	)
	return mapWriteError(err)
}

func (s *Store) Identity(ctx context.Context, tenantID, id string) (*tracker.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+identityColumns+`
		from identities where tenant_id=$1 and id=$2
	`, tenantID, id)
	return scanIdentity(row)
}

func (s *Store) MemberByEmail(ctx context.Context, tenantID, email string) (*tracker.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+identityColumns+`
		from identities where tenant_id=$1 and lower(email)=lower($2) and not owner
	`, tenantID, email)
	return scanIdentity(row)
}

func (s *Store) OwnerByEmail(ctx context.Context, email string) (*tracker.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+identityColumns+`
		from identities where lower(email)=lower($1) and owner
	`, email)
	return scanIdentity(row)
}

func (s *Store) ListIdentities(ctx context.Context, tenantID string) ([]*tracker.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+identityColumns+`
		from identities where tenant_id=$1
		order by created_at asc, id asc
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tracker.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *Store) UpdateIdentity(ctx context.Context, i *tracker.Identity) error {
	res, err := s.db.ExecContext(ctx, `
		update identities set
			email=$3, display_name=$4, password_hash=$5, role=$6,
			cap_create_issues=$7, cap_edit_issues=$8, cap_delete_issues=$9,
			cap_assign_issues=$10, cap_view_all_issues=$11, cap_manage_users=$12,
			cap_view_reports=$13, cap_export_data=$14,
			status=$15, updated_at=$16
		where tenant_id=$1 and id=$2
	`,
		i.TenantID, i.ID, i.Email, i.DisplayName, i.PasswordHash, i.Role,
		i.Capabilities.CreateIssues, i.Capabilities.EditIssues, i.Capabilities.DeleteIssues,
		i.Capabilities.AssignIssues, i.Capabilities.ViewAllIssues, i.Capabilities.ManageUsers,
		i.Capabilities.ViewReports, i.Capabilities.ExportData,
		i.Status, i.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

func (s *Store) DeleteIdentity(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from identities where tenant_id=$1 and id=$2
	`, tenantID, id)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update identities set last_login_at=$2 where id=$1
	`, id, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow turns a zero-row write into ErrNotFound so tenant-scoped updates
// against foreign rows are indistinguishable from missing rows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return tracker.ErrNotFound
	}
	return nil
}
