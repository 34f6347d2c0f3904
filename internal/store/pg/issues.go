package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

const issueColumns = `
	id, tenant_id, project_id, title, description, status, priority, severity,
	reporter_id, assignee_id, completed_at, created_at, updated_at`

func scanIssue(row interface{ Scan(...any) error }) (*tracker.Issue, error) {
	var (
		i         tracker.Issue
		assignee  sql.NullString
		completed sql.NullTime
	)
	err := row.Scan(
		&i.ID, &i.TenantID, &i.ProjectID, &i.Title, &i.Description,
		&i.Status, &i.Priority, &i.Severity,
		&i.ReporterID, &assignee, &completed, &i.CreatedAt, &i.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracker.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	i.AssigneeID = assignee.String
	if completed.Valid {
		at := completed.Time
		i.CompletedAt = &at
	}
	return &i, nil
}

func (s *Store) CreateIssue(ctx context.Context, i *tracker.Issue) error {
	_, err := s.db.ExecContext(ctx, `
		insert into issues(
			id, tenant_id, project_id, title, description, status, priority, severity,
			reporter_id, assignee_id, completed_at, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		i.ID, i.TenantID, i.ProjectID, i.Title, i.Description, i.Status, i.Priority, i.Severity,
		i.ReporterID, nullString(i.AssigneeID), nullTime(i.CompletedAt), i.CreatedAt, i.UpdatedAt,
	)
	return mapWriteError(err)
}

func (s *Store) Issue(ctx context.Context, tenantID, id string) (*tracker.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+issueColumns+`
		from issues where tenant_id=$1 and id=$2
	`, tenantID, id)
	return scanIssue(row)
}

func (s *Store) ListIssues(ctx context.Context, tenantID string, f tracker.IssueFilter) ([]*tracker.Issue, error) {
	query := `select ` + issueColumns + ` from issues where tenant_id=$1`
	args := []any{tenantID}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		query += fmt.Sprintf(" and project_id=$%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" and status=$%d", len(args))
	}
	if f.AssigneeID != "" {
		args = append(args, f.AssigneeID)
		query += fmt.Sprintf(" and assignee_id=$%d", len(args))
	}
	if f.InvolvedID != "" {
		args = append(args, f.InvolvedID)
		query += fmt.Sprintf(" and (reporter_id=$%d or assignee_id=$%d)", len(args), len(args))
	}
	query += " order by created_at asc, id asc"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tracker.Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *Store) UpdateIssue(ctx context.Context, i *tracker.Issue) error {
	res, err := s.db.ExecContext(ctx, `
		update issues set
			project_id=$3, title=$4, description=$5, status=$6, priority=$7,
			severity=$8, assignee_id=$9, completed_at=$10, updated_at=$11
		where tenant_id=$1 and id=$2
	`,
		i.TenantID, i.ID, i.ProjectID, i.Title, i.Description, i.Status, i.Priority,
		i.Severity, nullString(i.AssigneeID), nullTime(i.CompletedAt), i.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

func (s *Store) DeleteIssue(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from issues where tenant_id=$1 and id=$2
	`, tenantID, id)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

func (s *Store) IssueSummary(ctx context.Context, tenantID string) (tracker.IssueSummary, error) {
	summary := tracker.IssueSummary{
		ByStatus:   make(map[tracker.IssueStatus]int),
		ByPriority: make(map[tracker.IssuePriority]int),
		BySeverity: make(map[tracker.IssueSeverity]int),
	}
	rows, err := s.db.QueryContext(ctx, `
		select status, priority, severity, count(*)
		from issues where tenant_id=$1
		group by status, priority, severity
	`, tenantID)
	if err != nil {
		return tracker.IssueSummary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   tracker.IssueStatus
			priority tracker.IssuePriority
			severity tracker.IssueSeverity
			n        int
		)
		if err := rows.Scan(&status, &priority, &severity, &n); err != nil {
			return tracker.IssueSummary{}, err
		}
		summary.Total += n
		summary.ByStatus[status] += n
		summary.ByPriority[priority] += n
		summary.BySeverity[severity] += n
	}
	return summary, rows.Err()
}
