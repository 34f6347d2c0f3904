package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

var identityCols = []string{
	"id", "tenant_id", "email", "display_name", "password_hash", "role", "owner",
	"cap_create_issues", "cap_edit_issues", "cap_delete_issues", "cap_assign_issues",
	"cap_view_all_issues", "cap_manage_users", "cap_view_reports", "cap_export_data",
	"status", "last_login_at", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestIdentityScan(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	lastLogin := created.Add(time.Hour)

	mock.ExpectQuery("from identities where tenant_id=").
		WithArgs("t1", "i1").
		WillReturnRows(sqlmock.NewRows(identityCols).AddRow(
			"i1", "t1", "dev@acme.test", "Dev", "hash", "developer", false,
			true, true, false, false, true, false, false, false,
			"active", lastLogin, created, created,
		))

	identity, err := store.Identity(context.Background(), "t1", "i1")
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if identity.Role != auth.RoleDeveloper {
		t.Fatalf("role = %s", identity.Role)
	}
	if !identity.Capabilities.CreateIssues || identity.Capabilities.ManageUsers {
		t.Fatalf("capabilities = %+v", identity.Capabilities)
	}
	if identity.LastLoginAt == nil || !identity.LastLoginAt.Equal(lastLogin) {
		t.Fatalf("last login = %v", identity.LastLoginAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIdentityNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("from identities where tenant_id=").
		WithArgs("t1", "missing").
		WillReturnRows(sqlmock.NewRows(identityCols))

	if _, err := store.Identity(context.Background(), "t1", "missing"); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestCreateIdentityUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("insert into identities").
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "identities_member_email_uq",
		})

	now := time.Now().UTC()
	err := store.CreateIdentity(context.Background(), &tracker.Identity{
		ID: "i1", TenantID: "t1", Email: "dup@acme.test", Role: auth.RoleDeveloper,
		Status: tracker.IdentityStatusActive, CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, tracker.ErrConflict) {
		t.Fatalf("got %v, want conflict", err)
	}
}

func TestCreateIssueForeignKeyViolation(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("insert into issues").
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.ForeignKeyViolation,
			ConstraintName: "issues_project_id_fkey",
		})

	now := time.Now().UTC()
	err := store.CreateIssue(context.Background(), &tracker.Issue{
		ID: "i1", TenantID: "t1", ProjectID: "gone", Title: "x",
		Status: tracker.StatusOpen, Priority: tracker.PriorityMedium, Severity: tracker.SeverityMinor,
		ReporterID: "r1", CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, tracker.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestUpdateIssueZeroRowsIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("update issues set").
		WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now().UTC()
	err := store.UpdateIssue(context.Background(), &tracker.Issue{
		ID: "foreign", TenantID: "t1", ProjectID: "p1", Title: "x",
		Status: tracker.StatusOpen, Priority: tracker.PriorityMedium, Severity: tracker.SeverityMinor,
		ReporterID: "r1", UpdatedAt: now,
	})
	if !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestListIssuesInvolvedFilter(t *testing.T) {
	store, mock := newMockStore(t)
	issueCols := []string{
		"id", "tenant_id", "project_id", "title", "description", "status", "priority",
		"severity", "reporter_id", "assignee_id", "completed_at", "created_at", "updated_at",
	}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`reporter_id=\$2 or assignee_id=\$2`).
		WithArgs("t1", "me").
		WillReturnRows(sqlmock.NewRows(issueCols).AddRow(
			"i1", "t1", "p1", "mine", "", "open", "medium", "minor",
			"me", nil, nil, now, now,
		))

	issues, err := store.ListIssues(context.Background(), "t1", tracker.IssueFilter{InvolvedID: "me"})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].AssigneeID != "" || issues[0].CompletedAt != nil {
		t.Fatalf("issues = %+v", issues)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIssueSummary(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("group by status, priority, severity").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "priority", "severity", "count"}).
			AddRow("open", "medium", "minor", 2).
			AddRow("resolved", "high", "major", 1))

	summary, err := store.IssueSummary(context.Background(), "t1")
	if err != nil {
		t.Fatalf("IssueSummary: %v", err)
	}
	if summary.Total != 3 {
		t.Fatalf("total = %d", summary.Total)
	}
	if summary.ByStatus[tracker.StatusOpen] != 2 || summary.ByStatus[tracker.StatusResolved] != 1 {
		t.Fatalf("by status = %v", summary.ByStatus)
	}
	if summary.ByPriority[tracker.PriorityHigh] != 1 || summary.BySeverity[tracker.SeverityMinor] != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}
