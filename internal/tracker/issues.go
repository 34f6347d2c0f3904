package tracker

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/ids"
)

// CreateIssueInput creates an issue inside the caller's tenant. A project
// association is mandatory; the reporter is always the caller.
type CreateIssueInput struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Severity    string `json:"severity"`
	AssigneeID  string `json:"assignee_id"`
}

// IssueUpdate is a partial issue update.
type IssueUpdate struct {
	ProjectID   *string `json:"project_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Severity    *string `json:"severity,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
}

// resolveProjectRef checks a client-supplied project reference resolves
// within the caller's tenant.
func (s *Service) resolveProjectRef(ctx context.Context, tenantID, projectID string) error {
	if !ids.Valid(projectID) {
		return invalidf("project_id", "malformed identifier")
	}
	if _, err := s.store.Project(ctx, tenantID, projectID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidf("project_id", "project not found in tenant")
		}
		return err
	}
	return nil
}

// resolveAssigneeRef checks a client-supplied assignee reference resolves
// within the caller's tenant. Cross-tenant assignment is a data-integrity
// violation rejected at write time.
func (s *Service) resolveAssigneeRef(ctx context.Context, tenantID, assigneeID string) error {
	if !ids.Valid(assigneeID) {
		return invalidf("assignee_id", "malformed identifier")
	}
	if _, err := s.store.Identity(ctx, tenantID, assigneeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidf("assignee_id", "identity not found in tenant")
		}
		return err
	}
	return nil
}

// CreateIssue files an issue. Requires create-issues.
func (s *Service) CreateIssue(ctx context.Context, ac auth.AuthContext, input CreateIssueInput) (*Issue, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapCreateIssues); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidf("title", "title is required")
	}
	projectID := strings.TrimSpace(input.ProjectID)
	if projectID == "" {
		return nil, invalidf("project_id", "a project is required")
	}
	assigneeID := strings.TrimSpace(input.AssigneeID)

	// The project and assignee references are independent lookups.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.resolveProjectRef(gctx, ac.TenantID, projectID)
	})
	if assigneeID != "" {
		g.Go(func() error {
			return s.resolveAssigneeRef(gctx, ac.TenantID, assigneeID)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	status := StatusOpen
	if strings.TrimSpace(input.Status) != "" {
		var err error
		status, err = ParseIssueStatus(input.Status)
		if err != nil {
			return nil, err
		}
	}
	priority, err := ParseIssuePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	severity, err := ParseIssueSeverity(input.Severity)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	issue := &Issue{
		ID:          ids.New(),
		TenantID:    ac.TenantID,
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		Severity:    severity,
		ReporterID:  ac.IdentityID,
		AssigneeID:  assigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ApplyStatusChange(issue, status, now)
	if err := s.store.CreateIssue(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// Issue returns one issue from the caller's tenant. Without view-all-issues
// the caller only sees issues it reported or is assigned to; anything else
// reads as not found, exactly like a cross-tenant id.
func (s *Service) Issue(ctx context.Context, ac auth.AuthContext, id string) (*Issue, error) {
	issue, err := s.store.Issue(ctx, ac.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapViewAllIssues); err != nil {
		if !errors.Is(err, auth.ErrPermissionDenied) {
			return nil, err
		}
		if issue.ReporterID != ac.IdentityID && issue.AssigneeID != ac.IdentityID {
			return nil, ErrNotFound
		}
	}
	return issue, nil
}

// ListIssues lists the caller tenant's issues. Callers without
// view-all-issues get only issues they reported or are assigned to.
func (s *Service) ListIssues(ctx context.Context, ac auth.AuthContext, f IssueFilter) ([]*Issue, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapViewAllIssues); err != nil {
		if !errors.Is(err, auth.ErrPermissionDenied) {
			return nil, err
		}
		f.InvolvedID = ac.IdentityID
	}
	return s.store.ListIssues(ctx, ac.TenantID, f)
}

// UpdateIssue applies a partial update. Requires edit-issues; changing the
// assignee additionally requires assign-issues. A status change stamps or
// clears the completion timestamp before the record is persisted.
func (s *Service) UpdateIssue(ctx context.Context, ac auth.AuthContext, id string, upd IssueUpdate) (*Issue, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapEditIssues); err != nil {
		return nil, err
	}
	issue, err := s.store.Issue(ctx, ac.TenantID, id)
	if err != nil {
		return nil, err
	}

	if upd.ProjectID != nil {
		projectID := strings.TrimSpace(*upd.ProjectID)
		if projectID == "" {
			return nil, invalidf("project_id", "a project is required")
		}
		if err := s.resolveProjectRef(ctx, ac.TenantID, projectID); err != nil {
			return nil, err
		}
		issue.ProjectID = projectID
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, invalidf("title", "title is required")
		}
		issue.Title = title
	}
	if upd.Description != nil {
		issue.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.AssigneeID != nil {
		assigneeID := strings.TrimSpace(*upd.AssigneeID)
		if assigneeID != issue.AssigneeID {
			if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapAssignIssues); err != nil {
				return nil, err
			}
			if assigneeID != "" {
				if err := s.resolveAssigneeRef(ctx, ac.TenantID, assigneeID); err != nil {
					return nil, err
				}
			}
			issue.AssigneeID = assigneeID
		}
	}
	if upd.Priority != nil {
		priority, err := ParseIssuePriority(*upd.Priority)
		if err != nil {
			return nil, err
		}
		issue.Priority = priority
	}
	if upd.Severity != nil {
		severity, err := ParseIssueSeverity(*upd.Severity)
		if err != nil {
			return nil, err
		}
		issue.Severity = severity
	}
	if upd.Status != nil {
		status, err := ParseIssueStatus(*upd.Status)
		if err != nil {
			return nil, err
		}
		ApplyStatusChange(issue, status, s.now())
	}

	issue.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateIssue(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// DeleteIssue removes an issue. Requires delete-issues.
func (s *Service) DeleteIssue(ctx context.Context, ac auth.AuthContext, id string) error {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapDeleteIssues); err != nil {
		return err
	}
	return s.store.DeleteIssue(ctx, ac.TenantID, id)
}

// IssueSummary aggregates the caller tenant's issues for reporting widgets.
// Requires view-reports.
func (s *Service) IssueSummary(ctx context.Context, ac auth.AuthContext) (IssueSummary, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapViewReports); err != nil {
		return IssueSummary{}, err
	}
	return s.store.IssueSummary(ctx, ac.TenantID)
}

// ExportIssues returns the full tenant issue set. Requires export-data.
func (s *Service) ExportIssues(ctx context.Context, ac auth.AuthContext) ([]*Issue, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapExportData); err != nil {
		return nil, err
	}
	return s.store.ListIssues(ctx, ac.TenantID, IssueFilter{})
}
