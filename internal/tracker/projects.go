package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/ids"
)

// CreateProjectInput creates a project inside the caller's tenant.
type CreateProjectInput struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LeadID      string `json:"lead_id"`
}

// ProjectUpdate is a partial project update.
type ProjectUpdate struct {
	Key         *string `json:"key,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	LeadID      *string `json:"lead_id,omitempty"`
}

// resolveLead checks that a client-supplied lead reference is well-formed and
// resolves inside the caller's tenant. A cross-tenant id is rejected as a
// validation failure before anything is written.
func (s *Service) resolveLead(ctx context.Context, tenantID, leadID string) error {
	if !ids.Valid(leadID) {
		return invalidf("lead_id", "malformed identifier")
	}
	if _, err := s.store.Identity(ctx, tenantID, leadID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidf("lead_id", "identity not found in tenant")
		}
		return err
	}
	return nil
}

// CreateProject adds a project. Requires edit-issues.
func (s *Service) CreateProject(ctx context.Context, ac auth.AuthContext, input CreateProjectInput) (*Project, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapEditIssues); err != nil {
		return nil, err
	}
	key, err := NormalizeProjectKey(input.Key)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalidf("name", "project name is required")
	}
	leadID := strings.TrimSpace(input.LeadID)
	if leadID != "" {
		if err := s.resolveLead(ctx, ac.TenantID, leadID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	project := &Project{
		ID:          ids.New(),
		TenantID:    ac.TenantID,
		Key:         key,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		LeadID:      leadID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Project returns one project from the caller's tenant.
func (s *Service) Project(ctx context.Context, ac auth.AuthContext, id string) (*Project, error) {
	return s.store.Project(ctx, ac.TenantID, id)
}

// ListProjects returns the caller tenant's projects.
func (s *Service) ListProjects(ctx context.Context, ac auth.AuthContext) ([]*Project, error) {
	return s.store.ListProjects(ctx, ac.TenantID)
}

// UpdateProject applies a partial update. Requires edit-issues. Re-submitting
// a project's own key is a no-op; colliding with another project's key in the
// same tenant is a conflict decided by the store's unique index.
func (s *Service) UpdateProject(ctx context.Context, ac auth.AuthContext, id string, upd ProjectUpdate) (*Project, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapEditIssues); err != nil {
		return nil, err
	}
	project, err := s.store.Project(ctx, ac.TenantID, id)
	if err != nil {
		return nil, err
	}

	if upd.Key != nil {
		key, err := NormalizeProjectKey(*upd.Key)
		if err != nil {
			return nil, err
		}
		project.Key = key
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, invalidf("name", "project name is required")
		}
		project.Name = name
	}
	if upd.Description != nil {
		project.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.LeadID != nil {
		leadID := strings.TrimSpace(*upd.LeadID)
		if leadID != "" {
			if err := s.resolveLead(ctx, ac.TenantID, leadID); err != nil {
				return nil, err
			}
		}
		project.LeadID = leadID
	}

	project.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes a project. Requires edit-issues. A project with
// associated issues cannot be deleted until they are reassigned or removed.
func (s *Service) DeleteProject(ctx context.Context, ac auth.AuthContext, id string) error {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapEditIssues); err != nil {
		return err
	}
	count, err := s.store.CountProjectIssues(ctx, ac.TenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: project has %d issues", ErrConflict, count)
	}
	return s.store.DeleteProject(ctx, ac.TenantID, id)
}
