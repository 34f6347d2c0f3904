package tracker

import (
	"context"
	"time"
)

// IssueFilter narrows a tenant-scoped issue listing. Zero values mean "no
// constraint". InvolvedID restricts to issues reported by or assigned to the
// given identity; the service sets it when the caller lacks view-all-issues.
type IssueFilter struct {
	ProjectID  string
	Status     IssueStatus
	AssigneeID string
	InvolvedID string
}

// Store describes persistence operations required by the tracker. Every read
// and write that touches tenant-owned data takes the tenant id and conjoins
// it with any resource id; a cross-tenant id must read as ErrNotFound.
// Uniqueness invariants ((tenant, key), the two email domains) are enforced
// by the store's own constraints so that concurrent writers race on the
// index, not on an application-level check.
type Store interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	Tenant(ctx context.Context, id string) (*Tenant, error)

	CreateIdentity(ctx context.Context, identity *Identity) error
	Identity(ctx context.Context, tenantID, id string) (*Identity, error)
	MemberByEmail(ctx context.Context, tenantID, email string) (*Identity, error)
	OwnerByEmail(ctx context.Context, email string) (*Identity, error)
	ListIdentities(ctx context.Context, tenantID string) ([]*Identity, error)
	UpdateIdentity(ctx context.Context, identity *Identity) error
	DeleteIdentity(ctx context.Context, tenantID, id string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	CreateProject(ctx context.Context, p *Project) error
	Project(ctx context.Context, tenantID, id string) (*Project, error)
	ListProjects(ctx context.Context, tenantID string) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, tenantID, id string) error
	CountProjectIssues(ctx context.Context, tenantID, projectID string) (int64, error)

	CreateIssue(ctx context.Context, issue *Issue) error
	Issue(ctx context.Context, tenantID, id string) (*Issue, error)
	ListIssues(ctx context.Context, tenantID string, f IssueFilter) ([]*Issue, error)
	UpdateIssue(ctx context.Context, issue *Issue) error
	DeleteIssue(ctx context.Context, tenantID, id string) error
	IssueSummary(ctx context.Context, tenantID string) (IssueSummary, error)
}
