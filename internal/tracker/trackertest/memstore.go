// Package trackertest provides an in-memory tracker.Store for tests. It
// mirrors the contract the SQL store honors: tenant-conjoined lookups and
// index-enforced uniqueness for project keys and the two email domains.
package trackertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

type MemStore struct {
	mu         sync.Mutex
	tenants    map[string]*tracker.Tenant
	identities map[string]*tracker.Identity
	projects   map[string]*tracker.Project
	issues     map[string]*tracker.Issue
}

var _ tracker.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		tenants:    make(map[string]*tracker.Tenant),
		identities: make(map[string]*tracker.Identity),
		projects:   make(map[string]*tracker.Project),
		issues:     make(map[string]*tracker.Issue),
	}
}

func cloneIdentity(i *tracker.Identity) *tracker.Identity { c := *i; return &c }
func cloneProject(p *tracker.Project) *tracker.Project    { c := *p; return &c }
func cloneIssue(i *tracker.Issue) *tracker.Issue          { c := *i; return &c }

func (m *MemStore) CreateTenant(_ context.Context, t *tracker.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.tenants[t.ID] = &c
	return nil
}

func (m *MemStore) Tenant(_ context.Context, id string) (*tracker.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, tracker.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *MemStore) emailTaken(candidate *tracker.Identity) bool {
	for _, other := range m.identities {
		if other.ID == candidate.ID || other.Email != candidate.Email {
			continue
		}
		if candidate.Owner || other.Owner {
			return true
		}
		if other.TenantID == candidate.TenantID {
			return true
		}
	}
	return false
}

func (m *MemStore) CreateIdentity(_ context.Context, identity *tracker.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(identity) {
		return fmt.Errorf("%w: email already in use", tracker.ErrConflict)
	}
	m.identities[identity.ID] = cloneIdentity(identity)
	return nil
}

func (m *MemStore) Identity(_ context.Context, tenantID, id string) (*tracker.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[id]
	if !ok || i.TenantID != tenantID {
		return nil, tracker.ErrNotFound
	}
	return cloneIdentity(i), nil
}

func (m *MemStore) MemberByEmail(_ context.Context, tenantID, email string) (*tracker.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.identities {
		if i.TenantID == tenantID && i.Email == email && !i.Owner {
			return cloneIdentity(i), nil
		}
	}
	return nil, tracker.ErrNotFound
}

func (m *MemStore) OwnerByEmail(_ context.Context, email string) (*tracker.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.identities {
		if i.Owner && i.Email == email {
			return cloneIdentity(i), nil
		}
	}
	return nil, tracker.ErrNotFound
}

func (m *MemStore) ListIdentities(_ context.Context, tenantID string) ([]*tracker.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tracker.Identity
	for _, i := range m.identities {
		if i.TenantID == tenantID {
			out = append(out, cloneIdentity(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *MemStore) UpdateIdentity(_ context.Context, identity *tracker.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.identities[identity.ID]
	if !ok || existing.TenantID != identity.TenantID {
		return tracker.ErrNotFound
	}
	if m.emailTaken(identity) {
		return fmt.Errorf("%w: email already in use", tracker.ErrConflict)
	}
	m.identities[identity.ID] = cloneIdentity(identity)
	return nil
}

func (m *MemStore) DeleteIdentity(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[id]
	if !ok || i.TenantID != tenantID {
		return tracker.ErrNotFound
	}
	delete(m.identities, id)
	return nil
}

func (m *MemStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[id]
	if !ok {
		return tracker.ErrNotFound
	}
	i.LastLoginAt = &at
	return nil
}

func (m *MemStore) keyTaken(candidate *tracker.Project) bool {
	for _, other := range m.projects {
		if other.ID != candidate.ID && other.TenantID == candidate.TenantID && other.Key == candidate.Key {
			return true
		}
	}
	return false
}

func (m *MemStore) CreateProject(_ context.Context, p *tracker.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keyTaken(p) {
		return fmt.Errorf("%w: project key already in use", tracker.ErrConflict)
	}
	m.projects[p.ID] = cloneProject(p)
	return nil
}

func (m *MemStore) Project(_ context.Context, tenantID, id string) (*tracker.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.TenantID != tenantID {
		return nil, tracker.ErrNotFound
	}
	return cloneProject(p), nil
}

func (m *MemStore) ListProjects(_ context.Context, tenantID string) ([]*tracker.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tracker.Project
	for _, p := range m.projects {
		if p.TenantID == tenantID {
			out = append(out, cloneProject(p))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *MemStore) UpdateProject(_ context.Context, p *tracker.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.projects[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return tracker.ErrNotFound
	}
	if m.keyTaken(p) {
		return fmt.Errorf("%w: project key already in use", tracker.ErrConflict)
	}
	m.projects[p.ID] = cloneProject(p)
	return nil
}

func (m *MemStore) DeleteProject(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.TenantID != tenantID {
		return tracker.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MemStore) CountProjectIssues(_ context.Context, tenantID, projectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, i := range m.issues {
		if i.TenantID == tenantID && i.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CreateIssue(_ context.Context, issue *tracker.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[issue.ID] = cloneIssue(issue)
	return nil
}

func (m *MemStore) Issue(_ context.Context, tenantID, id string) (*tracker.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.issues[id]
	if !ok || i.TenantID != tenantID {
		return nil, tracker.ErrNotFound
	}
	return cloneIssue(i), nil
}

func (m *MemStore) ListIssues(_ context.Context, tenantID string, f tracker.IssueFilter) ([]*tracker.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tracker.Issue
	for _, i := range m.issues {
		if i.TenantID != tenantID {
			continue
		}
		if f.ProjectID != "" && i.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && i.Status != f.Status {
			continue
		}
		if f.AssigneeID != "" && i.AssigneeID != f.AssigneeID {
			continue
		}
		if f.InvolvedID != "" && i.ReporterID != f.InvolvedID && i.AssigneeID != f.InvolvedID {
			continue
		}
		out = append(out, cloneIssue(i))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *MemStore) UpdateIssue(_ context.Context, issue *tracker.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.issues[issue.ID]
	if !ok || existing.TenantID != issue.TenantID {
		return tracker.ErrNotFound
	}
	m.issues[issue.ID] = cloneIssue(issue)
	return nil
}

func (m *MemStore) DeleteIssue(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.issues[id]
	if !ok || i.TenantID != tenantID {
		return tracker.ErrNotFound
	}
	delete(m.issues, id)
	return nil
}

func (m *MemStore) IssueSummary(_ context.Context, tenantID string) (tracker.IssueSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := tracker.IssueSummary{
		ByStatus:   make(map[tracker.IssueStatus]int),
		ByPriority: make(map[tracker.IssuePriority]int),
		BySeverity: make(map[tracker.IssueSeverity]int),
	}
	for _, i := range m.issues {
		if i.TenantID != tenantID {
			continue
		}
		summary.Total++
		summary.ByStatus[i.Status]++
		summary.ByPriority[i.Priority]++
		summary.BySeverity[i.Severity]++
	}
	return summary, nil
}
