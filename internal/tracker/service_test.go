package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker/trackertest"
)

type fixture struct {
	svc   *tracker.Service
	store *trackertest.MemStore
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: trackertest.NewMemStore(),
		now:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	tokens, err := auth.NewTokens("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	svc, err := tracker.NewService(f.store, tokens, tracker.WithClock(func() time.Time { return f.now }))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func authCtx(i *tracker.Identity) auth.AuthContext {
	return auth.AuthContext{IdentityID: i.ID, TenantID: i.TenantID, Role: i.Role}
}

func (f *fixture) registerTenant(t *testing.T, name, email string) (*tracker.Tenant, *tracker.Identity) {
	t.Helper()
	tenant, owner, err := f.svc.RegisterTenant(context.Background(), tracker.RegisterTenantInput{
		TenantName:  name,
		Email:       email,
		DisplayName: "Owner",
		Password:    "owner-pass",
	})
	if err != nil {
		t.Fatalf("RegisterTenant(%s): %v", name, err)
	}
	return tenant, owner
}

func (f *fixture) createMember(t *testing.T, owner *tracker.Identity, email, role string, caps *auth.CapabilitySet) *tracker.Identity {
	t.Helper()
	member, err := f.svc.CreateIdentity(context.Background(), authCtx(owner), tracker.CreateIdentityInput{
		Email:        email,
		DisplayName:  "Member",
		Password:     "member-pass",
		Role:         role,
		Capabilities: caps,
	})
	if err != nil {
		t.Fatalf("CreateIdentity(%s): %v", email, err)
	}
	return member
}

func (f *fixture) createProject(t *testing.T, actor *tracker.Identity, key string) *tracker.Project {
	t.Helper()
	project, err := f.svc.CreateProject(context.Background(), authCtx(actor), tracker.CreateProjectInput{
		Key:  key,
		Name: "Project " + key,
	})
	if err != nil {
		t.Fatalf("CreateProject(%s): %v", key, err)
	}
	return project
}

func (f *fixture) createIssue(t *testing.T, actor *tracker.Identity, projectID, title string) *tracker.Issue {
	t.Helper()
	issue, err := f.svc.CreateIssue(context.Background(), authCtx(actor), tracker.CreateIssueInput{
		ProjectID: projectID,
		Title:     title,
	})
	if err != nil {
		t.Fatalf("CreateIssue(%s): %v", title, err)
	}
	return issue
}

func TestLoginOwnerAndMember(t *testing.T) {
	f := newFixture(t)
	tenant, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	f.createMember(t, owner, "dev@acme.test", "developer", nil)

	session, err := f.svc.Login(context.Background(), "Owner@Acme.Test", "owner-pass", "")
	if err != nil {
		t.Fatalf("owner login: %v", err)
	}
	if session.Token == "" {
		t.Fatal("owner login returned empty token")
	}
	if session.Identity.LastLoginAt == nil || !session.Identity.LastLoginAt.Equal(f.now) {
		t.Fatalf("last login not stamped: %v", session.Identity.LastLoginAt)
	}

	if _, err := f.svc.Login(context.Background(), "dev@acme.test", "member-pass", tenant.ID); err != nil {
		t.Fatalf("member login with tenant: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "dev@acme.test", "member-pass", ""); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("member login without tenant: got %v, want invalid credentials", err)
	}
	if _, err := f.svc.Login(context.Background(), "owner@acme.test", "wrong", ""); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want invalid credentials", err)
	}
	if _, err := f.svc.Login(context.Background(), "nobody@acme.test", "owner-pass", tenant.ID); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want invalid credentials", err)
	}
}

func TestLoginInactiveIdentity(t *testing.T) {
	f := newFixture(t)
	tenant, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	member := f.createMember(t, owner, "dev@acme.test", "developer", nil)

	inactive := tracker.IdentityStatusInactive
	if _, err := f.svc.UpdateIdentity(context.Background(), authCtx(owner), member.ID, tracker.IdentityUpdate{Status: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "dev@acme.test", "member-pass", tenant.ID); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("inactive login: got %v, want invalid credentials", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	_, ownerA := f.registerTenant(t, "Acme", "owner@acme.test")
	_, ownerB := f.registerTenant(t, "Globex", "owner@globex.test")

	projectA := f.createProject(t, ownerA, "ACME")
	issueA := f.createIssue(t, ownerA, projectA.ID, "only visible in A")

	if _, err := f.svc.Issue(context.Background(), authCtx(ownerB), issueA.ID); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("cross-tenant issue read: got %v, want not found", err)
	}
	if _, err := f.svc.Project(context.Background(), authCtx(ownerB), projectA.ID); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("cross-tenant project read: got %v, want not found", err)
	}
	title := "hijack"
	if _, err := f.svc.UpdateIssue(context.Background(), authCtx(ownerB), issueA.ID, tracker.IssueUpdate{Title: &title}); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("cross-tenant update: got %v, want not found", err)
	}
	if err := f.svc.DeleteIssue(context.Background(), authCtx(ownerB), issueA.ID); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("cross-tenant delete: got %v, want not found", err)
	}

	issues, err := f.svc.ListIssues(context.Background(), authCtx(ownerB), tracker.IssueFilter{})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("tenant B sees %d foreign issues", len(issues))
	}
}

func TestAdminBypassIgnoresStoredFlags(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	admin := f.createMember(t, owner, "admin@acme.test", "admin", &auth.CapabilitySet{})

	project := f.createProject(t, owner, "ACME")
	if _, err := f.svc.CreateIssue(context.Background(), authCtx(admin), tracker.CreateIssueInput{
		ProjectID: project.ID,
		Title:     "admin bypass",
	}); err != nil {
		t.Fatalf("admin with empty capability set was denied: %v", err)
	}
	if _, err := f.svc.ListIdentities(context.Background(), authCtx(admin)); err != nil {
		t.Fatalf("admin list identities: %v", err)
	}
}

func TestAuthorizeLoadsCapabilitiesFresh(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	member := f.createMember(t, owner, "viewer@acme.test", "viewer", nil)
	project := f.createProject(t, owner, "ACME")

	ac := authCtx(member)
	if _, err := f.svc.CreateIssue(context.Background(), ac, tracker.CreateIssueInput{ProjectID: project.ID, Title: "nope"}); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("viewer create issue: got %v, want permission denied", err)
	}

	granted := auth.DefaultCapabilities(auth.RoleViewer)
	granted.CreateIssues = true
	if _, err := f.svc.ReplaceCapabilities(context.Background(), authCtx(owner), member.ID, granted); err != nil {
		t.Fatalf("ReplaceCapabilities: %v", err)
	}

	// Same auth context, new stored flags: the grant takes effect immediately.
	if _, err := f.svc.CreateIssue(context.Background(), ac, tracker.CreateIssueInput{ProjectID: project.ID, Title: "now allowed"}); err != nil {
		t.Fatalf("create after grant: %v", err)
	}
}

func TestAuthorizeModes(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	member := f.createMember(t, owner, "qa@acme.test", "qa", nil)
	ac := authCtx(member)

	if err := f.svc.Authorize(context.Background(), ac, auth.ModeAny, auth.CapViewReports, auth.CapExportData); err != nil {
		t.Fatalf("ANY with one held capability: %v", err)
	}
	err := f.svc.Authorize(context.Background(), ac, auth.ModeAll, auth.CapViewReports, auth.CapExportData)
	if !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("ALL with one missing: got %v, want permission denied", err)
	}
	var denied *auth.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("denial is not a DeniedError: %v", err)
	}
	if len(denied.Missing) != 1 || denied.Missing[0] != auth.CapExportData {
		t.Fatalf("missing = %v, want [export-data]", denied.Missing)
	}
}

func TestAuthorizeDeniesUnknownAndInactive(t *testing.T) {
	f := newFixture(t)
	tenant, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	member := f.createMember(t, owner, "dev@acme.test", "developer", nil)

	ghost := auth.AuthContext{IdentityID: member.ID, TenantID: "01HTGHOSTTENANT0000000000", Role: member.Role}
	if err := f.svc.Authorize(context.Background(), ghost, auth.ModeAll, auth.CapViewAllIssues); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("unknown identity: got %v, want permission denied", err)
	}

	inactive := tracker.IdentityStatusInactive
	if _, err := f.svc.UpdateIdentity(context.Background(), authCtx(owner), member.ID, tracker.IdentityUpdate{Status: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	ac := auth.AuthContext{IdentityID: member.ID, TenantID: tenant.ID, Role: member.Role}
	if err := f.svc.Authorize(context.Background(), ac, auth.ModeAll, auth.CapViewAllIssues); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("inactive identity: got %v, want permission denied", err)
	}
}

func TestEmailUniquenessDomains(t *testing.T) {
	f := newFixture(t)
	_, ownerA := f.registerTenant(t, "Acme", "owner@acme.test")
	_, ownerB := f.registerTenant(t, "Globex", "owner@globex.test")

	f.createMember(t, ownerA, "shared@corp.test", "developer", nil)

	// Same member address inside the same tenant collides.
	_, err := f.svc.CreateIdentity(context.Background(), authCtx(ownerA), tracker.CreateIdentityInput{
		Email:    "shared@corp.test",
		Password: "pw",
		Role:     "qa",
	})
	if !errors.Is(err, tracker.ErrConflict) {
		t.Fatalf("duplicate member email in tenant: got %v, want conflict", err)
	}

	// The same address is free in another tenant.
	if _, err := f.svc.CreateIdentity(context.Background(), authCtx(ownerB), tracker.CreateIdentityInput{
		Email:    "shared@corp.test",
		Password: "pw",
		Role:     "qa",
	}); err != nil {
		t.Fatalf("same member email in other tenant: %v", err)
	}

	// Owner addresses are globally unique.
	if _, _, err := f.svc.RegisterTenant(context.Background(), tracker.RegisterTenantInput{
		TenantName: "Initech",
		Email:      "owner@acme.test",
		Password:   "pw",
	}); !errors.Is(err, tracker.ErrConflict) {
		t.Fatalf("duplicate owner email: got %v, want conflict", err)
	}
}

func TestSelfProtection(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	admin := f.createMember(t, owner, "admin@acme.test", "admin", nil)

	if err := f.svc.DeleteIdentity(context.Background(), authCtx(owner), owner.ID); !errors.Is(err, tracker.ErrInvalidInput) {
		t.Fatalf("self delete: got %v, want invalid input", err)
	}
	role := "developer"
	if _, err := f.svc.UpdateIdentity(context.Background(), authCtx(owner), owner.ID, tracker.IdentityUpdate{Role: &role}); !errors.Is(err, tracker.ErrInvalidInput) {
		t.Fatalf("self demotion: got %v, want invalid input", err)
	}

	// Demoting a different admin is allowed.
	updated, err := f.svc.UpdateIdentity(context.Background(), authCtx(owner), admin.ID, tracker.IdentityUpdate{Role: &role})
	if err != nil {
		t.Fatalf("demote other admin: %v", err)
	}
	if updated.Role != auth.RoleDeveloper {
		t.Fatalf("role = %s, want developer", updated.Role)
	}
}

func TestCompletionStamping(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	project := f.createProject(t, owner, "ACME")
	issue := f.createIssue(t, owner, project.ID, "lifecycle")
	ac := authCtx(owner)

	if issue.CompletedAt != nil {
		t.Fatalf("new open issue has completed_at %v", issue.CompletedAt)
	}

	f.advance(time.Hour)
	resolved := "resolved"
	issue, err := f.svc.UpdateIssue(context.Background(), ac, issue.ID, tracker.IssueUpdate{Status: &resolved})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if issue.CompletedAt == nil || !issue.CompletedAt.Equal(f.now) {
		t.Fatalf("resolved stamp = %v, want %v", issue.CompletedAt, f.now)
	}
	resolvedAt := *issue.CompletedAt

	// Resolved to closed keeps the original stamp.
	f.advance(time.Hour)
	closed := "closed"
	issue, err = f.svc.UpdateIssue(context.Background(), ac, issue.ID, tracker.IssueUpdate{Status: &closed})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if issue.CompletedAt == nil || !issue.CompletedAt.Equal(resolvedAt) {
		t.Fatalf("closed stamp = %v, want preserved %v", issue.CompletedAt, resolvedAt)
	}

	// Reopening clears it.
	open := "open"
	issue, err = f.svc.UpdateIssue(context.Background(), ac, issue.ID, tracker.IssueUpdate{Status: &open})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if issue.CompletedAt != nil {
		t.Fatalf("reopened issue kept completed_at %v", issue.CompletedAt)
	}
}

func TestIssueVisibilityWithoutViewAll(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	restricted := auth.CapabilitySet{CreateIssues: true, EditIssues: true}
	alice := f.createMember(t, owner, "alice@acme.test", "developer", &restricted)
	bob := f.createMember(t, owner, "bob@acme.test", "developer", &restricted)
	project := f.createProject(t, owner, "ACME")

	aliceIssue := f.createIssue(t, alice, project.ID, "alice's bug")
	f.createIssue(t, bob, project.ID, "bob's bug")

	// Bob cannot see Alice's issue at all; it reads as not found.
	if _, err := f.svc.Issue(context.Background(), authCtx(bob), aliceIssue.ID); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("foreign issue read: got %v, want not found", err)
	}
	if _, err := f.svc.Issue(context.Background(), authCtx(alice), aliceIssue.ID); err != nil {
		t.Fatalf("reporter reads own issue: %v", err)
	}

	issues, err := f.svc.ListIssues(context.Background(), authCtx(bob), tracker.IssueFilter{})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].Title != "bob's bug" {
		t.Fatalf("restricted list = %d issues, want only bob's", len(issues))
	}

	// An assignee sees the issue without view-all-issues.
	assignee := bob.ID
	if _, err := f.svc.UpdateIssue(context.Background(), authCtx(owner), aliceIssue.ID, tracker.IssueUpdate{AssigneeID: &assignee}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.Issue(context.Background(), authCtx(bob), aliceIssue.ID); err != nil {
		t.Fatalf("assignee reads issue: %v", err)
	}
}

func TestCrossTenantReferencesRejected(t *testing.T) {
	f := newFixture(t)
	_, ownerA := f.registerTenant(t, "Acme", "owner@acme.test")
	_, ownerB := f.registerTenant(t, "Globex", "owner@globex.test")
	projectA := f.createProject(t, ownerA, "ACME")
	issueA := f.createIssue(t, ownerA, projectA.ID, "local bug")

	// Assignee id from another tenant is a validation failure, not a grant.
	foreign := ownerB.ID
	_, err := f.svc.UpdateIssue(context.Background(), authCtx(ownerA), issueA.ID, tracker.IssueUpdate{AssigneeID: &foreign})
	if !errors.Is(err, tracker.ErrInvalidInput) {
		t.Fatalf("cross-tenant assignee: got %v, want invalid input", err)
	}
	var verr *tracker.ValidationError
	if !errors.As(err, &verr) || verr.Field != "assignee_id" {
		t.Fatalf("validation error = %v, want assignee_id field", err)
	}

	if _, err := f.svc.CreateIssue(context.Background(), authCtx(ownerA), tracker.CreateIssueInput{
		ProjectID: "not-a-ulid",
		Title:     "bad ref",
	}); !errors.Is(err, tracker.ErrInvalidInput) {
		t.Fatalf("malformed project id: got %v, want invalid input", err)
	}
}

func TestAssigneeChangeRequiresAssignCapability(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	editor := f.createMember(t, owner, "editor@acme.test", "developer", &auth.CapabilitySet{
		EditIssues:    true,
		ViewAllIssues: true,
	})
	project := f.createProject(t, owner, "ACME")
	issue := f.createIssue(t, owner, project.ID, "needs triage")

	// Editing non-assignment fields works with edit-issues alone.
	title := "triaged"
	if _, err := f.svc.UpdateIssue(context.Background(), authCtx(editor), issue.ID, tracker.IssueUpdate{Title: &title}); err != nil {
		t.Fatalf("title update: %v", err)
	}

	assignee := editor.ID
	if _, err := f.svc.UpdateIssue(context.Background(), authCtx(editor), issue.ID, tracker.IssueUpdate{AssigneeID: &assignee}); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("assignee change without assign-issues: got %v, want permission denied", err)
	}
}

func TestProjectKeyUniqueness(t *testing.T) {
	f := newFixture(t)
	_, ownerA := f.registerTenant(t, "Acme", "owner@acme.test")
	_, ownerB := f.registerTenant(t, "Globex", "owner@globex.test")

	project := f.createProject(t, ownerA, "CORE")
	if _, err := f.svc.CreateProject(context.Background(), authCtx(ownerA), tracker.CreateProjectInput{
		Key:  "core",
		Name: "Lowercase clone",
	}); !errors.Is(err, tracker.ErrConflict) {
		t.Fatalf("duplicate key in tenant: got %v, want conflict", err)
	}
	// Same key in another tenant is fine.
	f.createProject(t, ownerB, "CORE")

	// Re-submitting a project's own key is a no-op.
	key := "CORE"
	if _, err := f.svc.UpdateProject(context.Background(), authCtx(ownerA), project.ID, tracker.ProjectUpdate{Key: &key}); err != nil {
		t.Fatalf("resubmit own key: %v", err)
	}
}

func TestDeleteProjectWithIssues(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	project := f.createProject(t, owner, "ACME")
	issue := f.createIssue(t, owner, project.ID, "blocker")

	if err := f.svc.DeleteProject(context.Background(), authCtx(owner), project.ID); !errors.Is(err, tracker.ErrConflict) {
		t.Fatalf("delete project with issues: got %v, want conflict", err)
	}
	if err := f.svc.DeleteIssue(context.Background(), authCtx(owner), issue.ID); err != nil {
		t.Fatalf("delete issue: %v", err)
	}
	if err := f.svc.DeleteProject(context.Background(), authCtx(owner), project.ID); err != nil {
		t.Fatalf("delete empty project: %v", err)
	}
}

func TestIssueSummaryAndExport(t *testing.T) {
	f := newFixture(t)
	_, owner := f.registerTenant(t, "Acme", "owner@acme.test")
	dev := f.createMember(t, owner, "dev@acme.test", "developer", nil)
	project := f.createProject(t, owner, "ACME")

	f.createIssue(t, owner, project.ID, "one")
	f.createIssue(t, owner, project.ID, "two")
	resolved := "resolved"
	issue := f.createIssue(t, owner, project.ID, "three")
	if _, err := f.svc.UpdateIssue(context.Background(), authCtx(owner), issue.ID, tracker.IssueUpdate{Status: &resolved}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	summary, err := f.svc.IssueSummary(context.Background(), authCtx(owner))
	if err != nil {
		t.Fatalf("IssueSummary: %v", err)
	}
	if summary.Total != 3 || summary.ByStatus[tracker.StatusOpen] != 2 || summary.ByStatus[tracker.StatusResolved] != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	// Developers hold neither view-reports nor export-data by default.
	if _, err := f.svc.IssueSummary(context.Background(), authCtx(dev)); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("developer summary: got %v, want permission denied", err)
	}
	if _, err := f.svc.ExportIssues(context.Background(), authCtx(dev)); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("developer export: got %v, want permission denied", err)
	}
	exported, err := f.svc.ExportIssues(context.Background(), authCtx(owner))
	if err != nil {
		t.Fatalf("ExportIssues: %v", err)
	}
	if len(exported) != 3 {
		t.Fatalf("exported %d issues, want 3", len(exported))
	}
}
