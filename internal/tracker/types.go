package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
)

const (
	IdentityStatusActive   = "active"
	IdentityStatusInactive = "inactive"
)

// Tenant is the isolation boundary (company) under which all identity,
// project, and issue data is scoped.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is an account inside exactly one tenant. An identity is never
// reassigned to a different tenant; it is recreated instead. Owner marks the
// company-owner account, whose email is unique globally rather than
// per-tenant.
type Identity struct {
	ID           string             `json:"id"`
	TenantID     string             `json:"tenant_id"`
	Email        string             `json:"email"`
	DisplayName  string             `json:"display_name"`
	PasswordHash string             `json:"-"`
	Role         auth.Role          `json:"role"`
	Owner        bool               `json:"owner"`
	Capabilities auth.CapabilitySet `json:"capabilities"`
	Status       string             `json:"status"`
	LastLoginAt  *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Active reports whether the account may authenticate and act.
func (i *Identity) Active() bool { return i.Status == IdentityStatusActive }

// Project groups issues under a tenant-unique uppercase key.
type Project struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LeadID      string    `json:"lead_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IssueStatus is the workflow position of an issue. Transitions between any
// two states are legal; entering a completed state stamps the completion
// timestamp as a side effect, it never gates the transition.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusClosed     IssueStatus = "closed"
)

// Completed reports whether the status is one of the two terminal-complete states.
func (s IssueStatus) Completed() bool {
	return s == StatusResolved || s == StatusClosed
}

// ParseIssueStatus validates a status string.
func ParseIssueStatus(raw string) (IssueStatus, error) {
	s := IssueStatus(strings.TrimSpace(strings.ToLower(raw)))
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return s, nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unsupported status %q", raw)}
}

// IssuePriority ranks urgency.
type IssuePriority string

const (
	PriorityLow      IssuePriority = "low"
	PriorityMedium   IssuePriority = "medium"
	PriorityHigh     IssuePriority = "high"
	PriorityCritical IssuePriority = "critical"
)

// ParseIssuePriority validates a priority string; empty defaults to medium.
func ParseIssuePriority(raw string) (IssuePriority, error) {
	p := IssuePriority(strings.TrimSpace(strings.ToLower(raw)))
	if p == "" {
		return PriorityMedium, nil
	}
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	}
	return "", &ValidationError{Field: "priority", Reason: fmt.Sprintf("unsupported priority %q", raw)}
}

// IssueSeverity ranks impact.
type IssueSeverity string

const (
	SeverityMinor    IssueSeverity = "minor"
	SeverityMajor    IssueSeverity = "major"
	SeverityCritical IssueSeverity = "critical"
)

// ParseIssueSeverity validates a severity string; empty defaults to minor.
func ParseIssueSeverity(raw string) (IssueSeverity, error) {
	s := IssueSeverity(strings.TrimSpace(strings.ToLower(raw)))
	if s == "" {
		return SeverityMinor, nil
	}
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return s, nil
	}
	return "", &ValidationError{Field: "severity", Reason: fmt.Sprintf("unsupported severity %q", raw)}
}

// Issue is a tracked work item. A project association is mandatory; the
// assignee is optional but must resolve within the issue's tenant.
type Issue struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	ProjectID   string        `json:"project_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      IssueStatus   `json:"status"`
	Priority    IssuePriority `json:"priority"`
	Severity    IssueSeverity `json:"severity"`
	ReporterID  string        `json:"reporter_id"`
	AssigneeID  string        `json:"assignee_id,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IssueSummary aggregates a tenant's issues for the reporting widgets.
type IssueSummary struct {
	Total      int                   `json:"total"`
	ByStatus   map[IssueStatus]int   `json:"by_status"`
	ByPriority map[IssuePriority]int `json:"by_priority"`
	BySeverity map[IssueSeverity]int `json:"by_severity"`
}
