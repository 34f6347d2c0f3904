package tracker

import (
	"strings"
	"time"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
)

// NormalizeEmail lowercases and trims an address. Both uniqueness domains
// (global owner, per-tenant member) compare the normalized form.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" || !strings.Contains(email, "@") {
		return "", invalidf("email", "valid email is required")
	}
	return email, nil
}

// NormalizeProjectKey uppercases and validates a project key. The (tenant,
// uppercased key) pair is the unit of uniqueness.
func NormalizeProjectKey(raw string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if len(key) < 2 || len(key) > 10 {
		return "", invalidf("key", "key must be 2-10 characters")
	}
	if key[0] < 'A' || key[0] > 'Z' {
		return "", invalidf("key", "key must start with a letter")
	}
	for _, r := range key {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", invalidf("key", "key may contain only letters and digits")
		}
	}
	return key, nil
}

// ApplyStatusChange moves an issue to the next status and keeps the
// completion timestamp consistent: entering {resolved, closed} stamps it if
// unset, leaving them clears it, and moving between the two terminal-complete
// states preserves the original stamp. No transition is ever rejected here.
func ApplyStatusChange(issue *Issue, next IssueStatus, now time.Time) {
	switch {
	case next.Completed() && issue.CompletedAt == nil:
		at := now.UTC()
		issue.CompletedAt = &at
	case !next.Completed():
		issue.CompletedAt = nil
	}
	issue.Status = next
}

// CheckSelfDelete rejects an identity deleting its own account. This rule
// holds regardless of role or capability outcome.
func CheckSelfDelete(actorID, targetID string) error {
	if actorID == targetID {
		return invalidf("id", "cannot delete own account")
	}
	return nil
}

// CheckSelfDemotion rejects an admin changing its own role away from admin,
// preventing accidental lockout. It holds regardless of capability outcome.
func CheckSelfDemotion(actorID string, target *Identity, nextRole auth.Role) error {
	if actorID == target.ID && target.Role.IsAdmin() && !nextRole.IsAdmin() {
		return invalidf("role", "cannot change own role away from admin")
	}
	return nil
}
