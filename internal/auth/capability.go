package auth

import (
	"fmt"
	"strings"
)

// Capability is one of the fixed, closed set of boolean permission flags an
// identity carries. The enumeration is deliberately exhaustive: every switch
// over it covers all eight members so a new flag cannot be added without the
// compiler pointing at every evaluation site.
type Capability string

const (
	CapCreateIssues  Capability = "create-issues"
	CapEditIssues    Capability = "edit-issues"
	CapDeleteIssues  Capability = "delete-issues"
	CapAssignIssues  Capability = "assign-issues"
	CapViewAllIssues Capability = "view-all-issues"
	CapManageUsers   Capability = "manage-users"
	CapViewReports   Capability = "view-reports"
	CapExportData    Capability = "export-data"
)

// Capabilities lists every member of the closed set, in schema order.
func Capabilities() []Capability {
	return []Capability{
		CapCreateIssues,
		CapEditIssues,
		CapDeleteIssues,
		CapAssignIssues,
		CapViewAllIssues,
		CapManageUsers,
		CapViewReports,
		CapExportData,
	}
}

// ParseCapability validates a capability name.
func ParseCapability(raw string) (Capability, error) {
	c := Capability(strings.TrimSpace(strings.ToLower(raw)))
	switch c {
	case CapCreateIssues, CapEditIssues, CapDeleteIssues, CapAssignIssues,
		CapViewAllIssues, CapManageUsers, CapViewReports, CapExportData:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown capability %q", ErrInvalidInput, raw)
}

// CapabilitySet is the durable eight-flag permission record owned by exactly
// one identity. Updates replace the whole set; there is no per-field merge.
type CapabilitySet struct {
	CreateIssues  bool `json:"create_issues"`
	EditIssues    bool `json:"edit_issues"`
	DeleteIssues  bool `json:"delete_issues"`
	AssignIssues  bool `json:"assign_issues"`
	ViewAllIssues bool `json:"view_all_issues"`
	ManageUsers   bool `json:"manage_users"`
	ViewReports   bool `json:"view_reports"`
	ExportData    bool `json:"export_data"`
}

// Has reports whether the flag for c is set.
func (s CapabilitySet) Has(c Capability) bool {
	switch c {
	case CapCreateIssues:
		return s.CreateIssues
	case CapEditIssues:
		return s.EditIssues
	case CapDeleteIssues:
		return s.DeleteIssues
	case CapAssignIssues:
		return s.AssignIssues
	case CapViewAllIssues:
		return s.ViewAllIssues
	case CapManageUsers:
		return s.ManageUsers
	case CapViewReports:
		return s.ViewReports
	case CapExportData:
		return s.ExportData
	default:
		return false
	}
}

// DefaultCapabilities returns the creation-time seed for a role. The table is
// consulted only when an identity is created; afterwards the stored set is the
// single source of truth (plus the admin role bypass).
func DefaultCapabilities(role Role) CapabilitySet {
	switch role {
	case RoleAdmin:
		return CapabilitySet{
			CreateIssues:  true,
			EditIssues:    true,
			DeleteIssues:  true,
			AssignIssues:  true,
			ViewAllIssues: true,
			ManageUsers:   true,
			ViewReports:   true,
			ExportData:    true,
		}
	case RoleManager:
		return CapabilitySet{
			CreateIssues:  true,
			EditIssues:    true,
			DeleteIssues:  true,
			AssignIssues:  true,
			ViewAllIssues: true,
			ViewReports:   true,
			ExportData:    true,
		}
	case RoleDeveloper:
		return CapabilitySet{
			CreateIssues:  true,
			EditIssues:    true,
			ViewAllIssues: true,
		}
	case RoleQA:
		return CapabilitySet{
			CreateIssues:  true,
			EditIssues:    true,
			ViewAllIssues: true,
			ViewReports:   true,
		}
	case RoleViewer:
		return CapabilitySet{
			ViewAllIssues: true,
			ViewReports:   true,
		}
	default:
		return CapabilitySet{}
	}
}
