package httpapi

import (
	"net/http"
	"strings"

	"github.com/Devindin/Issue-Tracker-sub001/internal/audit"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

func issueFilterFromQuery(r *http.Request) tracker.IssueFilter {
	q := r.URL.Query()
	return tracker.IssueFilter{
		ProjectID:  strings.TrimSpace(q.Get("project_id")),
		Status:     tracker.IssueStatus(strings.TrimSpace(q.Get("status"))),
		AssigneeID: strings.TrimSpace(q.Get("assignee_id")),
	}
}

func (a *API) handleIssuesCollection(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		issues, err := a.svc.ListIssues(r.Context(), ac, issueFilterFromQuery(r))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": issues})
	case http.MethodPost:
		var input tracker.CreateIssueInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		issue, err := a.svc.CreateIssue(r.Context(), ac, input)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "issue.created", map[string]any{
			"issue_id":   issue.ID,
			"project_id": issue.ProjectID,
		})
		w.Header().Set("Location", "/v1/issues/"+issue.ID)
		writeJSON(w, http.StatusCreated, issue)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleIssueResource(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/issues/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		issue, err := a.svc.Issue(r.Context(), ac, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, issue)
	case http.MethodPatch:
		var upd tracker.IssueUpdate
		if err := decodeJSON(w, r, &upd); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		issue, err := a.svc.UpdateIssue(r.Context(), ac, id, upd)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "issue.updated", map[string]any{
			"issue_id": issue.ID,
			"status":   issue.Status,
		})
		writeJSON(w, http.StatusOK, issue)
	case http.MethodDelete:
		if err := a.svc.DeleteIssue(r.Context(), ac, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "issue.deleted", map[string]any{"issue_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	summary, err := a.svc.IssueSummary(r.Context(), ac)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleExportIssues(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	issues, err := a.svc.ExportIssues(r.Context(), ac)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "issues.exported", map[string]any{"count": len(issues)})
	writeJSON(w, http.StatusOK, map[string]any{"items": issues})
}
