package httpapi

import (
	"net/http"
	"strings"

	"github.com/Devindin/Issue-Tracker-sub001/internal/audit"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

func (a *API) handleProjectsCollection(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		projects, err := a.svc.ListProjects(r.Context(), ac)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": projects})
	case http.MethodPost:
		var input tracker.CreateProjectInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		project, err := a.svc.CreateProject(r.Context(), ac, input)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.created", map[string]any{
			"project_id": project.ID,
			"key":        project.Key,
		})
		w.Header().Set("Location", "/v1/projects/"+project.ID)
		writeJSON(w, http.StatusCreated, project)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProjectResource(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/projects/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		project, err := a.svc.Project(r.Context(), ac, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodPatch:
		var upd tracker.ProjectUpdate
		if err := decodeJSON(w, r, &upd); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		project, err := a.svc.UpdateProject(r.Context(), ac, id, upd)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.updated", map[string]any{"project_id": project.ID})
		writeJSON(w, http.StatusOK, project)
	case http.MethodDelete:
		if err := a.svc.DeleteProject(r.Context(), ac, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.deleted", map[string]any{"project_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
