package httpapi

import (
	"net/http"

	"github.com/Devindin/Issue-Tracker-sub001/internal/audit"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id"`
}

type registerResponse struct {
	Tenant *tracker.Tenant   `json:"tenant"`
	Owner  *tracker.Identity `json:"owner"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var input tracker.RegisterTenantInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tenant, owner, err := a.svc.RegisterTenant(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "tenant.registered", map[string]any{
		"tenant_id": tenant.ID,
		"owner_id":  owner.ID,
	})

	w.Header().Set("Location", "/v1/users/"+owner.ID)
	writeJSON(w, http.StatusCreated, registerResponse{Tenant: tenant, Owner: owner})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.svc.Login(r.Context(), req.Email, req.Password, req.TenantID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.session.issued", map[string]any{
		"identity_id": session.Identity.ID,
		"tenant_id":   session.Identity.TenantID,
		"expires_at":  session.ExpiresAt,
	})

	writeJSON(w, http.StatusOK, session)
}
