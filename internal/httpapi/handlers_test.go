package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker/trackertest"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	tokens, err := auth.NewTokens("test-secret-test-secret-test-1234")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	svc, err := tracker.NewService(trackertest.NewMemStore(), tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	api := New(svc, tokens, ReadyProbe{}, "test")

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) patch(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPatch, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// registerTenant provisions a company and returns its id plus an owner token.
func (c *apiClient) registerTenant(name, email string) (tenantID, ownerID, token string) {
	c.t.Helper()
	resp := c.post("/v1/auth/register", map[string]any{
		"tenant_name": name,
		"email":       email,
		"password":    "owner-pass",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](c.t, resp)
	tenantID = body["tenant"].(map[string]any)["id"].(string)
	ownerID = body["owner"].(map[string]any)["id"].(string)
	return tenantID, ownerID, c.login(email, "owner-pass", "")
}

func (c *apiClient) login(email, password, tenantID string) string {
	c.t.Helper()
	resp := c.post("/v1/auth/login", map[string]any{
		"email":     email,
		"password":  password,
		"tenant_id": tenantID,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status: %d", resp.StatusCode)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode login response: %v", err)
	}
	if payload.Token == "" {
		c.t.Fatalf("empty token issued")
	}
	return payload.Token
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAPIIssueLifecycleFlow(t *testing.T) {
	api := newTestAPI(t)
	_, _, token := api.registerTenant("Acme", "owner@acme.test")
	hdr := bearerHeader(token)

	// Create a project.
	resp := api.post("/v1/projects", map[string]any{
		"key":  "core",
		"name": "Core platform",
	}, hdr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project status: %d", resp.StatusCode)
	}
	project := decode[map[string]any](t, resp)
	projectID := project["id"].(string)
	if project["key"].(string) != "CORE" {
		t.Fatalf("key not normalized: %v", project["key"])
	}

	// File an issue.
	resp = api.post("/v1/issues", map[string]any{
		"project_id": projectID,
		"title":      "login broken",
		"priority":   "high",
	}, hdr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create issue status: %d", resp.StatusCode)
	}
	issue := decode[map[string]any](t, resp)
	issueID := issue["id"].(string)
	if issue["status"].(string) != "open" || issue["completed_at"] != nil {
		t.Fatalf("fresh issue state: %+v", issue)
	}

	// Resolve it; completion must be stamped.
	resp = api.patch("/v1/issues/"+issueID, map[string]any{"status": "resolved"}, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve status: %d", resp.StatusCode)
	}
	resolved := decode[map[string]any](t, resp)
	if resolved["completed_at"] == nil {
		t.Fatalf("resolved issue missing completed_at")
	}

	// Summary reflects it.
	resp = api.get("/v1/reports/summary", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status: %d", resp.StatusCode)
	}
	summary := decode[map[string]any](t, resp)
	if summary["total"].(float64) != 1 {
		t.Fatalf("summary total: %v", summary["total"])
	}

	// Export carries the full set.
	resp = api.get("/v1/export/issues", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status: %d", resp.StatusCode)
	}
	export := decode[map[string]any](t, resp)
	if len(export["items"].([]any)) != 1 {
		t.Fatalf("export items: %v", export["items"])
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/issues", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d, want 401", resp.StatusCode)
	}

	resp2 := api.get("/v1/issues", nil, bearerHeader("not-a-token"))
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d, want 401", resp2.StatusCode)
	}

	// Health endpoints stay public.
	resp3 := api.get("/healthz", nil, nil)
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("healthz: got %d, want 200", resp3.StatusCode)
	}
}

func TestAPIPermissionDeniedListsMissing(t *testing.T) {
	api := newTestAPI(t)
	tenantID, _, ownerToken := api.registerTenant("Acme", "owner@acme.test")

	resp := api.post("/v1/users", map[string]any{
		"email":    "viewer@acme.test",
		"password": "viewer-pass",
		"role":     "viewer",
	}, bearerHeader(ownerToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create member status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	viewerToken := api.login("viewer@acme.test", "viewer-pass", tenantID)
	resp = api.post("/v1/issues", map[string]any{
		"project_id": "irrelevant",
		"title":      "nope",
	}, bearerHeader(viewerToken))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("viewer create issue: got %d, want 403", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	missing, ok := body["missing"].([]any)
	if !ok || len(missing) != 1 || missing[0].(string) != "create-issues" {
		t.Fatalf("missing capabilities payload: %v", body["missing"])
	}
}

func TestAPITenantIsolationReadsAsNotFound(t *testing.T) {
	api := newTestAPI(t)
	_, _, tokenA := api.registerTenant("Acme", "owner@acme.test")
	_, _, tokenB := api.registerTenant("Globex", "owner@globex.test")

	resp := api.post("/v1/projects", map[string]any{"key": "ACME", "name": "Acme"}, bearerHeader(tokenA))
	project := decode[map[string]any](t, resp)
	projectID := project["id"].(string)

	resp = api.post("/v1/issues", map[string]any{
		"project_id": projectID,
		"title":      "private",
	}, bearerHeader(tokenA))
	issue := decode[map[string]any](t, resp)
	issueID := issue["id"].(string)

	resp = api.get("/v1/issues/"+issueID, nil, bearerHeader(tokenB))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant read: got %d, want 404", resp.StatusCode)
	}
}

func TestAPIConflictOnDuplicateProjectKey(t *testing.T) {
	api := newTestAPI(t)
	_, _, token := api.registerTenant("Acme", "owner@acme.test")
	hdr := bearerHeader(token)

	resp := api.post("/v1/projects", map[string]any{"key": "CORE", "name": "Core"}, hdr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/projects", map[string]any{"key": "core", "name": "Clone"}, hdr)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate key: got %d, want 409", resp.StatusCode)
	}
}

func TestAPIValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	_, _, token := api.registerTenant("Acme", "owner@acme.test")
	hdr := bearerHeader(token)

	resp := api.post("/v1/issues", map[string]any{"title": "no project"}, hdr)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing project: got %d, want 400", resp.StatusCode)
	}

	resp2 := api.post("/v1/projects", map[string]any{"key": "X", "name": "short key"}, hdr)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad key: got %d, want 400", resp2.StatusCode)
	}

	resp3 := api.post("/v1/issues", map[string]any{"bogus_field": true}, hdr)
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field: got %d, want 400", resp3.StatusCode)
	}
}

func TestAPISelfProtection(t *testing.T) {
	api := newTestAPI(t)
	_, ownerID, token := api.registerTenant("Acme", "owner@acme.test")
	hdr := bearerHeader(token)

	resp := api.do(http.MethodDelete, "/v1/users/"+ownerID, nil, hdr)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self delete: got %d, want 400", resp.StatusCode)
	}

	resp2 := api.patch("/v1/users/"+ownerID, map[string]any{"role": "viewer"}, hdr)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("self demotion: got %d, want 400", resp2.StatusCode)
	}
}

func TestAPIReplaceCapabilities(t *testing.T) {
	api := newTestAPI(t)
	tenantID, _, ownerToken := api.registerTenant("Acme", "owner@acme.test")

	resp := api.post("/v1/users", map[string]any{
		"email":    "dev@acme.test",
		"password": "dev-pass",
		"role":     "developer",
	}, bearerHeader(ownerToken))
	member := decode[map[string]any](t, resp)
	memberID := member["id"].(string)

	// Whole-set replace: unset flags in the body come back false.
	resp = api.do(http.MethodPut, "/v1/users/"+memberID+"/capabilities", map[string]any{
		"view_reports": true,
	}, bearerHeader(ownerToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replace capabilities: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	caps := updated["capabilities"].(map[string]any)
	if caps["view_reports"] != true || caps["create_issues"] != false {
		t.Fatalf("capability set not replaced wholesale: %v", caps)
	}

	// The developer can now read reports but no longer create issues.
	devToken := api.login("dev@acme.test", "dev-pass", tenantID)
	resp = api.get("/v1/reports/summary", nil, bearerHeader(devToken))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary after grant: %d", resp.StatusCode)
	}
	resp = api.post("/v1/issues", map[string]any{"project_id": "x", "title": "y"}, bearerHeader(devToken))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("create after revoke: got %d, want 403", resp.StatusCode)
	}
}
