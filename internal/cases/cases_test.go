package cases

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

const upstreamCookie = "token=abc"

type fakeAPI struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	bodies   map[string][]byte
	srv      *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{handlers: map[string]http.HandlerFunc{}, hits: map[string]int{}, bodies: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.hits[key]++
		f.bodies[key] = body
		h := f.handlers[key]
		f.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) on(key string, h http.HandlerFunc) {
	f.mu.Lock()
	f.handlers[key] = h
	f.mu.Unlock()
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeAPI) body(t *testing.T, key string) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(f.bodies[key], &out))
	return out
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

const casesJSON = `[
 {"case_id":42,"client_id":1,"client_fullname":"Juan Cruz","cc_id":1,"cc_name":"Civil","ct_id":10,"ct_name":"Ejectment",
  "user_id":null,"case_status":"Pending","case_balance":150,"case_fee":150,
  "case_tag_list":"[{\"ctag_id\":3,\"ctag_name\":\"Filing\"},{\"ctag_id\":4,\"ctag_name\":\"Hearing\"}]",
  "case_tag":{"ctag_id":3,"ctag_name":"Filing"},"case_date_created":"2024-03-05"},
 {"case_id":7,"client_fullname":"Maria Lopez","cc_name":"Criminal","ct_name":"Theft","user_id":7,
  "case_status":"Processing","case_balance":0,"case_tag_list":null,"case_tag":null,
  "user_fname":"Leo","user_lname":"Tan"}
]`

type fixture struct {
	app    *fiber.App
	api    *fakeAPI
	cookie string
}

func setup(t *testing.T, user models.User) *fixture {
	t.Helper()
	api := newFakeAPI(t)
	svc := auth.NewService(backend.New(api.srv.URL, time.Second, nil), "secret", "console_session", false, nil)
	h := NewHandler(svc, nil, Options{IdleTTL: time.Minute})

	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler})
	g := app.Group("/cases", svc.RequireSession(), auth.RequireCapability(func(c auth.Capabilities) bool { return c.ManageCases }))
	g.Get("/", h.List)
	g.Get("/new", h.NewCase)
	g.Post("/", h.CreateCase)
	g.Get("/:id/edit", h.OpenEdit)
	g.Patch("/:id/edit", h.SetEditField)
	g.Post("/:id/edit", h.SubmitEdit)
	g.Delete("/:id/edit", h.CloseEdit)

	tok, err := svc.IssueToken(auth.Snapshot{SessionID: "sess-1", User: user, IssuedAt: time.Now()}, upstreamCookie)
	require.NoError(t, err)
	return &fixture{app: app, api: api, cookie: upstreamCookie + "; console_session=" + tok}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Cookie", f.cookie)
	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	out := map[string]any{}
	b, _ := io.ReadAll(resp.Body)
	if len(b) > 0 {
		_ = json.Unmarshal(b, &out)
	}
	return resp, out
}

func rowIDs(v map[string]any) []float64 {
	out := []float64{}
	rows, _ := v["rows"].([]any)
	for _, r := range rows {
		out = append(out, r.(map[string]any)["case_id"].(float64))
	}
	return out
}

/* ============================================================================
   Tests
   ============================================================================ */

func Test_List_AdminLoadsOnceAndDefaultsToPending(t *testing.T) {
	f := setup(t, admin)
	f.api.on("GET /api/cases", reply(200, casesJSON))

	resp, v := f.do(t, "GET", "/cases", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Pending", v["status"])
	assert.Equal(t, []float64{42}, rowIDs(v))

	_, v = f.do(t, "GET", "/cases?status=", "")
	assert.Equal(t, []float64{42, 7}, rowIDs(v))
	assert.Equal(t, 1, f.api.count("GET /api/cases"), "served from the local copy")

	f.do(t, "GET", "/cases?refresh=true", "")
	assert.Equal(t, 2, f.api.count("GET /api/cases"))
}

func Test_List_LawyerUsesOwnEndpoint(t *testing.T) {
	f := setup(t, lawyer)
	f.api.on("GET /api/cases/user/7", reply(200, casesJSON))

	_, v := f.do(t, "GET", "/cases?status=&search=leo", "")
	assert.Equal(t, []float64{7}, rowIDs(v))
	assert.Equal(t, 0, f.api.count("GET /api/cases"))
}

func Test_List_LoadFailureBanner(t *testing.T) {
	f := setup(t, admin)
	f.api.on("GET /api/cases", reply(500, ``))

	resp, v := f.do(t, "GET", "/cases", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Failed to fetch cases. You might want to check your server connection.", v["error"])
	assert.Empty(t, v["rows"])
}

func Test_List_ForbiddenForOtherRoles(t *testing.T) {
	for _, role := range []models.Role{models.RoleParalegal, models.RoleStaff, models.RoleSuperLawyer} {
		f := setup(t, models.User{ID: 3, Role: role})
		resp, v := f.do(t, "GET", "/cases", "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, role)
		assert.Equal(t, "FORBIDDEN", v["code"])
		assert.Equal(t, 0, f.api.count("GET /api/cases"))
	}
}

func Test_CreateCase_PayloadAndPrepend(t *testing.T) {
	f := setup(t, lawyer)
	f.api.on("GET /api/cases/user/7", reply(200, casesJSON))
	f.api.on("POST /api/cases", reply(201,
		`{"case_id":99,"client_fullname":"New Client","case_status":"Pending","case_balance":"2500.50","user_id":7}`))
	f.do(t, "GET", "/cases", "")

	resp, v := f.do(t, "POST", "/cases", `{
		"client_id":"1","cc_id":"1","ct_id":"10","user_id":"5","case_fee":"2500.50",
		"case_remarks":"<i>new</i>","case_tags":[{"ctag_id":3,"ctag_name":"Filing"},{"ctag_id":4,"ctag_name":"Hearing"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "New case added successfully!", v["notice"].(map[string]any)["message"])
	assert.Equal(t, "₱2,500.50", v["row"].(map[string]any)["balance"])

	sent := f.api.body(t, "POST /api/cases")
	assert.Equal(t, float64(1), sent["client_id"])
	assert.Equal(t, float64(7), sent["user_id"], "non-admins are always their own lawyer")
	assert.Nil(t, sent["assigned_by"])
	assert.Equal(t, 2500.5, sent["case_fee"])
	assert.Equal(t, "new", sent["case_remarks"])
	assert.Equal(t, `[{"ctag_id":3,"ctag_name":"Filing"},{"ctag_id":4,"ctag_name":"Hearing"}]`, sent["case_tag_list"])
	assert.Equal(t, `{"ctag_id":3,"ctag_name":"Filing"}`, sent["case_tag"])

	_, v = f.do(t, "GET", "/cases?status=", "")
	assert.Equal(t, []float64{99, 42, 7}, rowIDs(v), "new case is prepended")
}

func Test_CreateCase_AdminAssignsAndNullsEmptyIDs(t *testing.T) {
	f := setup(t, admin)
	f.api.on("POST /api/cases", reply(201, `{"case_id":5}`))

	resp, _ := f.do(t, "POST", "/cases", `{"client_id":"1","cc_id":"1","ct_id":"10","case_tags":[{"ctag_id":3,"ctag_name":"Filing"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sent := f.api.body(t, "POST /api/cases")
	assert.Nil(t, sent["user_id"])
	assert.Equal(t, float64(1), sent["assigned_by"])
	assert.Nil(t, sent["case_fee"])
}

func Test_CreateCase_WithoutTags(t *testing.T) {
	f := setup(t, lawyer)
	f.api.on("POST /api/cases", reply(201, `{"case_id":6}`))

	resp, _ := f.do(t, "POST", "/cases", `{"client_id":"1","cc_id":"1","ct_id":"10"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sent := f.api.body(t, "POST /api/cases")
	assert.Equal(t, "[]", sent["case_tag_list"])
	assert.NotContains(t, sent, "case_tag")
}

func Test_CreateCase_ValidationSkipsNetwork(t *testing.T) {
	f := setup(t, admin)
	resp, v := f.do(t, "POST", "/cases", `{"client_id":"1","case_fee":"abc","case_tags":[]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errs := v["errors"].(map[string]any)
	assert.Contains(t, errs, "cc_id")
	assert.Contains(t, errs, "ct_id")
	assert.Contains(t, errs, "case_fee")
	assert.NotContains(t, errs, "case_tags")
	assert.Equal(t, 0, f.api.count("POST /api/cases"))
}

func Test_CreateCase_UpstreamFailure(t *testing.T) {
	f := setup(t, admin)
	f.api.on("POST /api/cases", reply(500, `{"error":"db down"}`))
	resp, v := f.do(t, "POST", "/cases", `{"client_id":"1","cc_id":"1","ct_id":"10","case_tags":[{"ctag_id":3}]}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Failed to add case. Please try again.", v["error"])
	assert.Equal(t, "error", v["notice"].(map[string]any)["kind"])
}

func Test_EditFlow_TagGuardThenUpdate(t *testing.T) {
	f := setup(t, admin)
	f.api.on("GET /api/cases", reply(200, casesJSON))
	f.api.on("PUT /api/cases/42", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	})
	f.do(t, "GET", "/cases", "")

	resp, v := f.do(t, "GET", "/cases/42/edit", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "populated", v["state"])
	assert.Equal(t, "3", v["form"].(map[string]any)["ctag_id"])

	resp, _ = f.do(t, "PATCH", "/cases/42/edit", `{"name":"ctag_id","value":"4"}`)
	require.Equal(t, 200, resp.StatusCode)

	resp, v = f.do(t, "POST", "/cases/42/edit", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Unsuccessful: Case fee is not yet paid. Settle payment first.", v["notice"].(map[string]any)["message"])
	assert.Equal(t, 0, f.api.count("PUT /api/cases/42"))

	f.do(t, "PATCH", "/cases/42/edit", `{"name":"ctag_id","value":"3"}`)
	f.do(t, "PATCH", "/cases/42/edit", `{"name":"case_remarks","value":"checked"}`)
	resp, v = f.do(t, "POST", "/cases/42/edit", "")
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Case updated successfully!", v["notice"].(map[string]any)["message"])
	assert.Equal(t, "closed", v["edit"].(map[string]any)["state"])

	sent := f.api.body(t, "PUT /api/cases/42")
	assert.Equal(t, float64(1), sent["last_updated_by"])
	assert.Equal(t, "checked", sent["case_remarks"])
	assert.Equal(t, `[{"ctag_id":3,"ctag_name":"Filing"},{"ctag_id":4,"ctag_name":"Hearing"}]`, sent["case_tag_list"])

	_, v = f.do(t, "GET", "/cases?status=", "")
	assert.Equal(t, []float64{42, 7}, rowIDs(v), "row replaced in place")
}

func Test_EditFlow_ClosedCaseAndClosedModal(t *testing.T) {
	f := setup(t, admin)
	f.api.on("GET /api/cases", reply(200, `[{"case_id":1,"case_status":"Completed"},{"case_id":2,"case_status":"Pending"}]`))
	f.do(t, "GET", "/cases", "")

	resp, _ := f.do(t, "GET", "/cases/1/edit", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = f.do(t, "GET", "/cases/404/edit", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, "PATCH", "/cases/2/edit", `{"name":"case_remarks","value":"x"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "modal not open")

	f.do(t, "GET", "/cases/2/edit", "")
	resp, _ = f.do(t, "DELETE", "/cases/2/edit", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, "POST", "/cases/2/edit", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func Test_List_SearchSurvivesLaterRequests(t *testing.T) {
	f := setup(t, admin)
	f.api.on("GET /api/cases", reply(200, casesJSON))

	_, v := f.do(t, "GET", "/cases?status=&search=juan", "")
	require.Equal(t, "juan", v["search"])
	require.Equal(t, []float64{42}, rowIDs(v))

	for i := 0; i < 20; i++ {
		f.do(t, "GET", "/cases?page=1&zzzzzz=qqqqqqqq", "")
		f.do(t, "GET", "/cases?page=1", "")
	}
	_, v = f.do(t, "GET", "/cases", "")
	assert.Equal(t, "juan", v["search"])
	assert.Equal(t, "", v["status"])
	assert.Equal(t, []float64{42}, rowIDs(v))
}
