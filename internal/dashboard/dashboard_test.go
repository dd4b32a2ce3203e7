package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
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

const upstreamCookie = "token=abc"

// upstream answers fixed bodies per path and records which paths were hit.
type upstream struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
	srv    *httptest.Server
}

func newUpstream(t *testing.T, bodies map[string]string) *upstream {
	u := &upstream{bodies: bodies, hits: map[string]int{}}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		body, ok := u.bodies[r.URL.Path]
		u.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) hit(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func overview(t *testing.T, u *upstream, user models.User) View {
	t.Helper()
	svc := auth.NewService(backend.New(u.srv.URL, time.Second, nil), "secret", "console_session", false, nil)
	h := NewHandler(svc, nil, Options{DefaultAvatar: "/default-avatar.png"})
	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler, Immutable: true})
	app.Get("/dashboard", svc.RequireSession(), h.Overview)

	tok, err := svc.IssueToken(auth.Snapshot{SessionID: "s", User: user, IssuedAt: time.Now()}, upstreamCookie)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Cookie", upstreamCookie+"; console_session="+tok)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var v View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func cardValues(v View) map[auth.Card]int64 {
	out := map[auth.Card]int64{}
	for _, c := range v.Cards {
		out[c.Key] = c.Value
	}
	return out
}

func Test_Overview_FailingMetricStaysZero(t *testing.T) {
	u := newUpstream(t, map[string]string{
		"/api/users/count":                     `{"count":"12"}`,
		"/api/clients/count":                   `{"count":30}`,
		"/api/cases/count/archived":            `{"count":4}`,
		"/api/documents/count/for-approval":    `{"count":2}`,
		"/api/documents/count/processing":      `{"count":"oops"}`,
		"/api/documents/count/pending-tasks":   `{"count":6}`,
		"/api/user-logs":                       `[]`,
		"/api/reports/case-counts-by-category": `{"civil":"5","criminal":2,"unknown":9}`,
		// processing cases is missing: the upstream answers 500
	})
	v := overview(t, u, models.User{ID: 1, FirstName: "Ada", Role: models.RoleAdmin})

	assert.Equal(t, "Welcome back Ada! Here's your overview.", v.Greeting)
	assert.Equal(t, map[auth.Card]int64{
		auth.CardUsers:           12,
		auth.CardArchived:        4,
		auth.CardProcessingCases: 0,
		auth.CardProcessingDocs:  0,
		auth.CardClients:         30,
		auth.CardApprovals:       2,
		auth.CardTasks:           6,
	}, cardValues(v))
	assert.Equal(t, 4, v.Layout.Columns)
	assert.Equal(t, []ChartPoint{
		{"Civil", 5}, {"Criminal", 2}, {"Special Proceedings", 0},
		{"Constitutional", 0}, {"Jurisdictional", 0}, {"Special Courts", 0},
	}, v.Chart)
	assert.Equal(t, 0, u.hit("/api/lawyers-with-case-counts"))
}

func Test_Overview_LawyerScopedEndpoints(t *testing.T) {
	u := newUpstream(t, map[string]string{
		"/api/cases/count/processing/user/7":   `{"count":3}`,
		"/api/cases/count/archived/user/7":     `{"count":1}`,
		"/api/documents/count/processing/lawyer": `{"count":8}`,
		"/api/documents/count/pending-tasks/7": `{"count":2}`,
		"/api/user-logs/7": `[
			{"user_log_id":1,"user_fullname":"Leo Tan","user_log_action":"a","user_log_time":"2024-03-05T06:30:00Z","user_profile":"/uploads/l.png"},
			{"user_log_id":2,"user_log_action":"b"},{"user_log_id":3},{"user_log_id":4},{"user_log_id":5},{"user_log_id":6}]`,
	})
	v := overview(t, u, models.User{ID: 7, FirstName: "Leo", Role: models.RoleLawyer})

	vals := cardValues(v)
	assert.Equal(t, int64(3), vals[auth.CardProcessingCases])
	assert.Equal(t, int64(8), vals[auth.CardProcessingDocs])
	assert.NotContains(t, vals, auth.CardUsers)
	assert.Equal(t, 0, u.hit("/api/users/count"))
	assert.Equal(t, 3, v.Layout.Columns)

	require.Len(t, v.Logs, FeedSize)
	assert.Equal(t, "06:30 AM", v.Logs[0].Time)
	assert.Equal(t, "3/5/2024", v.Logs[0].Date)
	assert.Equal(t, u.srv.URL+"/uploads/l.png", v.Logs[0].Image)
	assert.Equal(t, "/default-avatar.png", v.Logs[1].Image)
	assert.Len(t, v.Chart, 6, "a failed chart still has every bucket")
}

func Test_Overview_StaffGetsRecommendations(t *testing.T) {
	u := newUpstream(t, map[string]string{
		"/api/lawyers-with-case-counts": `[{"user_id":5,"user_fname":"Ana","user_mname":"Dela","user_lname":"Reyes","total_cases":"7","completed_cases":3,"dismissed_cases":null}]`,
	})
	v := overview(t, u, models.User{ID: 2, FirstName: "Sam", Role: models.RoleStaff})

	require.Len(t, v.Lawyers, 1)
	assert.Equal(t, Recommendation{
		UserID: 5, Name: "Ana D. Reyes", Role: "Lawyer", Image: "/default-avatar.png",
		TotalCases: 7, CompletedCases: 3,
	}, v.Lawyers[0])
	assert.Equal(t, 1, u.hit("/api/cases/count/processing"), "staff counts are firm-wide")
	assert.Equal(t, 1, u.hit("/api/documents/count/pending-tasks/2"))
	for _, c := range v.Cards {
		assert.Equal(t, int64(0), c.Value, "every failed metric is zero")
	}
}
