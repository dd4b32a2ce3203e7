package dashboard

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/pkg/format"
)

// Options carries display settings for the overview.
type Options struct {
	DefaultAvatar string
	Location      *time.Location
}

type Handler struct {
	auth *auth.Service
	log  *zap.Logger
	opts Options
}

func NewHandler(svc *auth.Service, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{auth: svc, log: log, opts: opts}
}

var cardTitles = map[auth.Card]string{
	auth.CardUsers:           "Users",
	auth.CardArchived:        "Archived Cases",
	auth.CardProcessingCases: "Processing Cases",
	auth.CardProcessingDocs:  "Processing Documents",
	auth.CardClients:         "Clients",
	auth.CardApprovals:       "Pending Approvals",
	auth.CardTasks:           "Pending Tasks",
}

// CardView is one metric card.
type CardView struct {
	Key   auth.Card `json:"key"`
	Title string    `json:"title"`
	Value int64     `json:"value"`
}

// LogEntry is one activity feed line.
type LogEntry struct {
	ID     int64  `json:"user_log_id"`
	Name   string `json:"user_fullname"`
	Image  string `json:"image"`
	Action string `json:"action"`
	Time   string `json:"time"`
	Date   string `json:"date"`
}

// Recommendation is a lawyer suggested to staff.
type Recommendation struct {
	UserID          int64  `json:"user_id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	Image           string `json:"image"`
	Specializations string `json:"specializations,omitempty"`
	TotalCases      int64  `json:"total_cases"`
	CompletedCases  int64  `json:"completed_cases"`
	DismissedCases  int64  `json:"dismissed_cases"`
}

// View is the overview page.
type View struct {
	Greeting string           `json:"greeting"`
	Cards    []CardView       `json:"cards"`
	Layout   auth.Layout      `json:"layout"`
	Chart    []ChartPoint     `json:"chart"`
	Logs     []LogEntry       `json:"logs"`
	Lawyers  []Recommendation `json:"lawyers"`
}

// @Summary      Dashboard overview
// @Description  Cards, category chart, activity feed and (staff) lawyer recommendations
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  View
// @Failure      401  {object}  models.ErrorResponse
// @Router       /dashboard [get]
func (h *Handler) Overview(c *fiber.Ctx) error {
	snap := auth.Current(c)
	d := Load(c.UserContext(), h.auth.API(c), snap, h.log)
	return c.JSON(h.render(snap, d))
}

func (h *Handler) render(snap auth.Snapshot, d Data) View {
	caps := snap.Caps()
	values := map[auth.Card]int64{
		auth.CardUsers:           d.Metrics.Users,
		auth.CardArchived:        d.Metrics.ArchivedCases,
		auth.CardProcessingCases: d.Metrics.ProcessingCases,
		auth.CardProcessingDocs:  d.Metrics.ProcessingDocs,
		auth.CardClients:         d.Metrics.Clients,
		auth.CardApprovals:       d.Metrics.DocsForApproval,
		auth.CardTasks:           d.Metrics.PendingTasks,
	}

	v := View{
		Greeting: fmt.Sprintf("Welcome back %s! Here's your overview.", snap.User.FirstName),
		Cards:    make([]CardView, 0, len(caps.Cards)),
		Layout:   caps.Layout,
		Chart:    Chart(d.Categories),
		Logs:     make([]LogEntry, 0, len(d.Logs)),
		Lawyers:  make([]Recommendation, 0, len(d.Lawyers)),
	}
	for _, card := range caps.Cards {
		v.Cards = append(v.Cards, CardView{Key: card, Title: cardTitles[card], Value: values[card]})
	}

	origin := h.auth.Client().BaseURL()
	for _, l := range d.Logs {
		v.Logs = append(v.Logs, LogEntry{
			ID:     l.ID,
			Name:   l.FullName,
			Image:  format.ImageURL(origin, l.Profile, h.opts.DefaultAvatar),
			Action: l.Action,
			Time:   format.Clock(l.Time, h.opts.Location),
			Date:   format.ShortDate(l.Time, h.opts.Location),
		})
	}
	for _, l := range d.Lawyers {
		role := l.Role
		if role == "" {
			role = "Lawyer"
		}
		v.Lawyers = append(v.Lawyers, Recommendation{
			UserID:          l.UserID,
			Name:            format.FullName(l.FirstName, l.MiddleName, l.LastName),
			Role:            role,
			Image:           format.ImageURL(origin, l.Profile, h.opts.DefaultAvatar),
			Specializations: l.Specializations,
			TotalCases:      int64(l.TotalCases),
			CompletedCases:  int64(l.CompletedCases),
			DismissedCases:  int64(l.DismissedCases),
		})
	}
	return v
}
