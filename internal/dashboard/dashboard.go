// Package dashboard assembles the role-specific overview page.
package dashboard

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/pkg/models"
)

// FeedSize is how many activity entries the overview shows.
const FeedSize = 4

// Source is the slice of the upstream API the dashboard reads.
// *backend.Session satisfies it.
type Source interface {
	CountUsers(ctx context.Context) (int64, error)
	CountClients(ctx context.Context) (int64, error)
	CountProcessingCases(ctx context.Context, userID *int64) (int64, error)
	CountArchivedCases(ctx context.Context, userID *int64) (int64, error)
	CountDocsForApproval(ctx context.Context) (int64, error)
	CountProcessingDocs(ctx context.Context, lawyer bool) (int64, error)
	CountPendingTasks(ctx context.Context, userID *int64) (int64, error)
	UserLogs(ctx context.Context, userID *int64) ([]models.UserLog, error)
	CaseCountsByCategory(ctx context.Context) (map[string]int64, error)
	LawyersWithCaseCounts(ctx context.Context) ([]models.LawyerCaseCount, error)
}

// Metrics are the card values. A metric whose load failed stays 0.
type Metrics struct {
	Users           int64
	Clients         int64
	ProcessingCases int64
	ArchivedCases   int64
	DocsForApproval int64
	ProcessingDocs  int64
	PendingTasks    int64
}

// Data is everything one overview render needs.
type Data struct {
	Metrics    Metrics
	Categories map[string]int64
	Logs       []models.UserLog
	Lawyers    []models.LawyerCaseCount
}

// Load fetches every metric concurrently. Failures are logged and never
// affect the other metrics.
func Load(ctx context.Context, src Source, snap auth.Snapshot, log *zap.Logger) Data {
	caps := snap.Caps()
	uid := snap.UserID()
	var scoped, own *int64
	if !caps.FirmWideCaseCounts {
		scoped = &uid
	}
	if !caps.FirmWideActivity {
		own = &uid
	}

	d := Data{
		Categories: map[string]int64{},
		Logs:       []models.UserLog{},
		Lawyers:    []models.LawyerCaseCount{},
	}
	var g errgroup.Group

	count := func(name string, dst *int64, fn func() (int64, error)) {
		g.Go(func() error {
			n, err := fn()
			if err != nil {
				log.Warn("dashboard metric failed", zap.String("metric", name), zap.Error(err))
				return nil
			}
			*dst = n
			return nil
		})
	}

	if caps.UserCount {
		count("users", &d.Metrics.Users, func() (int64, error) { return src.CountUsers(ctx) })
	}
	count("clients", &d.Metrics.Clients, func() (int64, error) { return src.CountClients(ctx) })
	count("processing_cases", &d.Metrics.ProcessingCases, func() (int64, error) { return src.CountProcessingCases(ctx, scoped) })
	count("archived_cases", &d.Metrics.ArchivedCases, func() (int64, error) { return src.CountArchivedCases(ctx, scoped) })
	count("docs_for_approval", &d.Metrics.DocsForApproval, func() (int64, error) { return src.CountDocsForApproval(ctx) })
	count("processing_docs", &d.Metrics.ProcessingDocs, func() (int64, error) { return src.CountProcessingDocs(ctx, caps.LawyerScopedDocs) })
	count("pending_tasks", &d.Metrics.PendingTasks, func() (int64, error) { return src.CountPendingTasks(ctx, own) })

	g.Go(func() error {
		logs, err := src.UserLogs(ctx, own)
		if err != nil {
			log.Warn("dashboard user logs failed", zap.Error(err))
			return nil
		}
		if len(logs) > FeedSize {
			logs = logs[:FeedSize]
		}
		d.Logs = logs
		return nil
	})
	g.Go(func() error {
		cats, err := src.CaseCountsByCategory(ctx)
		if err != nil {
			log.Warn("dashboard category chart failed", zap.Error(err))
			return nil
		}
		d.Categories = cats
		return nil
	})
	if caps.LawyerRecommendations {
		g.Go(func() error {
			lawyers, err := src.LawyersWithCaseCounts(ctx)
			if err != nil {
				log.Warn("dashboard lawyer recommendations failed", zap.Error(err))
				return nil
			}
			d.Lawyers = lawyers
			return nil
		})
	}

	_ = g.Wait()
	return d
}

/* ================================ Chart ================================ */

// ChartPoint is one bucket of the case category chart.
type ChartPoint struct {
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

var chartBuckets = []struct{ key, name string }{
	{"civil", "Civil"},
	{"criminal", "Criminal"},
	{"special_proceedings", "Special Proceedings"},
	{"constitutional", "Constitutional"},
	{"jurisdictional", "Jurisdictional"},
	{"special_courts", "Special Courts"},
}

// Chart maps the upstream counts onto the six fixed buckets; missing ones are 0.
func Chart(counts map[string]int64) []ChartPoint {
	out := make([]ChartPoint, 0, len(chartBuckets))
	for _, b := range chartBuckets {
		out = append(out, ChartPoint{Name: b.name, Total: counts[b.key]})
	}
	return out
}
