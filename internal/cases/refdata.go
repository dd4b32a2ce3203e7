package cases

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aldoetobex/legal-case-console/pkg/models"
)

// RefLoader reads the option lists used by the case forms.
// *backend.Session satisfies it.
type RefLoader interface {
	Clients(ctx context.Context) ([]models.Client, error)
	CaseCategories(ctx context.Context) ([]models.CaseCategory, error)
	CaseCategoryTypes(ctx context.Context) ([]models.CaseCategoryType, error)
	LawyerSpecializations(ctx context.Context) ([]models.LawyerSpecialization, error)
}

// RefData holds the case form option lists. Lists are never nil.
type RefData struct {
	Clients    []models.Client               `json:"clients"`
	Categories []models.CaseCategory         `json:"categories"`
	Types      []models.CaseCategoryType     `json:"types"`
	Lawyers    []models.LawyerSpecialization `json:"lawyers"`
}

func emptyRefData() RefData {
	return RefData{
		Clients:    []models.Client{},
		Categories: []models.CaseCategory{},
		Types:      []models.CaseCategoryType{},
		Lawyers:    []models.LawyerSpecialization{},
	}
}

// loadRefData fetches the four lists in parallel. A failing list is logged and
// left empty; it never cancels the others.
func loadRefData(ctx context.Context, l RefLoader, log *zap.Logger) RefData {
	out := emptyRefData()
	var g errgroup.Group

	g.Go(func() error {
		if v, err := l.Clients(ctx); err != nil {
			log.Warn("load clients failed", zap.Error(err))
		} else if v != nil {
			out.Clients = v
		}
		return nil
	})
	g.Go(func() error {
		if v, err := l.CaseCategories(ctx); err != nil {
			log.Warn("load case categories failed", zap.Error(err))
		} else if v != nil {
			out.Categories = v
		}
		return nil
	})
	g.Go(func() error {
		if v, err := l.CaseCategoryTypes(ctx); err != nil {
			log.Warn("load case category types failed", zap.Error(err))
		} else if v != nil {
			out.Types = v
		}
		return nil
	})
	g.Go(func() error {
		if v, err := l.LawyerSpecializations(ctx); err != nil {
			log.Warn("load lawyer specializations failed", zap.Error(err))
		} else if v != nil {
			out.Lawyers = v
		}
		return nil
	})

	_ = g.Wait()
	return out
}

// TypesFor filters case types by category.
func TypesFor(types []models.CaseCategoryType, categoryID int64) []models.CaseCategoryType {
	out := []models.CaseCategoryType{}
	if categoryID == 0 {
		return out
	}
	for _, t := range types {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out
}
