package cases

import (
	"strconv"
	"strings"
	"time"

	"github.com/aldoetobex/legal-case-console/pkg/format"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/paging"
)

const unassigned = "Unassigned"

// Statuses are the values offered by the status filter; "" means all.
var Statuses = []models.CaseStatus{
	models.CasePending,
	models.CaseProcessing,
	models.CaseCompleted,
	models.CaseDismissed,
	models.CaseArchivedCompleted,
	models.CaseArchivedDismissed,
}

// Query is the filter state of the cases table.
type Query struct {
	Status models.CaseStatus
	Search string
}

// DefaultStatus is the filter applied after each load: Pending when any
// pending case exists, otherwise all.
func DefaultStatus(rows []models.Case) models.CaseStatus {
	for _, c := range rows {
		if c.Status == models.CasePending {
			return models.CasePending
		}
	}
	return ""
}

// lawyerNames resolves the display name of each assignee from the first row
// that carries them.
func lawyerNames(rows []models.Case) map[int64]string {
	out := map[int64]string{}
	for _, c := range rows {
		if c.LawyerID == nil {
			continue
		}
		if _, ok := out[*c.LawyerID]; ok {
			continue
		}
		out[*c.LawyerID] = format.FullName(c.LawyerFirstName, c.LawyerMiddleName, c.LawyerLastName)
	}
	return out
}

func lawyerName(names map[int64]string, c models.Case) string {
	if c.LawyerID == nil {
		return unassigned
	}
	if n := names[*c.LawyerID]; n != "" {
		return n
	}
	return unassigned
}

// Filter applies the status filter and the search text. Archived rows are kept:
// they count toward pagination and are only hidden when a page is rendered.
func Filter(rows []models.Case, q Query, loc *time.Location) []models.Case {
	names := lawyerNames(rows)
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := []models.Case{}
	for _, c := range rows {
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if needle != "" && !matches(c, needle, lawyerName(names, c), loc) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matches(c models.Case, needle, lawyer string, loc *time.Location) bool {
	if strings.Contains(strconv.FormatInt(c.ID, 10), needle) {
		return true
	}
	for _, f := range []string{
		c.TypeName,
		c.CategoryName,
		c.ClientFullName,
		string(c.Status),
		lawyer,
		format.Date(c.DateCreated, loc),
	} {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

/* ================================ Rows ================================= */

// CaseRow is one rendered table row.
type CaseRow struct {
	ID          int64             `json:"case_id"`
	ClientName  string            `json:"client_fullname"`
	Category    string            `json:"cc_name"`
	Type        string            `json:"ct_name"`
	Status      models.CaseStatus `json:"case_status"`
	LawyerName  string            `json:"lawyer"`
	DateCreated string            `json:"date_created"`
	Balance     string            `json:"balance"`
	CanEdit     bool              `json:"can_edit"`
	EditTitle   string            `json:"edit_title,omitempty"`
}

// Render pages the filtered rows and hides archived cases from the page.
func Render(all, filtered []models.Case, page int, admin bool, loc *time.Location) paging.Page[CaseRow] {
	names := lawyerNames(all)
	p := paging.Slice(filtered, page)

	rows := make([]CaseRow, 0, len(p.Items))
	for _, c := range p.Items {
		if c.Status.Archived() {
			continue
		}
		rows = append(rows, toRow(c, lawyerName(names, c), admin, loc))
	}
	return paging.Page[CaseRow]{Items: rows, Page: p.Page, TotalPages: p.TotalPages, Total: p.Total}
}

func toRow(c models.Case, lawyer string, admin bool, loc *time.Location) CaseRow {
	r := CaseRow{
		ID:          c.ID,
		ClientName:  c.ClientFullName,
		Category:    c.CategoryName,
		Type:        c.TypeName,
		Status:      c.Status,
		LawyerName:  lawyer,
		DateCreated: format.Date(c.DateCreated, loc),
		Balance:     format.Currency(c.Balance),
		CanEdit:     !c.Status.Closed(),
	}
	if r.CanEdit {
		r.EditTitle = "Update and take case"
		if admin {
			r.EditTitle = "Edit case"
		}
	}
	return r
}
