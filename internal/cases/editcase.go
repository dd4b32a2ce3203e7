package cases

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/sanitize"
)

// EditState is the lifecycle of the edit-case modal.
type EditState string

const (
	EditClosed    EditState = "closed"
	EditLoading   EditState = "loading"
	EditPopulated EditState = "populated"
	EditEditing   EditState = "editing"
)

const (
	msgCabinetNaN = "Cabinet must be a number"
	msgDrawerNaN  = "Drawer must be a number"
	msgTagLocked  = "Unsuccessful: Case fee is not yet paid. Settle payment first."
)

var (
	ErrNotOpen      = errors.New("edit case modal is not open")
	ErrUnknownField = errors.New("field is not editable")
	// ErrInvalid carries field errors; see EditCase.Errors.
	ErrInvalid = errors.New("case form has errors")
	// ErrTagLocked rejects a tag change while the case still has a balance.
	ErrTagLocked = errors.New(msgTagLocked)
)

// EditForm is the editable part of a case, as the form holds it.
type EditForm struct {
	ClientID   string `json:"client_id"`
	CategoryID string `json:"cc_id"`
	TypeID     string `json:"ct_id"`
	LawyerID   string `json:"user_id"`
	Remarks    string `json:"case_remarks"`
	Cabinet    string `json:"case_cabinet"`
	Drawer     string `json:"case_drawer"`
	TagID      string `json:"ctag_id"`
}

// LawyerOption is one entry of the lawyer select.
type LawyerOption struct {
	ID    int64  `json:"user_id"`
	Label string `json:"label"`
}

// EditCase is the edit-case modal of one session.
type EditCase struct {
	mu       sync.Mutex
	log      *zap.Logger
	actor    models.User
	state    EditState
	gen      uint64
	cancel   context.CancelFunc
	original models.Case
	form     EditForm
	errors   map[string]string
	ref      RefData
}

func NewEditCase(actor models.User, log *zap.Logger) *EditCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &EditCase{log: log, actor: actor, state: EditClosed, errors: map[string]string{}, ref: emptyRefData()}
}

// SetActor updates the signed-in user the modal acts for.
func (e *EditCase) SetActor(u models.User) {
	e.mu.Lock()
	e.actor = u
	e.mu.Unlock()
}

// Open shows the modal for c: the form is seeded right away and the option
// lists load in parallel under a context that Close cancels. Open returns once
// the loads settle. If the modal was closed or reopened meanwhile, the results
// are dropped.
func (e *EditCase) Open(parent context.Context, loader RefLoader, c models.Case) {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	e.gen++
	gen := e.gen
	e.cancel = cancel
	e.state = EditLoading
	e.original = c
	e.ref = emptyRefData()
	e.errors = map[string]string{}
	e.form = seedForm(e.actor, c)
	e.mu.Unlock()

	ref := loadRefData(ctx, loader, e.log)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen || e.state != EditLoading {
		return
	}
	e.ref = ref
	e.state = EditPopulated
}

// seedForm fills the form from a case. A Lawyer is always the assignee;
// otherwise a Processing case keeps its lawyer and any other case starts unassigned.
func seedForm(actor models.User, c models.Case) EditForm {
	f := EditForm{
		ClientID:   idString(c.ClientID),
		CategoryID: idString(c.CategoryID),
		TypeID:     idString(c.TypeID),
		Remarks:    c.Remarks,
		Cabinet:    string(c.Cabinet),
		Drawer:     string(c.Drawer),
	}
	switch {
	case auth.CapabilitiesFor(actor.Role).ForceSelfAssign:
		f.LawyerID = idString(actor.ID)
	case c.Status == models.CaseProcessing && c.LawyerID != nil:
		f.LawyerID = idString(*c.LawyerID)
	}
	if c.Tags.ActiveID != nil {
		f.TagID = idString(*c.Tags.ActiveID)
	}
	return f
}

// Close hides the modal and cancels any in-flight loads.
func (e *EditCase) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

func (e *EditCase) closeLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
	e.state = EditClosed
	e.original = models.Case{}
	e.form = EditForm{}
	e.errors = map[string]string{}
	e.ref = emptyRefData()
}

// State returns the lifecycle state.
func (e *EditCase) State() EditState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CaseID is the id of the case being edited, 0 when closed.
func (e *EditCase) CaseID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.original.ID
}

// SetField applies one input change. Cabinet and drawer silently ignore
// non-digit input. A category change clears the case type. The lawyer can
// only be picked by roles that may assign any lawyer.
func (e *EditCase) SetField(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == EditClosed {
		return ErrNotOpen
	}

	switch name {
	case "case_cabinet", "case_drawer":
		if value != "" && !sanitize.IsDigits(value) {
			return nil
		}
		if name == "case_cabinet" {
			e.form.Cabinet = value
		} else {
			e.form.Drawer = value
		}
	case "cc_id":
		e.form.CategoryID = value
		e.form.TypeID = ""
	case "client_id":
		e.form.ClientID = value
	case "ct_id":
		e.form.TypeID = value
	case "user_id":
		if !auth.CapabilitiesFor(e.actor.Role).AssignAnyLawyer {
			return nil
		}
		e.form.LawyerID = value
	case "case_remarks":
		e.form.Remarks = value
	case "ctag_id":
		e.form.TagID = value
	default:
		return ErrUnknownField
	}
	delete(e.errors, name)
	if e.state == EditPopulated {
		e.state = EditEditing
	}
	return nil
}

// Submit validates the form and, if it passes, returns the merged case and
// closes the modal. Field errors return ErrInvalid (see Errors); a tag change
// on a case with a balance returns ErrTagLocked and the modal stays open.
func (e *EditCase) Submit() (models.Case, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == EditClosed {
		return models.Case{}, ErrNotOpen
	}

	errs := map[string]string{}
	if e.form.Cabinet != "" && !isNumber(e.form.Cabinet) {
		errs["case_cabinet"] = msgCabinetNaN
	}
	if e.form.Drawer != "" && !isNumber(e.form.Drawer) {
		errs["case_drawer"] = msgDrawerNaN
	}
	e.errors = errs
	if len(errs) > 0 {
		return models.Case{}, ErrInvalid
	}

	selected := optID(e.form.TagID)
	if tagChanging(e.original.Tags.ActiveID, selected) && e.original.Balance > 0 {
		return models.Case{}, ErrTagLocked
	}

	merged := e.original
	merged.ClientID = parseID(e.form.ClientID)
	merged.CategoryID = parseID(e.form.CategoryID)
	merged.TypeID = parseID(e.form.TypeID)
	merged.LawyerID = optID(e.form.LawyerID)
	merged.Remarks = sanitize.Text(e.form.Remarks)
	merged.Cabinet = models.FlexString(e.form.Cabinet)
	merged.Drawer = models.FlexString(e.form.Drawer)

	// The candidate list is kept as is; only the active tag moves.
	merged.Tags.Tags = append([]models.Tag(nil), e.original.Tags.Tags...)
	merged.Tags.ActiveID = nil
	if selected != nil {
		if t, ok := e.original.Tags.Find(*selected); ok {
			id := t.ID
			merged.Tags.ActiveID = &id
		}
	}

	if merged.LawyerID != nil {
		merged.Status = models.CaseProcessing
	}

	e.closeLocked()
	return merged, nil
}

// tagChanging compares the stored active tag with the selected one. An unset
// tag and an empty selection are the same.
func tagChanging(original, selected *int64) bool {
	switch {
	case original == nil && selected == nil:
		return false
	case original == nil || selected == nil:
		return true
	default:
		return *original != *selected
	}
}

/* ================================ View ================================ */

// EditCaseView is the modal as the browser should render it.
type EditCaseView struct {
	State        EditState                 `json:"state"`
	CaseID       int64                     `json:"case_id,omitempty"`
	Form         EditForm                  `json:"form"`
	Errors       map[string]string         `json:"errors"`
	Clients      []models.Client           `json:"clients"`
	Categories   []models.CaseCategory     `json:"categories"`
	Types        []models.CaseCategoryType `json:"types"`
	Lawyers      []LawyerOption            `json:"lawyers"`
	LawyerLocked bool                      `json:"lawyer_locked"`
	Tags         []models.Tag              `json:"tags"`
	SubmitLabel  string                    `json:"submit_label"`
}

// View snapshots the modal for rendering.
func (e *EditCase) View() EditCaseView {
	e.mu.Lock()
	defer e.mu.Unlock()

	errs := make(map[string]string, len(e.errors))
	for k, v := range e.errors {
		errs[k] = v
	}
	v := EditCaseView{
		State:      e.state,
		CaseID:     e.original.ID,
		Form:       e.form,
		Errors:     errs,
		Clients:    e.ref.Clients,
		Categories: e.ref.Categories,
		Types:      TypesFor(e.ref.Types, parseID(e.form.CategoryID)),
		Lawyers:    lawyerOptions(e.actor, e.ref.Lawyers, parseID(e.form.CategoryID)),
		Tags:       append([]models.Tag{}, e.original.Tags.Tags...),
	}
	caps := auth.CapabilitiesFor(e.actor.Role)
	v.LawyerLocked = !caps.AssignAnyLawyer || e.form.CategoryID == ""
	v.SubmitLabel = "Update Case"
	if caps.ForceSelfAssign && e.original.Status == models.CasePending {
		v.SubmitLabel = "Update Case & Start Processing"
	}
	return v
}

// lawyerOptions lists assignable lawyers. Roles that assign any lawyer see the
// lawyers specialised in the category, falling back to themselves; everyone
// else only sees themselves.
func lawyerOptions(actor models.User, lawyers []models.LawyerSpecialization, categoryID int64) []LawyerOption {
	self := strings.Join(strings.Fields(actor.FirstName+" "+actor.MiddleName+" "+actor.LastName), " ")
	if !auth.CapabilitiesFor(actor.Role).AssignAnyLawyer {
		return []LawyerOption{{ID: actor.ID, Label: self}}
	}
	out := []LawyerOption{}
	seen := map[int64]bool{}
	for _, l := range lawyers {
		if l.CategoryID != categoryID || seen[l.UserID] {
			continue
		}
		seen[l.UserID] = true
		out = append(out, LawyerOption{
			ID:    l.UserID,
			Label: strings.Join(strings.Fields(l.FirstName+" "+l.MiddleName+" "+l.LastName), " "),
		})
	}
	if len(out) == 0 {
		out = append(out, LawyerOption{ID: actor.ID, Label: strings.TrimSpace(self + " (You)")})
	}
	return out
}

/* ============================== Helpers ============================== */

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// parseID reads a numeric form value; anything unparsable is 0.
func parseID(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// optID is parseID with "no value" (empty, invalid or 0) as nil.
func optID(s string) *int64 {
	n := parseID(s)
	if n == 0 {
		return nil
	}
	return &n
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

