package cases

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/internal/viewstate"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/paging"
	"github.com/aldoetobex/legal-case-console/pkg/store"
	"github.com/aldoetobex/legal-case-console/pkg/validation"
)

const (
	msgCasesFailed = "Failed to fetch cases"
	msgCheckServer = ". You might want to check your server connection."
	msgCaseMissing = "Case not found"
	msgCaseClosed  = "Completed and dismissed cases can no longer be edited"
)

// Options carries display settings for the cases page.
type Options struct {
	Location *time.Location
	IdleTTL  time.Duration
}

// Handler serves the cases table, the add-case form and the edit-case modal.
type Handler struct {
	auth  *auth.Service
	log   *zap.Logger
	loc   *time.Location
	lists *viewstate.Registry[listState]
}

type listState struct {
	mu        sync.Mutex
	rows      *store.List[models.Case]
	loadedFor int64
	query     Query
	page      int
	err       string
	edit      *EditCase
}

func NewHandler(svc *auth.Service, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	h := &Handler{auth: svc, log: log, loc: opts.Location}
	h.lists = viewstate.New(opts.IdleTTL, func() *listState {
		return &listState{
			rows: store.NewList(func(c models.Case) int64 { return c.ID }),
			page: 1,
			edit: NewEditCase(models.User{}, log),
		}
	})
	// An evicted session must not leave option loads running.
	h.lists.OnEvict(func(st *listState) { st.edit.Close() })
	return h
}

// Stores exposes the per-session state for logout and idle sweeping.
func (h *Handler) Stores() []viewstate.Store {
	return []viewstate.Store{h.lists}
}

func (h *Handler) state(snap auth.Snapshot) *listState {
	st := h.lists.Get(snap.SessionID)
	st.edit.SetActor(snap.User)
	return st
}

/* ================================ DTOs ================================= */

// CasesView is the table as the browser should render it.
type CasesView struct {
	Rows       []CaseRow           `json:"rows"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
	Total      int                 `json:"total"`
	Status     models.CaseStatus   `json:"status"`
	Search     string              `json:"search"`
	Statuses   []models.CaseStatus `json:"statuses"`
	Error      string              `json:"error,omitempty"`
}

// NewCaseView is the add-case form with its option lists.
type NewCaseView struct {
	Form       NewCaseForm               `json:"form"`
	Clients    []models.Client           `json:"clients"`
	Categories []models.CaseCategory     `json:"categories"`
	Types      []models.CaseCategoryType `json:"types"`
	Lawyers    []LawyerOption            `json:"lawyers"`
}

// MutationResult answers create and update calls.
type MutationResult struct {
	Row    *CaseRow       `json:"row,omitempty"`
	Form   *NewCaseForm   `json:"form,omitempty"`
	Edit   *EditCaseView  `json:"edit,omitempty"`
	Error  string         `json:"error,omitempty"`
	Notice *models.Notice `json:"notice,omitempty"`
}

/* =============================== Table ================================= */

// @Summary      List cases
// @Description  Loads on first view, on refresh and when the user changes; filters and pages locally
// @Tags         cases
// @Produce      json
// @Param        search   query  string  false  "Search text"
// @Param        status   query  string  false  "Status filter (empty = all)"
// @Param        page     query  int     false  "Page number"
// @Param        refresh  query  bool    false  "Refetch from upstream"
// @Success      200  {object}  CasesView
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases [get]
func (h *Handler) List(c *fiber.Ctx) error {
	snap := auth.Current(c)
	st := h.state(snap)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.rows.Loaded() || st.loadedFor != snap.UserID() || c.QueryBool("refresh") {
		h.load(c, snap, st)
	}

	args := c.Context().QueryArgs()
	if args.Has("status") {
		// query strings are only valid during the request
		s := models.CaseStatus(utils.CopyString(c.Query("status")))
		if s != "" && !knownStatus(s) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown case status")
		}
		if s != st.query.Status {
			st.query.Status = s
			st.page = 1
		}
	}
	if args.Has("search") {
		if s := c.Query("search"); s != st.query.Search {
			st.query.Search = utils.CopyString(s)
			st.page = 1
		}
	}
	if args.Has("page") {
		st.page = paging.Parse(c.Query("page"))
	}

	return c.JSON(h.view(snap, st))
}

func (h *Handler) load(c *fiber.Ctx, snap auth.Snapshot, st *listState) {
	api := h.auth.API(c)
	var (
		rows []models.Case
		err  error
	)
	if snap.Caps().SeeAllRecords {
		rows, err = api.Cases(c.UserContext())
	} else {
		rows, err = api.CasesByUser(c.UserContext(), snap.UserID())
	}
	st.loadedFor = snap.UserID()
	if err != nil {
		h.log.Warn("load cases failed", zap.Int64("user_id", snap.UserID()), zap.Error(err))
		st.err = strings.TrimRight(backend.Message(err, msgCasesFailed), ".") + msgCheckServer
		return
	}
	st.rows.Replace(rows)
	st.err = ""
	st.query.Status = DefaultStatus(rows)
	st.page = 1
}

func (h *Handler) view(snap auth.Snapshot, st *listState) CasesView {
	all := st.rows.All()
	p := Render(all, Filter(all, st.query, h.loc), st.page, snap.Caps().SeeAllRecords, h.loc)
	st.page = p.Page
	return CasesView{
		Rows:       p.Items,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		Status:     st.query.Status,
		Search:     st.query.Search,
		Statuses:   Statuses,
		Error:      st.err,
	}
}

func knownStatus(s models.CaseStatus) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

/* =============================== Create ================================ */

// @Summary      Open add-case form
// @Description  Option lists load in parallel; a failing list comes back empty
// @Tags         cases
// @Produce      json
// @Param        cc_id  query  int  false  "Selected category"
// @Success      200  {object}  NewCaseView
// @Router       /cases/new [get]
func (h *Handler) NewCase(c *fiber.Ctx) error {
	snap := auth.Current(c)
	ref := loadRefData(c.UserContext(), h.auth.API(c), h.log)
	cc := parseID(c.Query("cc_id"))
	return c.JSON(NewCaseView{
		Form:       defaultCaseForm(snap.User),
		Clients:    ref.Clients,
		Categories: ref.Categories,
		Types:      TypesFor(ref.Types, cc),
		Lawyers:    lawyerOptions(snap.User, ref.Lawyers, cc),
	})
}

// @Summary      Add case
// @Tags         cases
// @Accept       json
// @Produce      json
// @Param        payload  body  NewCaseForm  true  "Case form"
// @Success      201  {object}  MutationResult
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      502  {object}  MutationResult
// @Router       /cases [post]
func (h *Handler) CreateCase(c *fiber.Ctx) error {
	snap := auth.Current(c)
	var in NewCaseForm
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.normalize(snap.User)
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs, msgCaseRequired)
	}

	notice := models.NewNotice(msgCaseAdding)
	created, err := h.auth.API(c).CreateCase(c.UserContext(), in.payload())
	if err != nil {
		h.log.Warn("create case failed", zap.Error(err))
		return c.Status(backend.HTTPStatus(err)).JSON(MutationResult{
			Form:   &in,
			Error:  msgCaseAddFailed,
			Notice: notice.Fail(msgCaseAddFailed),
		})
	}

	st := h.state(snap)
	st.mu.Lock()
	st.rows.Prepend(created)
	row := toRow(created, lawyerName(lawyerNames(st.rows.All()), created), snap.Caps().SeeAllRecords, h.loc)
	st.mu.Unlock()

	reset := defaultCaseForm(snap.User)
	return c.Status(fiber.StatusCreated).JSON(MutationResult{
		Row:    &row,
		Form:   &reset,
		Notice: notice.Succeed(msgCaseAdded),
	})
}

/* ================================ Edit ================================= */

// @Summary      Open edit-case modal
// @Description  Seeds the form and loads the option lists; closing the modal aborts the loads
// @Tags         cases
// @Produce      json
// @Param        id  path  int  true  "Case ID"
// @Success      200  {object}  EditCaseView
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /cases/{id}/edit [get]
func (h *Handler) OpenEdit(c *fiber.Ctx) error {
	snap := auth.Current(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid case id")
	}

	st := h.state(snap)
	st.mu.Lock()
	cs, ok := st.rows.Get(int64(id))
	edit := st.edit
	st.mu.Unlock()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, msgCaseMissing)
	}
	if cs.Status.Closed() {
		return fiber.NewError(fiber.StatusConflict, msgCaseClosed)
	}

	// Not under st.mu: a concurrent close must be able to abort the loads.
	edit.Open(c.UserContext(), h.auth.API(c), cs)
	return c.JSON(edit.View())
}

// @Summary      Change an edit-case field
// @Tags         cases
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Case ID"
// @Success      200  {object}  EditCaseView
// @Failure      409  {object}  models.ErrorResponse
// @Router       /cases/{id}/edit [patch]
func (h *Handler) SetEditField(c *fiber.Ctx) error {
	edit, err := h.openModal(c)
	if err != nil {
		return err
	}
	var in struct {
		Name  string `json:"name" form:"name"`
		Value string `json:"value" form:"value"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	switch err := edit.SetField(in.Name, utils.CopyString(in.Value)); {
	case errors.Is(err, ErrUnknownField):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotOpen):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return c.JSON(edit.View())
}

// @Summary      Submit edit-case modal
// @Description  Numeric check, then the unpaid-fee tag guard, then PUT upstream
// @Tags         cases
// @Produce      json
// @Param        id  path  int  true  "Case ID"
// @Success      200  {object}  MutationResult
// @Failure      400  {object}  MutationResult
// @Failure      409  {object}  models.ErrorResponse
// @Failure      502  {object}  MutationResult
// @Router       /cases/{id}/edit [post]
func (h *Handler) SubmitEdit(c *fiber.Ctx) error {
	snap := auth.Current(c)
	edit, err := h.openModal(c)
	if err != nil {
		return err
	}

	merged, err := edit.Submit()
	switch {
	case errors.Is(err, ErrNotOpen):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid):
		v := edit.View()
		return c.Status(fiber.StatusBadRequest).JSON(MutationResult{Edit: &v})
	case errors.Is(err, ErrTagLocked):
		v := edit.View()
		return c.Status(fiber.StatusBadRequest).JSON(MutationResult{
			Edit:   &v,
			Notice: models.ErrorNotice(msgTagLocked),
		})
	}

	notice := models.NewNotice(msgCaseUpdating)
	closed := edit.View()
	updated, err := h.auth.API(c).UpdateCase(c.UserContext(), merged, snap.UserID())
	if err != nil {
		h.log.Warn("update case failed", zap.Int64("case_id", merged.ID), zap.Error(err))
		return c.Status(backend.HTTPStatus(err)).JSON(MutationResult{
			Edit:   &closed,
			Notice: notice.Fail(msgCaseUpdFailed),
		})
	}
	if updated.ID == 0 {
		updated = merged
	}

	st := h.state(snap)
	st.mu.Lock()
	st.rows.UpdateByID(updated)
	row := toRow(updated, lawyerName(lawyerNames(st.rows.All()), updated), snap.Caps().SeeAllRecords, h.loc)
	st.mu.Unlock()

	return c.JSON(MutationResult{
		Row:    &row,
		Edit:   &closed,
		Notice: notice.Succeed(msgCaseUpdated),
	})
}

// @Summary      Close edit-case modal
// @Tags         cases
// @Param        id  path  int  true  "Case ID"
// @Success      204
// @Router       /cases/{id}/edit [delete]
func (h *Handler) CloseEdit(c *fiber.Ctx) error {
	st := h.state(auth.Current(c))
	st.edit.Close()
	return c.SendStatus(fiber.StatusNoContent)
}

// openModal returns the session's modal when it is open on the case in the path.
func (h *Handler) openModal(c *fiber.Ctx) (*EditCase, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid case id")
	}
	edit := h.state(auth.Current(c)).edit
	if edit.State() == EditClosed || edit.CaseID() != int64(id) {
		return nil, fiber.NewError(fiber.StatusConflict, ErrNotOpen.Error())
	}
	return edit, nil
}
