package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/internal/viewstate"
	"github.com/aldoetobex/legal-case-console/pkg/format"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/paging"
	"github.com/aldoetobex/legal-case-console/pkg/store"
)

const (
	msgPaymentsFailed = "Failed to fetch payments. Please try again later."
	msgPaymentAdding  = "Adding payment..."
	msgPaymentAdded   = "Payment added successfully!"
	msgPaymentFailed  = "Failed to add payment"
	msgDeleting       = "Deleting payment..."
	msgDeleted        = "Payment deleted successfully!"
	msgDeleteFailed   = "Failed to delete payment."
	msgDeleteBanner   = "Failed to delete payment. Please try again later."
	msgDeleteConfirm  = "Are you sure you want to delete payment ID %d? This action cannot be undone."
	msgPickCase       = "Select a case to see fee / balance."
	msgCaseFee        = "Total Case Fee: %s"
)

// Options carries display settings for the payments page.
type Options struct {
	Location *time.Location
	IdleTTL  time.Duration
}

// Handler serves the payments table and the add-payment modal.
type Handler struct {
	auth  *auth.Service
	log   *zap.Logger
	loc   *time.Location
	pages *viewstate.Registry[pageState]
}

type pageState struct {
	mu        sync.Mutex
	payments  *store.List[models.Payment]
	cases     []models.Case
	loaded    bool
	loadedFor int64
	query     Query
	page      int
	err       string
	form      *PaymentForm
}

func NewHandler(svc *auth.Service, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{
		auth: svc,
		log:  log,
		loc:  opts.Location,
		pages: viewstate.New(opts.IdleTTL, func() *pageState {
			return &pageState{
				payments: store.NewList(func(p models.Payment) int64 { return p.ID }),
				cases:    []models.Case{},
				query:    Query{Type: FilterAll},
				page:     1,
			}
		}),
	}
}

// Stores exposes the per-session state for logout and idle sweeping.
func (h *Handler) Stores() []viewstate.Store {
	return []viewstate.Store{h.pages}
}

/* ================================ DTOs ================================= */

// PaymentsView is the table as the browser should render it.
type PaymentsView struct {
	Rows       []PaymentRow `json:"rows"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	Total      int          `json:"total"`
	Type       string       `json:"type"`
	Search     string       `json:"search"`
	Types      []string     `json:"types"`
	ShowCheque bool         `json:"show_cheque"`
	Error      string       `json:"error,omitempty"`
}

// CaseOption is a case that can still receive a payment.
type CaseOption struct {
	ID      int64  `json:"case_id"`
	Client  string `json:"client_fullname"`
	Type    string `json:"ct_name"`
	Balance string `json:"balance"`
}

// AddPaymentView is the add-payment modal.
type AddPaymentView struct {
	Open        bool           `json:"open"`
	Form        PaymentForm    `json:"form"`
	Cases       []CaseOption   `json:"cases"`
	BalanceHint string         `json:"balance_hint"`
	ShowCheque  bool           `json:"show_cheque"`
	Banks       []string       `json:"banks"`
	Locations   []string       `json:"locations"`
	Error       string         `json:"error,omitempty"`
	Notice      *models.Notice `json:"notice,omitempty"`
}

// MutationResult answers add and delete calls.
type MutationResult struct {
	Row     *PaymentRow    `json:"row,omitempty"`
	Confirm string         `json:"confirm,omitempty"`
	Error   string         `json:"error,omitempty"`
	Notice  *models.Notice `json:"notice,omitempty"`
}

/* =============================== Loading =============================== */

// load fetches eligible cases and the payment history side by side. The two
// never affect each other: a failing case list only empties the picker.
func (h *Handler) load(c *fiber.Ctx, snap auth.Snapshot, st *pageState) {
	api := h.auth.API(c)
	ctx := c.UserContext()
	all := snap.Caps().SeeAllRecords

	var (
		cases    []models.Case
		payments []models.Payment
		casesErr error
		payErr   error
		g        errgroup.Group
	)
	g.Go(func() error {
		cases, casesErr = h.fetchCases(ctx, api, all, snap.UserID())
		return nil
	})
	g.Go(func() error {
		if all {
			payments, payErr = api.Payments(ctx)
		} else {
			payments, payErr = api.PaymentsByLawyer(ctx, snap.UserID())
		}
		return nil
	})
	_ = g.Wait()

	st.loadedFor = snap.UserID()
	if casesErr != nil {
		h.log.Warn("load payable cases failed", zap.Error(casesErr))
		st.cases = []models.Case{}
	} else {
		st.cases = Eligible(cases)
	}
	if payErr != nil {
		h.log.Warn("load payments failed", zap.Error(payErr))
		st.err = msgPaymentsFailed
		return
	}
	st.payments.Replace(payments)
	st.loaded = true
	st.err = ""
	st.page = 1
}

func (h *Handler) fetchCases(ctx context.Context, api *backend.Session, all bool, userID int64) ([]models.Case, error) {
	if all {
		return api.Cases(ctx)
	}
	return api.CasesByUser(ctx, userID)
}

func (h *Handler) view(st *pageState) PaymentsView {
	showCheque := st.query.Type == string(models.PaymentCheque)
	p := Render(Filter(st.payments.All(), st.query, h.loc), st.page, showCheque, h.loc)
	st.page = p.Page
	return PaymentsView{
		Rows:       p.Items,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		Type:       st.query.Type,
		Search:     st.query.Search,
		Types:      TypeFilters,
		ShowCheque: showCheque,
		Error:      st.err,
	}
}

func (h *Handler) modal(st *pageState) AddPaymentView {
	v := AddPaymentView{
		Open:        st.form != nil,
		Cases:       make([]CaseOption, 0, len(st.cases)),
		BalanceHint: msgPickCase,
		Banks:       BankOptions,
		Locations:   LocationOptions,
	}
	for _, c := range st.cases {
		v.Cases = append(v.Cases, CaseOption{ID: c.ID, Client: c.ClientFullName, Type: c.TypeName, Balance: format.Currency(c.Balance)})
	}
	if st.form != nil {
		v.Form = *st.form
		v.ShowCheque = st.form.Type == string(models.PaymentCheque)
		for _, c := range st.cases {
			if fmt.Sprint(c.ID) == st.form.CaseID {
				v.BalanceHint = fmt.Sprintf(msgCaseFee, format.Currency(c.Balance))
			}
		}
	}
	return v
}

func (h *Handler) state(c *fiber.Ctx, snap auth.Snapshot, refresh bool) *pageState {
	st := h.pages.Get(snap.SessionID)
	st.mu.Lock()
	if !st.loaded || st.loadedFor != snap.UserID() || refresh {
		h.load(c, snap, st)
	}
	return st
}

/* ================================ Table ================================ */

// @Summary      List payments
// @Description  Admins see every payment, others the payments they processed
// @Tags         payments
// @Produce      json
// @Param        search   query  string  false  "Search text"
// @Param        type     query  string  false  "All, Cash or Cheque"
// @Param        page     query  int     false  "Page number"
// @Param        refresh  query  bool    false  "Refetch from upstream"
// @Success      200  {object}  PaymentsView
// @Router       /payments [get]
func (h *Handler) List(c *fiber.Ctx) error {
	snap := auth.Current(c)
	st := h.state(c, snap, c.QueryBool("refresh"))
	defer st.mu.Unlock()

	args := c.Context().QueryArgs()
	if args.Has("type") {
		t := c.Query("type", FilterAll)
		if t == "" {
			t = FilterAll
		}
		if !validFilter(t) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown payment type")
		}
		if t != st.query.Type {
			st.query.Type = utils.CopyString(t)
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
	return c.JSON(h.view(st))
}

func validFilter(t string) bool {
	for _, v := range TypeFilters {
		if v == t {
			return true
		}
	}
	return false
}

/* ================================= Add ================================= */

// @Summary      Open add-payment modal
// @Tags         payments
// @Produce      json
// @Success      200  {object}  AddPaymentView
// @Router       /payments/new [get]
func (h *Handler) NewPayment(c *fiber.Ctx) error {
	snap := auth.Current(c)
	st := h.state(c, snap, false)
	defer st.mu.Unlock()
	if st.form == nil {
		st.form = &PaymentForm{}
	}
	return c.JSON(h.modal(st))
}

// @Summary      Change an add-payment field
// @Description  Changing the payment type clears the cheque details
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  AddPaymentView
// @Failure      409  {object}  models.ErrorResponse
// @Router       /payments/new [patch]
func (h *Handler) SetField(c *fiber.Ctx) error {
	var in struct {
		Name  string `json:"name" form:"name"`
		Value string `json:"value" form:"value"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	snap := auth.Current(c)
	st := h.state(c, snap, false)
	defer st.mu.Unlock()
	if st.form == nil {
		return fiber.NewError(fiber.StatusConflict, "add payment modal is not open")
	}
	if err := st.form.SetField(in.Name, utils.CopyString(in.Value)); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(h.modal(st))
}

// @Summary      Close add-payment modal
// @Tags         payments
// @Success      204
// @Router       /payments/new [delete]
func (h *Handler) ClosePayment(c *fiber.Ctx) error {
	if st, ok := h.pages.Peek(auth.Current(c).SessionID); ok {
		st.mu.Lock()
		st.form = nil
		st.mu.Unlock()
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// @Summary      Add payment
// @Description  Submits the open modal, or the form in the body. The amount must equal the case balance
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        payload  body  PaymentForm  false  "Full form"
// @Success      201  {object}  MutationResult
// @Failure      400  {object}  MutationResult
// @Failure      502  {object}  MutationResult
// @Router       /payments [post]
func (h *Handler) CreatePayment(c *fiber.Ctx) error {
	snap := auth.Current(c)
	var body *PaymentForm
	if len(c.Body()) > 0 {
		body = &PaymentForm{}
		if err := c.BodyParser(body); err != nil {
			return fiber.ErrBadRequest
		}
	}

	st := h.state(c, snap, false)
	defer st.mu.Unlock()
	if body != nil {
		st.form = body.detach()
	}
	if st.form == nil {
		st.form = &PaymentForm{}
	}

	st.err = ""
	in, msg := st.form.Check(snap.UserID(), st.cases)
	if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(MutationResult{Error: msg, Notice: models.ErrorNotice(msg)})
	}

	notice := models.NewNotice(msgPaymentAdding)
	created, err := h.auth.API(c).CreatePayment(c.UserContext(), in)
	if err != nil {
		h.log.Warn("create payment failed", zap.Int64("case_id", in.CaseID), zap.Error(err))
		msg := backend.Message(err, msgPaymentFailed)
		return c.Status(backend.HTTPStatus(err)).JSON(MutationResult{Error: msg, Notice: notice.Fail(msg)})
	}

	st.payments.Append(created)
	st.cases = settle(st.cases, in.CaseID)
	st.form = nil
	row := toRow(created, st.query.Type == string(models.PaymentCheque), h.loc)
	return c.Status(fiber.StatusCreated).JSON(MutationResult{Row: &row, Notice: notice.Succeed(msgPaymentAdded)})
}

/* =============================== Delete ================================ */

// @Summary      Delete payment
// @Description  Needs confirm=true; the row is removed only after upstream confirms
// @Tags         payments
// @Produce      json
// @Param        id       path   int   true   "Payment ID"
// @Param        confirm  query  bool  false  "Confirmation"
// @Success      200  {object}  MutationResult
// @Failure      404  {object}  models.ErrorResponse
// @Failure      428  {object}  MutationResult
// @Failure      502  {object}  MutationResult
// @Router       /payments/{id} [delete]
func (h *Handler) DeletePayment(c *fiber.Ctx) error {
	snap := auth.Current(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	st := h.state(c, snap, false)
	defer st.mu.Unlock()
	if _, ok := st.payments.Get(int64(id)); !ok {
		return fiber.NewError(fiber.StatusNotFound, "Payment not found")
	}
	if !c.QueryBool("confirm") {
		return c.Status(fiber.StatusPreconditionRequired).JSON(MutationResult{
			Confirm: fmt.Sprintf(msgDeleteConfirm, id),
		})
	}

	st.err = ""
	notice := models.NewNotice(msgDeleting)
	if err := h.auth.API(c).DeletePayment(c.UserContext(), int64(id)); err != nil {
		h.log.Warn("delete payment failed", zap.Int("payment_id", id), zap.Error(err))
		st.err = msgDeleteBanner
		return c.Status(backend.HTTPStatus(err)).JSON(MutationResult{
			Error:  msgDeleteBanner,
			Notice: notice.Fail(msgDeleteFailed),
		})
	}
	st.payments.RemoveByID(int64(id))
	return c.JSON(MutationResult{Notice: notice.Succeed(msgDeleted)})
}

// settle drops a case from the picker once its balance has been paid.
func settle(cases []models.Case, id int64) []models.Case {
	out := cases[:0:0]
	for _, c := range cases {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// detach copies a parsed body out of the request buffers so the draft can
// outlive the request.
func (f *PaymentForm) detach() *PaymentForm {
	return &PaymentForm{
		CaseID:         utils.CopyString(f.CaseID),
		Amount:         utils.CopyString(f.Amount),
		Type:           utils.CopyString(f.Type),
		ChequeName:     utils.CopyString(f.ChequeName),
		ChequeNumber:   utils.CopyString(f.ChequeNumber),
		ChequeBranch:   utils.CopyString(f.ChequeBranch),
		ChequeLocation: utils.CopyString(f.ChequeLocation),
	}
}
