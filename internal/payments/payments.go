// Package payments serves the payment history table and the add-payment modal.
package payments

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/pkg/format"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/paging"
)

const (
	msgSelectCase     = "Please select a case."
	msgSelectType     = "Please select a payment type."
	msgInvalidAmount  = "Enter a valid payment amount."
	msgNoBalance      = "Unable to validate case balance."
	msgExactAmount    = "Payment must be exactly %s."
	msgChequeName     = "Cheque name is required for cheque payments."
	msgChequeNumber   = "Cheque number is required for cheque payments."
	msgChequeBranch   = "Cheque branch is required for cheque payments."
	msgChequeLocation = "Cheque branch location is required for cheque payments."
)

// Bank branches offered for cheque payments.
var BankOptions = []string{
	"BDO", "BPI", "Metrobank", "Landbank", "PNB", "Security Bank",
	"RCBC", "China Bank", "UnionBank", "EastWest Bank",
}

// Branch locations offered for cheque payments.
var LocationOptions = []string{
	"Robinson Galleria", "SM City Cebu", "SM Seaside", "Talisay", "Tabunok",
	"Tabada", "Pardo", "Carcar City", "Naga", "Minglanilla", "Danao City",
	"Catmon Cebu", "Barili", "Dumanjug", "San Fernando", "Fuente Osmeña",
	"Jones Avenue", "Lahug Cebu City", "IT Park", "Ayala Center Cebu", "Emall",
	"Escario", "Banilad Cebu City", "Talamban Cebu", "Mandaue City",
	"Subangdaku Mandaue", "Lapulapu City", "Ompad Mandaue", "Colon Cebu City",
}

// TypeFilter values; "All" matches every payment.
const FilterAll = "All"

var TypeFilters = []string{FilterAll, string(models.PaymentCash), string(models.PaymentCheque)}

/* =============================== Filter ================================ */

// Query is the filter state of the payments table.
type Query struct {
	Type   string
	Search string
}

// Filter keeps payments of the selected type whose id, client, case id, case
// type, payment type or formatted date contains the search text.
func Filter(rows []models.Payment, q Query, loc *time.Location) []models.Payment {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := []models.Payment{}
	for _, p := range rows {
		if q.Type != "" && q.Type != FilterAll && string(p.Type) != q.Type {
			continue
		}
		if needle != "" && !matches(p, needle, loc) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p models.Payment, needle string, loc *time.Location) bool {
	for _, f := range []string{
		strconv.FormatInt(p.ID, 10),
		p.ClientFullName,
		strconv.FormatInt(p.CaseID, 10),
		p.TypeName,
		string(p.Type),
		format.DateTime(p.Date, loc),
	} {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// PaymentRow is one rendered table row. Cheque columns are only filled when
// the table is filtered to cheques.
type PaymentRow struct {
	ID             int64              `json:"payment_id"`
	CaseID         int64              `json:"case_id"`
	Client         string             `json:"client_fullname"`
	CaseType       string             `json:"ct_name"`
	Type           models.PaymentType `json:"payment_type"`
	Amount         string             `json:"amount"`
	Date           string             `json:"date"`
	ProcessedBy    string             `json:"processed_by"`
	ChequeName     string             `json:"cheque_name,omitempty"`
	ChequeNumber   string             `json:"cheque_number,omitempty"`
	ChequeBranch   string             `json:"cheque_branch,omitempty"`
	ChequeLocation string             `json:"cheque_location,omitempty"`
}

// Render pages the filtered payments.
func Render(filtered []models.Payment, page int, showCheque bool, loc *time.Location) paging.Page[PaymentRow] {
	p := paging.Slice(filtered, page)
	rows := make([]PaymentRow, 0, len(p.Items))
	for _, it := range p.Items {
		rows = append(rows, toRow(it, showCheque, loc))
	}
	return paging.Page[PaymentRow]{Items: rows, Page: p.Page, TotalPages: p.TotalPages, Total: p.Total}
}

func toRow(p models.Payment, showCheque bool, loc *time.Location) PaymentRow {
	r := PaymentRow{
		ID:          p.ID,
		CaseID:      p.CaseID,
		Client:      p.ClientFullName,
		CaseType:    p.TypeName,
		Type:        p.Type,
		Amount:      format.Currency(p.Amount),
		Date:        format.DateTime(p.Date, loc),
		ProcessedBy: format.FullName(p.UserFirstName, p.UserMiddleName, p.UserLastName),
	}
	if showCheque {
		r.ChequeName = p.ChequeName
		r.ChequeNumber = p.ChequeNumber
		r.ChequeBranch = p.ChequeBranch
		r.ChequeLocation = p.ChequeLocation
	}
	return r
}

// Eligible keeps the cases that still have a balance to settle.
func Eligible(cases []models.Case) []models.Case {
	out := []models.Case{}
	for _, c := range cases {
		if c.Balance > 0 {
			out = append(out, c)
		}
	}
	return out
}

/* ================================ Form ================================= */

// PaymentForm is the add-payment modal. Values are kept as typed.
type PaymentForm struct {
	CaseID         string `json:"case_id" form:"case_id"`
	Amount         string `json:"payment_amount" form:"payment_amount"`
	Type           string `json:"payment_type" form:"payment_type"`
	ChequeName     string `json:"cheque_name" form:"cheque_name"`
	ChequeNumber   string `json:"cheque_number" form:"cheque_number"`
	ChequeBranch   string `json:"cheque_branch" form:"cheque_branch"`
	ChequeLocation string `json:"cheque_location" form:"cheque_location"`
}

var ErrUnknownField = errors.New("field is not editable")

// SetField applies one input change. Changing the payment type clears the
// cheque details.
func (f *PaymentForm) SetField(name, value string) error {
	switch name {
	case "case_id":
		f.CaseID = value
	case "payment_amount":
		f.Amount = value
	case "payment_type":
		if value != f.Type {
			f.ChequeName, f.ChequeNumber, f.ChequeBranch, f.ChequeLocation = "", "", "", ""
		}
		f.Type = value
	case "cheque_name":
		f.ChequeName = value
	case "cheque_number":
		f.ChequeNumber = value
	case "cheque_branch":
		f.ChequeBranch = value
	case "cheque_location":
		f.ChequeLocation = value
	default:
		return ErrUnknownField
	}
	return nil
}

// Check validates the form against the eligible cases and builds the upstream
// body. The first failing rule is returned as a user-facing message.
func (f PaymentForm) Check(userID int64, cases []models.Case) (backend.PaymentInput, string) {
	caseID, err := strconv.ParseInt(strings.TrimSpace(f.CaseID), 10, 64)
	if err != nil || caseID <= 0 {
		return backend.PaymentInput{}, msgSelectCase
	}
	typ := models.PaymentType(strings.TrimSpace(f.Type))
	if typ != models.PaymentCash && typ != models.PaymentCheque {
		return backend.PaymentInput{}, msgSelectType
	}

	// A sub-centavo amount is well formed but can never match a balance.
	amount, err := models.ParseMoney(f.Amount)
	exact := err == nil
	if errors.Is(err, models.ErrSubCentavo) {
		err = nil
	}
	if err != nil || amount < 0 || (exact && amount == 0) {
		return backend.PaymentInput{}, msgInvalidAmount
	}

	var balance *models.Money
	for _, c := range cases {
		if c.ID == caseID {
			b := c.Balance
			balance = &b
			break
		}
	}
	if balance == nil {
		return backend.PaymentInput{}, msgNoBalance
	}
	if !exact || amount != *balance {
		return backend.PaymentInput{}, fmt.Sprintf(msgExactAmount, format.Currency(*balance))
	}

	in := backend.PaymentInput{
		CaseID: caseID,
		UserID: userID,
		Amount: amount.String(),
		Type:   typ,
	}
	if typ != models.PaymentCheque {
		return in, ""
	}

	name := strings.TrimSpace(f.ChequeName)
	number := strings.TrimSpace(f.ChequeNumber)
	branch := strings.TrimSpace(f.ChequeBranch)
	location := strings.TrimSpace(f.ChequeLocation)
	switch {
	case name == "":
		return backend.PaymentInput{}, msgChequeName
	case number == "":
		return backend.PaymentInput{}, msgChequeNumber
	case branch == "":
		return backend.PaymentInput{}, msgChequeBranch
	case location == "":
		return backend.PaymentInput{}, msgChequeLocation
	}
	in.CheckName, in.ChequeName = name, name
	in.CheckNumber, in.ChequeNumber = number, number
	in.ChequeBranch = branch
	in.ChequeLocation = location
	return in, ""
}
