package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aldoetobex/legal-case-console/pkg/models"
)

// ErrNoUser is returned by Verify when the API answered 2xx without a user.
var ErrNoUser = errors.New("verify returned no user")

/* ================================ Session ================================ */

// Verify resolves the user behind the forwarded session cookie.
func (s *Session) Verify(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := s.get(ctx, "/api/verify", &out); err != nil {
		return nil, err
	}
	if out.User == nil || out.User.ID == 0 {
		return nil, ErrNoUser
	}
	return out.User, nil
}

/* ================================= Users ================================= */

func (s *Session) Branches(ctx context.Context) ([]models.Branch, error) {
	out := []models.Branch{}
	if err := s.get(ctx, "/api/branches", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser posts a multipart user form.
func (s *Session) CreateUser(ctx context.Context, form *Form) error {
	return s.sendForm(ctx, http.MethodPost, "/api/users", form, nil)
}

// UpdateUserForm sends a multipart profile update (used when an image is attached).
func (s *Session) UpdateUserForm(ctx context.Context, id int64, form *Form) error {
	return s.sendForm(ctx, http.MethodPut, "/api/users/"+itoa(id), form, nil)
}

// UpdateUserJSON sends a JSON profile update.
func (s *Session) UpdateUserJSON(ctx context.Context, id int64, body any) error {
	return s.sendJSON(ctx, http.MethodPut, "/api/users/"+itoa(id), body, nil)
}

/* ============================ Case reference data ============================ */

func (s *Session) Clients(ctx context.Context) ([]models.Client, error) {
	out := []models.Client{}
	if err := s.get(ctx, "/api/clients", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) CaseCategories(ctx context.Context) ([]models.CaseCategory, error) {
	out := []models.CaseCategory{}
	if err := s.get(ctx, "/api/case-categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) CaseCategoryTypes(ctx context.Context) ([]models.CaseCategoryType, error) {
	out := []models.CaseCategoryType{}
	if err := s.get(ctx, "/api/case-category-types", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) LawyerSpecializations(ctx context.Context) ([]models.LawyerSpecialization, error) {
	out := []models.LawyerSpecialization{}
	if err := s.get(ctx, "/api/lawyer-specializations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* ================================= Cases ================================= */

// Cases lists every case (admin scope).
func (s *Session) Cases(ctx context.Context) ([]models.Case, error) {
	out := []models.Case{}
	if err := s.get(ctx, "/api/cases", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CasesByUser lists the cases assigned to one user.
func (s *Session) CasesByUser(ctx context.Context, userID int64) ([]models.Case, error) {
	out := []models.Case{}
	if err := s.get(ctx, "/api/cases/user/"+itoa(userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCase posts a new case and returns the server's record.
func (s *Session) CreateCase(ctx context.Context, payload any) (models.Case, error) {
	var out models.Case
	err := s.sendJSON(ctx, http.MethodPost, "/api/cases", payload, &out)
	return out, err
}

// UpdateCase PUTs the full record and returns the server's copy.
func (s *Session) UpdateCase(ctx context.Context, c models.Case, updatedBy int64) (models.Case, error) {
	c.LastUpdatedBy = &updatedBy
	var out models.Case
	err := s.sendJSON(ctx, http.MethodPut, "/api/cases/"+itoa(c.ID), c, &out)
	return out, err
}

/* =============================== Dashboard =============================== */

func (s *Session) count(ctx context.Context, path string) (int64, error) {
	var out struct {
		Count json.RawMessage `json:"count"`
	}
	if err := s.get(ctx, path, &out); err != nil {
		return 0, err
	}
	n, err := flexInt(out.Count)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return n, nil
}

func (s *Session) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, "/api/users/count")
}

func (s *Session) CountClients(ctx context.Context) (int64, error) {
	return s.count(ctx, "/api/clients/count")
}

// CountProcessingCases is firm-wide when userID is nil.
func (s *Session) CountProcessingCases(ctx context.Context, userID *int64) (int64, error) {
	return s.count(ctx, "/api/cases/count/processing"+userSuffix(userID))
}

// CountArchivedCases is firm-wide when userID is nil.
func (s *Session) CountArchivedCases(ctx context.Context, userID *int64) (int64, error) {
	return s.count(ctx, "/api/cases/count/archived"+userSuffix(userID))
}

func (s *Session) CountDocsForApproval(ctx context.Context) (int64, error) {
	return s.count(ctx, "/api/documents/count/for-approval")
}

// CountProcessingDocs uses the lawyer-scoped variant when lawyer is true.
func (s *Session) CountProcessingDocs(ctx context.Context, lawyer bool) (int64, error) {
	if lawyer {
		return s.count(ctx, "/api/documents/count/processing/lawyer")
	}
	return s.count(ctx, "/api/documents/count/processing")
}

// CountPendingTasks is global when userID is nil.
func (s *Session) CountPendingTasks(ctx context.Context, userID *int64) (int64, error) {
	if userID == nil {
		return s.count(ctx, "/api/documents/count/pending-tasks")
	}
	return s.count(ctx, "/api/documents/count/pending-tasks/"+itoa(*userID))
}

// UserLogs lists the activity feed, all users when userID is nil.
func (s *Session) UserLogs(ctx context.Context, userID *int64) ([]models.UserLog, error) {
	path := "/api/user-logs"
	if userID != nil {
		path += "/" + itoa(*userID)
	}
	out := []models.UserLog{}
	if err := s.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CaseCountsByCategory returns the chart buckets keyed by snake_case category.
func (s *Session) CaseCountsByCategory(ctx context.Context) (map[string]int64, error) {
	var raw map[string]json.RawMessage
	if err := s.get(ctx, "/api/reports/case-counts-by-category", &raw); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		// unreadable buckets count as zero
		n, _ := flexInt(v)
		out[k] = n
	}
	return out, nil
}

func (s *Session) LawyersWithCaseCounts(ctx context.Context) ([]models.LawyerCaseCount, error) {
	out := []models.LawyerCaseCount{}
	if err := s.get(ctx, "/api/lawyers-with-case-counts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* ================================ Payments ================================ */

// PaymentInput is the create-payment body. Cheque payloads carry both the
// check_* and cheque_* spellings of name and number.
type PaymentInput struct {
	CaseID         int64              `json:"case_id"`
	UserID         int64              `json:"user_id"`
	Amount         string             `json:"payment_amount"`
	Type           models.PaymentType `json:"payment_type"`
	CheckName      string             `json:"check_name,omitempty"`
	CheckNumber    string             `json:"check_number,omitempty"`
	ChequeName     string             `json:"cheque_name,omitempty"`
	ChequeNumber   string             `json:"cheque_number,omitempty"`
	ChequeBranch   string             `json:"cheque_branch,omitempty"`
	ChequeLocation string             `json:"cheque_location,omitempty"`
}

func (s *Session) Payments(ctx context.Context) ([]models.Payment, error) {
	out := []models.Payment{}
	if err := s.get(ctx, "/api/payments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentsByLawyer lists payments processed by one user.
func (s *Session) PaymentsByLawyer(ctx context.Context, userID int64) ([]models.Payment, error) {
	out := []models.Payment{}
	if err := s.get(ctx, "/api/payments/lawyer/"+itoa(userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) CreatePayment(ctx context.Context, in PaymentInput) (models.Payment, error) {
	var out models.Payment
	err := s.sendJSON(ctx, http.MethodPost, "/api/payments", in, &out)
	return out, err
}

func (s *Session) DeletePayment(ctx context.Context, id int64) error {
	return s.do(ctx, http.MethodDelete, "/api/payments/"+itoa(id), nil, "", nil)
}

/* ================================ Helpers ================================ */

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func userSuffix(userID *int64) string {
	if userID == nil {
		return ""
	}
	return "/user/" + itoa(*userID)
}

// flexInt reads a count that may arrive as a number, a numeric string or null.
func flexInt(raw json.RawMessage) (int64, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return 0, nil
	}
	var n models.Count
	err := json.Unmarshal(raw, &n)
	return int64(n), err
}
