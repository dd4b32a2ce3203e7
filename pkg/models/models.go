package models

/* =============================== Enums ================================== */

// Role defines the type of user in the system.
type Role string

const (
	RoleParalegal   Role = "Paralegal"
	RoleStaff       Role = "Staff"
	RoleLawyer      Role = "Lawyer"
	RoleAdmin       Role = "Admin"
	RoleSuperLawyer Role = "SuperLawyer"
)

// Label is the name shown to users. Admins are presented as "Super Lawyer".
func (r Role) Label() string {
	if r == RoleAdmin {
		return "Super Lawyer"
	}
	return string(r)
}

// UserStatus defines the account state of a user.
type UserStatus string

const (
	UserActive    UserStatus = "Active"
	UserPending   UserStatus = "Pending"
	UserSuspended UserStatus = "Suspended"
)

// CaseStatus defines lifecycle states for a case.
type CaseStatus string

const (
	CasePending           CaseStatus = "Pending"
	CaseProcessing        CaseStatus = "Processing"
	CaseCompleted         CaseStatus = "Completed"
	CaseDismissed         CaseStatus = "Dismissed"
	CaseArchivedCompleted CaseStatus = "Archived (Completed)"
	CaseArchivedDismissed CaseStatus = "Archived (Dismissed)"
)

// Archived reports whether the status is one of the archived variants.
func (s CaseStatus) Archived() bool {
	return s == CaseArchivedCompleted || s == CaseArchivedDismissed
}

// Closed reports whether the case can no longer be edited.
func (s CaseStatus) Closed() bool {
	return s == CaseCompleted || s == CaseDismissed
}

// PaymentType defines how a payment was made.
type PaymentType string

const (
	PaymentCash   PaymentType = "Cash"
	PaymentCheque PaymentType = "Cheque"
)

/* =============================== Entities =============================== */

// User is a firm member as returned by the users and verify endpoints.
type User struct {
	ID            int64      `json:"user_id"`
	FirstName     string     `json:"user_fname"`
	MiddleName    string     `json:"user_mname"`
	LastName      string     `json:"user_lname"`
	Email         string     `json:"user_email"`
	Phone         string     `json:"user_phonenum"`
	Role          Role       `json:"user_role"`
	BranchID      int64      `json:"branch_id"`
	Profile       string     `json:"user_profile"`
	Status        UserStatus `json:"user_status"`
	DateCreated   string     `json:"user_date_created,omitempty"`
	LastUpdatedBy *int64     `json:"user_last_updated_by,omitempty"`
}

// Branch is read-only reference data.
type Branch struct {
	ID   int64  `json:"branch_id"`
	Name string `json:"branch_name"`
}

// Client is the owner of a case.
type Client struct {
	ID       int64  `json:"client_id"`
	FullName string `json:"client_fullname"`
}

// CaseCategory is the top level of the case classification.
type CaseCategory struct {
	ID   int64  `json:"cc_id"`
	Name string `json:"cc_name"`
}

// CaseCategoryType belongs to exactly one category.
type CaseCategoryType struct {
	ID         int64  `json:"ct_id"`
	Name       string `json:"ct_name"`
	CategoryID int64  `json:"cc_id"`
}

// LawyerSpecialization pairs a lawyer with a category they handle.
type LawyerSpecialization struct {
	UserID     int64  `json:"user_id"`
	FirstName  string `json:"user_fname"`
	MiddleName string `json:"user_mname"`
	LastName   string `json:"user_lname"`
	CategoryID int64  `json:"cc_id"`
}

// Payment is a recorded settlement of a case balance.
type Payment struct {
	ID             int64       `json:"payment_id"`
	CaseID         int64       `json:"case_id"`
	UserID         int64       `json:"user_id"`
	Amount         Money       `json:"payment_amount"`
	Date           string      `json:"payment_date"`
	Type           PaymentType `json:"payment_type"`
	ChequeName     string      `json:"cheque_name,omitempty"`
	ChequeNumber   string      `json:"cheque_number,omitempty"`
	ChequeBranch   string      `json:"cheque_branch,omitempty"`
	ChequeLocation string      `json:"cheque_location,omitempty"`

	// Joined display columns
	ClientFullName string `json:"client_fullname"`
	TypeName       string `json:"ct_name"`
	UserFirstName  string `json:"user_fname"`
	UserMiddleName string `json:"user_mname"`
	UserLastName   string `json:"user_lname"`
}

// UserLog is one entry of the activity feed.
type UserLog struct {
	ID       int64  `json:"user_log_id"`
	FullName string `json:"user_fullname"`
	Profile  string `json:"user_profile"`
	Action   string `json:"user_log_action"`
	Time     string `json:"user_log_time"`
}

// LawyerCaseCount is a lawyer recommendation row shown to staff.
type LawyerCaseCount struct {
	UserID          int64  `json:"user_id"`
	FirstName       string `json:"user_fname"`
	MiddleName      string `json:"user_mname"`
	LastName        string `json:"user_lname"`
	Role            string `json:"user_role"`
	Profile         string `json:"user_profile"`
	Specializations string `json:"specializations,omitempty"`
	TotalCases      Count  `json:"total_cases"`
	CompletedCases  Count  `json:"completed_cases"`
	DismissedCases  Count  `json:"dismissed_cases"`
}
