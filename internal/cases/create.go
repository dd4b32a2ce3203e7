package cases

import (
	"strconv"
	"strings"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/sanitize"
)

const (
	msgCaseAdding    = "Adding new case..."
	msgCaseAdded     = "New case added successfully!"
	msgCaseAddFailed = "Failed to add case. Please try again."
	msgCaseUpdating  = "Updating case..."
	msgCaseUpdated   = "Case updated successfully!"
	msgCaseUpdFailed = "Failed to update case."
	msgCaseRequired  = "Please fill in all required fields."
)

// NewCaseForm is the add-case form. Tags are the candidate list picked in
// the form; the first one becomes the active tag.
type NewCaseForm struct {
	ClientID   string       `json:"client_id" validate:"required,digits"`
	CategoryID string       `json:"cc_id" validate:"required,digits"`
	TypeID     string       `json:"ct_id" validate:"required,digits"`
	LawyerID   string       `json:"user_id" validate:"omitempty,digits"`
	AssignedBy string       `json:"assigned_by" validate:"omitempty,digits"`
	Cabinet    string       `json:"case_cabinet" validate:"omitempty,digits"`
	Drawer     string       `json:"case_drawer" validate:"omitempty,digits"`
	Fee        string       `json:"case_fee" validate:"omitempty,numeric"`
	Remarks    string       `json:"case_remarks"`
	Status     string       `json:"case_status"`
	Tags       []models.Tag `json:"case_tags"`
}

// defaultCaseForm seeds the form for the actor: a lawyer-assigning role starts
// unassigned and is recorded as the assigner, anyone else is their own lawyer.
func defaultCaseForm(actor models.User) NewCaseForm {
	f := NewCaseForm{Tags: []models.Tag{}}
	if auth.CapabilitiesFor(actor.Role).AssignAnyLawyer {
		f.AssignedBy = idString(actor.ID)
	} else {
		f.LawyerID = idString(actor.ID)
	}
	return f
}

// normalize cleans free text and pins the role-owned fields.
func (f *NewCaseForm) normalize(actor models.User) {
	f.ClientID = strings.TrimSpace(f.ClientID)
	f.CategoryID = strings.TrimSpace(f.CategoryID)
	f.TypeID = strings.TrimSpace(f.TypeID)
	f.LawyerID = strings.TrimSpace(f.LawyerID)
	f.Cabinet = strings.TrimSpace(f.Cabinet)
	f.Drawer = strings.TrimSpace(f.Drawer)
	f.Fee = strings.TrimSpace(f.Fee)
	f.Remarks = sanitize.Text(f.Remarks)
	if f.Tags == nil {
		f.Tags = []models.Tag{}
	}

	if auth.CapabilitiesFor(actor.Role).AssignAnyLawyer {
		f.AssignedBy = idString(actor.ID)
	} else {
		f.LawyerID = idString(actor.ID)
		f.AssignedBy = ""
	}
}

// newCasePayload is the POST /api/cases body. Ids are numbers or null, the
// fee is a float, and both tag columns travel as JSON strings. Without a tag
// case_tag is left out.
type newCasePayload struct {
	ClientID   *int64   `json:"client_id"`
	CategoryID *int64   `json:"cc_id"`
	TypeID     *int64   `json:"ct_id"`
	LawyerID   *int64   `json:"user_id"`
	AssignedBy *int64   `json:"assigned_by"`
	Cabinet    string   `json:"case_cabinet"`
	Drawer     string   `json:"case_drawer"`
	Fee        *float64 `json:"case_fee"`
	Remarks    string   `json:"case_remarks"`
	Status     string   `json:"case_status"`
	TagList    string   `json:"case_tag_list"`
	Tag        *string  `json:"case_tag,omitempty"`
}

func (f NewCaseForm) payload() newCasePayload {
	p := newCasePayload{
		ClientID:   optID(f.ClientID),
		CategoryID: optID(f.CategoryID),
		TypeID:     optID(f.TypeID),
		LawyerID:   optID(f.LawyerID),
		AssignedBy: optID(f.AssignedBy),
		Cabinet:    f.Cabinet,
		Drawer:     f.Drawer,
		Remarks:    f.Remarks,
		Status:     f.Status,
		TagList:    models.EncodeTagList(f.Tags),
	}
	if fee, err := strconv.ParseFloat(f.Fee, 64); err == nil {
		p.Fee = &fee
	}
	if len(f.Tags) > 0 {
		first := models.EncodeTag(f.Tags[0])
		p.Tag = &first
	}
	return p
}
