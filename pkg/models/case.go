package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Tag is a label attached to a case, drawn from the case's own candidate list.
type Tag struct {
	ID   int64  `json:"ctag_id"`
	Name string `json:"ctag_name"`
}

// TagSet is the ordered candidate list of a case plus the id of the active tag.
// The upstream API stores these as two sibling columns (case_tag and
// case_tag_list); they are only split apart at the JSON boundary.
type TagSet struct {
	Tags     []Tag
	ActiveID *int64
}

// Active returns the active tag, if it is set and present in the list.
func (ts TagSet) Active() (Tag, bool) {
	if ts.ActiveID == nil {
		return Tag{}, false
	}
	return ts.Find(*ts.ActiveID)
}

// Find looks a tag up by id.
func (ts TagSet) Find(id int64) (Tag, bool) {
	for _, t := range ts.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// ParseTagList decodes case_tag_list. An array, a JSON-encoded string of an
// array, or null are accepted; anything else yields an empty list.
func ParseTagList(raw json.RawMessage) []Tag {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Tag{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return []Tag{}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return []Tag{}
		}
		raw = json.RawMessage(s)
	}
	var tags []Tag
	if err := json.Unmarshal(raw, &tags); err != nil || tags == nil {
		return []Tag{}
	}
	return tags
}

// ParseActiveTag decodes case_tag. An object, a JSON-encoded string of an
// object, or null are accepted; a parse failure is treated as unset.
func ParseActiveTag(raw json.RawMessage) *Tag {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		raw = json.RawMessage(strings.TrimSpace(s))
	}
	var t *Tag
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	return t
}

// EncodeTagList serializes a tag list the way the upstream stores it.
func EncodeTagList(tags []Tag) string {
	if tags == nil {
		tags = []Tag{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

// EncodeTag serializes a single tag the way case_tag is written on create.
func EncodeTag(t Tag) string {
	b, _ := json.Marshal(t)
	return string(b)
}

// FlexString accepts either a JSON string or a JSON number. Cabinet and
// drawer locations come back as either depending on the column type.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			return err
		}
		*f = FlexString(b)
	}
	return nil
}

// Case is a legal matter with its joined display columns.
type Case struct {
	ID             int64
	ClientID       int64
	ClientFullName string
	CategoryID     int64
	CategoryName   string
	TypeID         int64
	TypeName       string
	LawyerID       *int64
	AssignedBy     *int64
	Status         CaseStatus
	Remarks        string
	Cabinet        FlexString
	Drawer         FlexString
	Fee            Money
	Balance        Money
	Tags           TagSet
	DateCreated    string
	LastUpdatedBy  *int64

	// Assigned lawyer's name parts, joined by the list endpoints.
	LawyerFirstName  string
	LawyerMiddleName string
	LawyerLastName   string
}

type caseWire struct {
	ID               int64           `json:"case_id"`
	ClientID         int64           `json:"client_id"`
	ClientFullName   string          `json:"client_fullname"`
	CategoryID       int64           `json:"cc_id"`
	CategoryName     string          `json:"cc_name"`
	TypeID           int64           `json:"ct_id"`
	TypeName         string          `json:"ct_name"`
	LawyerID         *int64          `json:"user_id"`
	AssignedBy       *int64          `json:"assigned_by"`
	Status           CaseStatus      `json:"case_status"`
	Remarks          string          `json:"case_remarks"`
	Cabinet          FlexString      `json:"case_cabinet"`
	Drawer           FlexString      `json:"case_drawer"`
	Fee              Money           `json:"case_fee"`
	Balance          Money           `json:"case_balance"`
	Tag              json.RawMessage `json:"case_tag"`
	TagList          json.RawMessage `json:"case_tag_list"`
	DateCreated      string          `json:"case_date_created,omitempty"`
	LastUpdatedBy    *int64          `json:"last_updated_by,omitempty"`
	LawyerFirstName  string          `json:"user_fname,omitempty"`
	LawyerMiddleName string          `json:"user_mname,omitempty"`
	LawyerLastName   string          `json:"user_lname,omitempty"`
}

// UnmarshalJSON folds case_tag and case_tag_list into a single TagSet.
func (c *Case) UnmarshalJSON(b []byte) error {
	var w caseWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = Case{
		ID:               w.ID,
		ClientID:         w.ClientID,
		ClientFullName:   w.ClientFullName,
		CategoryID:       w.CategoryID,
		CategoryName:     w.CategoryName,
		TypeID:           w.TypeID,
		TypeName:         w.TypeName,
		LawyerID:         w.LawyerID,
		AssignedBy:       w.AssignedBy,
		Status:           w.Status,
		Remarks:          w.Remarks,
		Cabinet:          w.Cabinet,
		Drawer:           w.Drawer,
		Fee:              w.Fee,
		Balance:          w.Balance,
		DateCreated:      w.DateCreated,
		LastUpdatedBy:    w.LastUpdatedBy,
		LawyerFirstName:  w.LawyerFirstName,
		LawyerMiddleName: w.LawyerMiddleName,
		LawyerLastName:   w.LawyerLastName,
	}
	c.Tags.Tags = ParseTagList(w.TagList)
	if t := ParseActiveTag(w.Tag); t != nil {
		id := t.ID
		c.Tags.ActiveID = &id
	}
	return nil
}

// MarshalJSON derives case_tag (the active tag object) and case_tag_list
// (the serialized candidate list) from the TagSet.
func (c Case) MarshalJSON() ([]byte, error) {
	tag := json.RawMessage("null")
	if t, ok := c.Tags.Active(); ok {
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		tag = b
	}
	list, err := json.Marshal(EncodeTagList(c.Tags.Tags))
	if err != nil {
		return nil, err
	}
	return json.Marshal(caseWire{
		ID:               c.ID,
		ClientID:         c.ClientID,
		ClientFullName:   c.ClientFullName,
		CategoryID:       c.CategoryID,
		CategoryName:     c.CategoryName,
		TypeID:           c.TypeID,
		TypeName:         c.TypeName,
		LawyerID:         c.LawyerID,
		AssignedBy:       c.AssignedBy,
		Status:           c.Status,
		Remarks:          c.Remarks,
		Cabinet:          c.Cabinet,
		Drawer:           c.Drawer,
		Fee:              c.Fee,
		Balance:          c.Balance,
		Tag:              tag,
		TagList:          list,
		DateCreated:      c.DateCreated,
		LastUpdatedBy:    c.LastUpdatedBy,
		LawyerFirstName:  c.LawyerFirstName,
		LawyerMiddleName: c.LawyerMiddleName,
		LawyerLastName:   c.LawyerLastName,
	})
}
