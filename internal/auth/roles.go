package auth

import "github.com/aldoetobex/legal-case-console/pkg/models"

// Card identifies one dashboard metric card.
type Card string

const (
	CardUsers           Card = "users"
	CardArchived        Card = "archived"
	CardProcessingCases Card = "processingCases"
	CardProcessingDocs  Card = "processingDocs"
	CardClients         Card = "clients"
	CardApprovals       Card = "approvals"
	CardTasks           Card = "tasks"
)

// Layout is how dashboard cards are arranged. Rows, when set, splits the
// card list into explicit rows; otherwise cards flow in a Columns-wide grid.
type Layout struct {
	Columns int   `json:"columns"`
	Rows    []int `json:"rows,omitempty"`
}

// Capabilities is everything a role is allowed to see or do.
type Capabilities struct {
	ManageCases           bool `json:"manageCases"`
	SeeAllRecords         bool `json:"seeAllRecords"` // all cases and payments, else own
	AssignAnyLawyer       bool `json:"assignAnyLawyer"`
	ForceSelfAssign       bool `json:"forceSelfAssign"`
	FirmWideCaseCounts    bool `json:"firmWideCaseCounts"`
	UserCount             bool `json:"userCount"`
	FirmWideActivity      bool `json:"firmWideActivity"` // all user logs and global pending tasks
	LawyerScopedDocs      bool `json:"lawyerScopedDocs"`
	LawyerRecommendations bool `json:"lawyerRecommendations"`

	Cards  []Card `json:"cards"`
	Layout Layout `json:"layout"`
}

var (
	baseCards   = []Card{CardApprovals, CardTasks}
	officeCards = []Card{CardProcessingDocs, CardClients, CardApprovals, CardTasks}
	lawyerCards = []Card{CardArchived, CardProcessingCases, CardProcessingDocs, CardClients, CardApprovals, CardTasks}
	allCards    = []Card{CardUsers, CardArchived, CardProcessingCases, CardProcessingDocs, CardClients, CardApprovals, CardTasks}
)

// capabilityTable is the single source for every role gate.
var capabilityTable = map[models.Role]Capabilities{
	models.RoleParalegal: {
		Cards:  baseCards,
		Layout: Layout{Columns: 2},
	},
	models.RoleStaff: {
		FirmWideCaseCounts:    true,
		LawyerRecommendations: true,
		Cards:                 officeCards,
		Layout:                Layout{Columns: 4},
	},
	models.RoleLawyer: {
		ManageCases:      true,
		ForceSelfAssign:  true,
		LawyerScopedDocs: true,
		Cards:            lawyerCards,
		Layout:           Layout{Columns: 3},
	},
	models.RoleAdmin: {
		ManageCases:        true,
		SeeAllRecords:      true,
		AssignAnyLawyer:    true,
		FirmWideCaseCounts: true,
		UserCount:          true,
		FirmWideActivity:   true,
		Cards:              allCards,
		Layout:             Layout{Columns: 4},
	},
	models.RoleSuperLawyer: {
		FirmWideCaseCounts: true,
		UserCount:          true,
		FirmWideActivity:   true,
		Cards:              allCards,
		Layout:             Layout{Columns: 4, Rows: []int{4, 3}},
	},
}

// CapabilitiesFor returns the capabilities of role. Unknown roles get the
// most restricted set with a 3-column grid.
func CapabilitiesFor(role models.Role) Capabilities {
	if c, ok := capabilityTable[role]; ok {
		c.Cards = append([]Card(nil), c.Cards...)
		return c
	}
	return Capabilities{Cards: append([]Card(nil), baseCards...), Layout: Layout{Columns: 3}}
}

// AssignableRoles lists the roles that can be assigned to a new user, with display labels.
func AssignableRoles() []RoleOption {
	roles := []models.Role{models.RoleParalegal, models.RoleStaff, models.RoleLawyer, models.RoleAdmin}
	out := make([]RoleOption, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleOption{Value: r, Label: r.Label()})
	}
	return out
}

// RoleOption is a role select entry.
type RoleOption struct {
	Value models.Role `json:"value"`
	Label string      `json:"label"`
}

// Valid reports whether role is one of the known roles.
func Valid(role models.Role) bool {
	_, ok := capabilityTable[role]
	return ok
}
