package users

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/pkg/format"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/sanitize"
)

const (
	msgProfileUpdating = "Updating profile..."
	msgProfileUpdated  = "Profile updated successfully."
	msgProfileFailed   = "Profile update failed!"

	branchLoading = "Loading..."
	branchUnknown = "Unknown"
	branchError   = "Error"
)

// statusOutline maps account status to the avatar ring colour.
var statusOutline = map[models.UserStatus]string{
	models.UserActive:    "green",
	models.UserPending:   "yellow",
	models.UserSuspended: "red",
}

// StatusOutline returns the ring colour for a status, gray when unknown.
func StatusOutline(s models.UserStatus) string {
	if c, ok := statusOutline[s]; ok {
		return c
	}
	return "gray"
}

/* ================================ DTOs ================================= */

// ProfileDraft holds the editable profile fields.
type ProfileDraft struct {
	Email    string `json:"user_email" form:"user_email"`
	Password string `json:"user_password,omitempty" form:"user_password"`
	Phone    string `json:"user_phonenum" form:"user_phonenum"`
}

// ProfileView is the profile modal as the browser should render it.
type ProfileView struct {
	User          models.User    `json:"user"`
	DateCreated   string         `json:"date_created"`
	Image         string         `json:"image"`
	StatusOutline string         `json:"status_outline"`
	BranchName    string         `json:"branch_name"`
	Editing       bool           `json:"editing"`
	Draft         *ProfileDraft  `json:"draft,omitempty"`
	PasswordHint  string         `json:"password_hint,omitempty"`
	Notice        *models.Notice `json:"notice,omitempty"`
}

type profileState struct {
	mu      sync.Mutex
	editing bool
	draft   ProfileDraft
	hint    string
}

func draftFrom(u models.User) ProfileDraft {
	return ProfileDraft{Email: u.Email, Phone: u.Phone}
}

// branchName resolves the user's branch. Without a branch id the lookup never
// starts and the label stays at "Loading...".
func (h *Handler) branchName(c *fiber.Ctx, branchID int64) string {
	if branchID == 0 {
		return branchLoading
	}
	branches, err := h.auth.API(c).Branches(c.UserContext())
	if err != nil {
		h.log.Warn("load branches failed", zap.Error(err))
		return branchError
	}
	for _, b := range branches {
		if b.ID == branchID && b.Name != "" {
			return b.Name
		}
	}
	return branchUnknown
}

func (h *Handler) profileView(c *fiber.Ctx, snap auth.Snapshot, st *profileState) ProfileView {
	v := ProfileView{
		User:          snap.User,
		DateCreated:   format.Date(snap.User.DateCreated, h.opts.Location),
		Image:         h.imageURL(snap.User.Profile),
		StatusOutline: StatusOutline(snap.User.Status),
		BranchName:    h.branchName(c, snap.User.BranchID),
		Editing:       st.editing,
	}
	if st.editing {
		d := st.draft
		d.Password = ""
		v.Draft = &d
		v.PasswordHint = st.hint
	}
	return v
}

/* ============================== Handlers ============================== */

// @Summary      Profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  ProfileView
// @Router       /profile [get]
func (h *Handler) Profile(c *fiber.Ctx) error {
	snap := auth.Current(c)
	st := h.profile.Get(snap.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return c.JSON(h.profileView(c, snap, st))
}

// EditProfile switches to edit mode with a draft seeded from the snapshot.
func (h *Handler) EditProfile(c *fiber.Ctx) error {
	snap := auth.Current(c)
	st := h.profile.Get(snap.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.editing {
		st.editing = true
		st.draft = draftFrom(snap.User)
		st.hint = ""
	}
	return c.JSON(h.profileView(c, snap, st))
}

// CancelProfile drops the draft; the preview goes back to the stored image.
func (h *Handler) CancelProfile(c *fiber.Ctx) error {
	snap := auth.Current(c)
	st := h.profile.Get(snap.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.editing, st.draft, st.hint = false, ProfileDraft{}, ""
	return c.JSON(h.profileView(c, snap, st))
}

// SetProfileField applies one keystroke-level change to the draft.
func (h *Handler) SetProfileField(c *fiber.Ctx) error {
	var in struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	snap := auth.Current(c)
	st := h.profile.Get(snap.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.editing {
		return fiber.NewError(fiber.StatusConflict, "Profile is not being edited")
	}
	switch in.Name {
	case "user_email":
		st.draft.Email = utils.CopyString(in.Value)
	case "user_phonenum":
		st.draft.Phone = sanitize.Phone(in.Value)
	case "user_password":
		st.draft.Password = utils.CopyString(in.Value)
		st.hint = CheckProfilePassword(in.Value)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Field is not editable")
	}
	return c.JSON(h.profileView(c, snap, st))
}

// profileSave is the PUT /profile body. Absent fields keep the draft value;
// a present empty field clears it.
type profileSave struct {
	Email    *string `json:"user_email" form:"user_email"`
	Password *string `json:"user_password" form:"user_password"`
	Phone    *string `json:"user_phonenum" form:"user_phonenum"`
}

// profileUpdate is the JSON body of a profile PUT: the stored user, the
// edited fields on top, plus the updater id.
type profileUpdate struct {
	models.User
	Password      string `json:"user_password,omitempty"`
	LastUpdatedBy int64  `json:"user_last_updated_by"`
}

// @Summary      Save profile
// @Description  JSON, or multipart when a new image is attached; re-verifies the session on success
// @Tags         profile
// @Accept       json,mpfd
// @Produce      json
// @Success      200  {object}  ProfileView
// @Failure      502  {object}  ProfileView
// @Router       /profile [put]
func (h *Handler) SaveProfile(c *fiber.Ctx) error {
	snap := auth.Current(c)

	var in profileSave
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	st := h.profile.Get(snap.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.editing {
		st.editing = true
		st.draft = draftFrom(snap.User)
	}
	if in.Email != nil {
		st.draft.Email = utils.CopyString(*in.Email)
	}
	if in.Phone != nil {
		st.draft.Phone = sanitize.Phone(*in.Phone)
	}
	if in.Password != nil {
		st.draft.Password = utils.CopyString(*in.Password)
		st.hint = CheckProfilePassword(*in.Password)
	}

	notice := models.NewNotice(msgProfileUpdating)
	api := h.auth.API(c)
	ctx := c.UserContext()

	next := snap.User
	next.Email = st.draft.Email
	next.Phone = st.draft.Phone

	var err error
	if fh, ferr := c.FormFile("user_profile"); ferr == nil && fh != nil {
		f, oerr := fh.Open()
		if oerr != nil {
			return fiber.ErrBadRequest
		}
		defer f.Close()
		form := userForm(next, st.draft.Password, snap.UserID())
		form.Attach(&backend.File{
			Field:       "user_profile",
			Filename:    fh.Filename,
			ContentType: fileContentType(fh),
			Body:        f,
		})
		err = api.UpdateUserForm(ctx, snap.UserID(), form)
	} else {
		err = api.UpdateUserJSON(ctx, snap.UserID(), profileUpdate{
			User:          next,
			Password:      st.draft.Password,
			LastUpdatedBy: snap.UserID(),
		})
	}

	if err == nil {
		var fresh auth.Snapshot
		fresh, err = h.auth.Refresh(ctx, c, snap)
		if err == nil {
			st.editing, st.draft, st.hint = false, ProfileDraft{}, ""
			v := h.profileView(c, fresh, st)
			v.Notice = notice.Succeed(msgProfileUpdated)
			return c.JSON(v)
		}
	}

	h.log.Warn("profile update failed", zap.Int64("user_id", snap.UserID()), zap.Error(err))
	v := h.profileView(c, snap, st)
	v.Notice = notice.Fail(msgProfileFailed)
	return c.Status(backend.HTTPStatus(err)).JSON(v)
}

// userForm flattens a user record into multipart fields.
func userForm(u models.User, password string, updatedBy int64) *backend.Form {
	f := backend.NewForm().
		Set("user_id", itoa(u.ID)).
		Set("user_fname", u.FirstName).
		Set("user_mname", u.MiddleName).
		Set("user_lname", u.LastName).
		Set("user_email", u.Email).
		Set("user_phonenum", u.Phone).
		Set("user_role", string(u.Role)).
		Set("branch_id", itoa(u.BranchID)).
		Set("user_status", string(u.Status))
	if password != "" {
		f.Set("user_password", password)
	}
	f.Set("user_last_updated_by", itoa(updatedBy))
	return f
}
