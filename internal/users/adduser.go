package users

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/aldoetobex/legal-case-console/pkg/sanitize"
	"github.com/aldoetobex/legal-case-console/pkg/validation"
)

const (
	msgUserAdding     = "Adding new user..."
	msgUserAdded      = "User successfully added!"
	msgUserAddFailed  = "Failed to add user."
	msgUserUnexpected = "Something went wrong. Please try again."
	msgBranchesFailed = "Failed to load branches."
	msgRequiredFields = "Please fill in all required fields."
)

/* ================================ DTOs ================================= */

// NewUserForm is the add-user form. Password is never echoed back.
type NewUserForm struct {
	Email      string      `json:"user_email" form:"user_email" validate:"required,email"`
	Password   string      `json:"-" form:"user_password" validate:"required"`
	FirstName  string      `json:"user_fname" form:"user_fname" validate:"required"`
	MiddleName string      `json:"user_mname" form:"user_mname"`
	LastName   string      `json:"user_lname" form:"user_lname" validate:"required"`
	Phone      string      `json:"user_phonenum" form:"user_phonenum" validate:"omitempty,phone"`
	Role       models.Role `json:"user_role" form:"user_role" validate:"required,oneof=Paralegal Staff Lawyer Admin"`
	BranchID   string      `json:"branch_id" form:"branch_id" validate:"required,digits"`
}

func (f *NewUserForm) normalize() {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.FirstName = sanitize.Text(f.FirstName)
	f.MiddleName = sanitize.Text(f.MiddleName)
	f.LastName = sanitize.Text(f.LastName)
	f.Phone = sanitize.Phone(f.Phone)
	f.BranchID = strings.TrimSpace(f.BranchID)
}

// detach copies the parsed body out of the request buffers.
func (f NewUserForm) detach() NewUserForm {
	return NewUserForm{
		Email:      utils.CopyString(f.Email),
		Password:   utils.CopyString(f.Password),
		FirstName:  utils.CopyString(f.FirstName),
		MiddleName: utils.CopyString(f.MiddleName),
		LastName:   utils.CopyString(f.LastName),
		Phone:      utils.CopyString(f.Phone),
		Role:       models.Role(utils.CopyString(string(f.Role))),
		BranchID:   utils.CopyString(f.BranchID),
	}
}

// resetForm is the form after a successful add: empty, role back to Paralegal.
func resetForm() NewUserForm {
	return NewUserForm{Role: models.RoleParalegal}
}

// AddUserView is the modal as the browser should render it.
type AddUserView struct {
	Open     bool              `json:"open"`
	Form     NewUserForm       `json:"form"`
	Branches []models.Branch   `json:"branches"`
	Roles    []auth.RoleOption `json:"roles"`
	Error    string            `json:"error,omitempty"`
	Notice   *models.Notice    `json:"notice,omitempty"`
}

type addUserState struct {
	mu    sync.Mutex
	open  bool
	form  NewUserForm
	error string
}

/* ============================== Handlers ============================== */

// @Summary      Open add-user modal
// @Description  Loads branches; a failure is shown inline and the form stays usable
// @Tags         users
// @Produce      json
// @Success      200  {object}  AddUserView
// @Router       /users/new [get]
func (h *Handler) NewUser(c *fiber.Ctx) error {
	snap := auth.Current(c)
	st := h.addUser.Get(snap.SessionID)

	branches, err := h.auth.API(c).Branches(c.UserContext())
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.open {
		st.open = true
		st.form = NewUserForm{}
		st.error = ""
	}
	if err != nil {
		h.log.Warn("load branches failed", zap.Error(err))
		branches = []models.Branch{}
		st.error = backend.Message(err, msgBranchesFailed)
	}
	return c.JSON(AddUserView{
		Open:     true,
		Form:     st.form,
		Branches: branches,
		Roles:    auth.AssignableRoles(),
		Error:    st.error,
	})
}

// CloseNewUser closes the modal and discards the form.
func (h *Handler) CloseNewUser(c *fiber.Ctx) error {
	if st, ok := h.addUser.Peek(auth.Current(c).SessionID); ok {
		st.mu.Lock()
		st.open, st.form, st.error = false, NewUserForm{}, ""
		st.mu.Unlock()
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PasswordCheck returns the live checklist for a candidate password.
func (h *Handler) PasswordCheck(c *fiber.Ctx) error {
	var in struct {
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	return c.JSON(ValidatePassword(in.Password))
}

// @Summary      Add user
// @Description  Multipart submit; the profile image is optional and streamed through
// @Tags         users
// @Accept       mpfd
// @Produce      json
// @Success      201  {object}  AddUserView
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  AddUserView
// @Failure      502  {object}  AddUserView
// @Router       /users [post]
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	snap := auth.Current(c)

	var in NewUserForm
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.normalize()

	// Required fields are checked before anything goes upstream.
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs, msgRequiredFields)
	}

	st := h.addUser.Get(snap.SessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.open = true
	st.error = ""

	notice := models.NewNotice(msgUserAdding)

	form := backend.NewForm().
		Set("user_email", in.Email).
		Set("user_password", in.Password).
		Set("user_fname", in.FirstName).
		Set("user_mname", in.MiddleName).
		Set("user_lname", in.LastName).
		Set("user_phonenum", in.Phone).
		Set("user_role", string(in.Role)).
		Set("branch_id", in.BranchID).
		Set("created_by", itoa(snap.UserID()))

	// No file part (or no multipart body at all) means no image.
	if fh, err := c.FormFile("user_profile"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.ErrBadRequest
		}
		defer f.Close()
		form.Attach(&backend.File{
			Field:       "user_profile",
			Filename:    fh.Filename,
			ContentType: fileContentType(fh),
			Body:        f,
		})
	}

	if err := h.auth.API(c).CreateUser(c.UserContext(), form); err != nil {
		h.log.Warn("create user failed", zap.Error(err))
		msg := backend.Message(err, msgUserAddFailed)
		st.form = in.detach()
		st.error = msg
		if errors.Is(err, backend.ErrTransport) {
			st.error = msgUserUnexpected
		}
		return c.Status(backend.HTTPStatus(err)).JSON(AddUserView{
			Open:   true,
			Form:   st.form,
			Roles:  auth.AssignableRoles(),
			Error:  st.error,
			Notice: notice.Fail(msg),
		})
	}

	st.open = false
	st.form = resetForm()
	return c.Status(fiber.StatusCreated).JSON(AddUserView{
		Open:   false,
		Form:   st.form,
		Roles:  auth.AssignableRoles(),
		Notice: notice.Succeed(msgUserAdded),
	})
}

/* ============================== Helpers ============================== */

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func fileContentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
