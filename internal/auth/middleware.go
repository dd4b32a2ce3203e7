package auth

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aldoetobex/legal-case-console/pkg/models"
)

const localsKey = "session"

/* ============================== Middleware ============================== */

// RequireSession makes sure the request carries a snapshot. Without a valid
// snapshot cookie (or with one bound to other credentials) it verifies the
// forwarded upstream session once; failure is a 401.
func (s *Service) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := s.read(c, true)
		if err != nil {
			snap, err = s.Verify(c.UserContext(), c)
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
			}
		}
		c.Locals(localsKey, snap)
		return c.Next()
	}
}

// Current reads the snapshot placed by RequireSession or panics (programming error).
func Current(c *fiber.Ctx) Snapshot {
	if v, ok := c.Locals(localsKey).(Snapshot); ok {
		return v
	}
	panic(errors.New("session not in context"))
}

// RequireCapability rejects the request with 403 unless allow returns true
// for the current role.
func RequireCapability(allow func(Capabilities) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !allow(Current(c).Caps()) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

/* =========================== Error Formatting =========================== */

// httpCodeToString converts an HTTP status code to a short, stable string.
func httpCodeToString(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusBadGateway:
		return "BAD_GATEWAY"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// ErrorHandler is a global Fiber error handler that returns a consistent JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if strings.TrimSpace(fe.Message) != "" {
			msg = fe.Message
		} else {
			msg = fiber.ErrInternalServerError.Message
		}
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Code:    httpCodeToString(code),
		Error:   true,
		Message: msg,
	})
}
