package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/viewstate"
)

/* ================================ DTOs ================================= */

// SessionResponse is returned by GET /session.
type SessionResponse struct {
	Snapshot
	RoleLabel    string       `json:"role_label"`
	Capabilities Capabilities `json:"capabilities"`
}

/* ============================== Handler ================================= */

// Handler serves the session endpoints. On logout every registered
// component state for the session is dropped.
type Handler struct {
	svc      *Service
	log      *zap.Logger
	droppers []viewstate.Dropper
}

func NewHandler(svc *Service, log *zap.Logger, droppers ...viewstate.Dropper) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log, droppers: droppers}
}

// @Summary      Current session
// @Description  Returns the verified user snapshot and the role's capabilities
// @Tags         session
// @Produce      json
// @Success      200  {object}  SessionResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /session [get]
func (h *Handler) Session(c *fiber.Ctx) error {
	snap := Current(c)
	return c.JSON(SessionResponse{
		Snapshot:     snap,
		RoleLabel:    snap.User.Role.Label(),
		Capabilities: snap.Caps(),
	})
}

// @Summary      Log out
// @Description  Clears the snapshot cookie and all per-session console state
// @Tags         session
// @Success      204
// @Router       /logout [post]
func (h *Handler) Logout(c *fiber.Ctx) error {
	if snap, err := h.svc.read(c, false); err == nil {
		for _, d := range h.droppers {
			d.Drop(snap.SessionID)
		}
		h.log.Debug("session closed", zap.String("session", snap.SessionID))
	}
	h.svc.Clear(c)
	return c.SendStatus(fiber.StatusNoContent)
}
