package validation

import (
	"github.com/aldoetobex/legal-case-console/pkg/models"
	"github.com/gofiber/fiber/v2"
)

// Respond writes a 400 with the field-keyed error map. A validation failure
// never reaches the upstream API, so the only notice is an error toast.
func Respond(c *fiber.Ctx, errs map[string][]string, toast string) error {
	resp := models.ValidationErrorResponse{
		Message: "Validation failed",
		Errors:  errs,
	}
	if toast != "" {
		resp.Notice = models.ErrorNotice(toast)
	}
	return c.Status(fiber.StatusBadRequest).JSON(resp)
}
