package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/liveflow/donor-service/internal/auth"
	"github.com/liveflow/donor-service/internal/domain"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

func requirePrincipal(c *fiber.Ctx) (domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal == nil {
		return domain.Principal{}, apperrors.NewUnauthorized("missing_credential")
	}
	return *principal, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// pathParam returns a decoded path segment; emails arrive percent-encoded.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}

func data(c *fiber.Ctx, v any) error {
	return c.JSON(fiber.Map{"data": v})
}
