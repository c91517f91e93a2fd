package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/liveflow/donor-service/pkg/util"
)

// RequireAction gates a route on an action that has no per-resource target,
// such as the administrative listings.
func RequireAction(policy *Policy, action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("missing_credential")
		}
		if err := policy.Authorize(c.UserContext(), *principal, action, Target{}); err != nil {
			return err
		}
		return c.Next()
	}
}
