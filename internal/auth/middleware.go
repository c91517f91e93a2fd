package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/domain"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware verifies bearer credentials and stores the principal.
type AuthMiddleware struct {
	verifier Verifier
	logger   *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier Verifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Handle enforces authentication for protected routes. Rejected credentials
// never reach the handler.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := ExtractBearer(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return m.rejected(c, err)
	}

	identity, err := m.verifier.Verify(c.UserContext(), token)
	if err != nil {
		var rejection *Rejection
		if errors.As(err, &rejection) {
			return m.rejected(c, err)
		}
		return apperrors.NewUpstreamFailure("identity provider", err)
	}

	c.Locals(principalKey, &domain.Principal{Email: identity.Email, Subject: identity.Subject})
	return c.Next()
}

func (m *AuthMiddleware) rejected(c *fiber.Ctx, err error) error {
	reason := "invalid_credential"
	if errors.Is(err, ErrMissingCredential) {
		reason = "missing_credential"
	}
	m.logger.Debug("credential rejected",
		zap.String("path", c.Path()),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return apperrors.NewUnauthorized(reason)
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
