package service

import (
	"net/mail"
	"strings"

	apperrors "github.com/liveflow/donor-service/pkg/util"
)

// normalizeEmail trims raw and rejects anything that is not a bare address.
// Display-name forms such as "Dee <dee@example.com>" are rejected too since
// the address is used as an identity key.
func normalizeEmail(field, raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", apperrors.NewValidationError(field+" is required", nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewValidationError(field+" is not a valid email address", map[string]any{field: raw})
	}
	return email, nil
}
