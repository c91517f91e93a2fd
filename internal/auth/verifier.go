package auth

import (
	"context"
	"errors"
	"strings"
)

// Rejection reasons.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
)

// ErrKeysUnavailable is returned when the identity provider's signing keys
// cannot be fetched. It is an upstream failure, not a rejection.
var ErrKeysUnavailable = errors.New("identity provider keys unavailable")

// Identity is the verified result of a bearer credential.
type Identity struct {
	Email   string
	Subject string
}

// Verifier validates bearer credentials.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Rejection is returned for credentials that are absent or fail verification.
// It matches its Reason and its Cause with errors.Is.
type Rejection struct {
	Reason error
	Cause  error
}

func (r *Rejection) Error() string {
	if r.Cause != nil {
		return r.Reason.Error() + ": " + r.Cause.Error()
	}
	return r.Reason.Error()
}

func (r *Rejection) Unwrap() []error {
	if r.Cause == nil {
		return []error{r.Reason}
	}
	return []error{r.Reason, r.Cause}
}

func reject(reason, cause error) error {
	return &Rejection{Reason: reason, Cause: cause}
}

// ExtractBearer returns the token from an Authorization header value of the
// form "Bearer <token>".
func ExtractBearer(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", reject(ErrMissingCredential, nil)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", reject(ErrMissingCredential, nil)
	}
	return token, nil
}
