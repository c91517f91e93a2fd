// Package payment creates hosted checkout sessions and reads them back for
// reconciliation.
package payment

import (
	"context"
	"errors"
	"math"
)

// ErrNotConfigured is returned when no processor secret key was supplied.
var ErrNotConfigured = errors.New("payment processor not configured")

// Session status values reported by the processor.
const (
	SessionStatusComplete = "complete"
	SessionStatusOpen     = "open"
	SessionStatusExpired  = "expired"
)

// Metadata keys stored on the checkout session.
const (
	MetadataDonor      = "donor"
	MetadataDonorEmail = "donorEmail"
)

// CheckoutRequest describes one donation checkout.
type CheckoutRequest struct {
	Amount     float64
	DonorEmail string
	Donor      string
}

// Session is the processor-neutral view of a checkout session.
type Session struct {
	ID              string
	URL             string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	AmountMinor     int64
	DonorEmail      string
	Donor           string
}

// Complete reports whether the customer finished checkout.
func (s *Session) Complete() bool {
	return s.Status == SessionStatusComplete
}

// Amount returns the total in major currency units.
func (s *Session) Amount() float64 {
	return FromMinorUnits(s.AmountMinor)
}

// Processor is a hosted-checkout payment provider.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error)
}

// ToMinorUnits converts a decimal amount to cents, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts cents back to a decimal amount.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}
