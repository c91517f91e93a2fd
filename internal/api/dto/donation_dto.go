package dto

import "github.com/liveflow/donor-service/internal/domain"

// CheckoutRequest payload for POST /create-checkout-session.
type CheckoutRequest struct {
	Amount     float64 `json:"amount"`
	DonorEmail string  `json:"donorEmail"`
	Donor      string  `json:"donor"`
}

// CheckoutResponse carries the hosted checkout redirect.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// PaymentSuccessRequest payload for POST /payment-success.
type PaymentSuccessRequest struct {
	SessionID string `json:"sessionId"`
}

// PaymentSuccessResponse reports the reconciliation outcome.
type PaymentSuccessResponse struct {
	Outcome       string           `json:"outcome"`
	SessionStatus string           `json:"sessionStatus"`
	Donation      *domain.Donation `json:"donation,omitempty"`
}
