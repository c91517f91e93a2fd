package domain

import "time"

// AnonymousDonor is recorded when a checkout session carries no donor name.
const AnonymousDonor = "Anonymous"

// Donation records one confirmed payment. TransactionID is the processor's
// payment identifier and is unique.
type Donation struct {
	ID            string    `json:"_id,omitempty"`
	Donor         string    `json:"donor"`
	DonorEmail    string    `json:"donorEmail"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transactionId"`
	PaymentStatus string    `json:"paymentStatus"`
	DonateAt      time.Time `json:"donateAt"`
}
