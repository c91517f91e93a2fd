package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBloodRequestCreated EventType = "blood_request_created"
	EventDonorAssigned       EventType = "donor_assigned"
	EventBloodRequestDone    EventType = "blood_request_done"
	EventBloodRequestRetired EventType = "blood_request_retired"
	EventUserRoleChanged     EventType = "user_role_changed"
	EventUserStatusChanged   EventType = "user_status_changed"
	EventDonationRecorded    EventType = "donation_recorded"
)

// AllEventTypes lists every event the service emits.
var AllEventTypes = []EventType{
	EventBloodRequestCreated,
	EventDonorAssigned,
	EventBloodRequestDone,
	EventBloodRequestRetired,
	EventUserRoleChanged,
	EventUserStatusChanged,
	EventDonationRecorded,
}

// Actor identifies who caused an event. Email is empty for anonymous callers.
type Actor struct {
	Email string `json:"email,omitempty"`
}

// Event represents a domain event emitted by services. Subject is the id or
// email of the record the event is about.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, subject, actorEmail string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     Actor{Email: actorEmail},
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// BloodRequestPayload payload.
type BloodRequestPayload struct {
	RegistererEmail string `json:"registererEmail"`
	BloodGroup      string `json:"bloodGroup,omitempty"`
	Zila            string `json:"zila,omitempty"`
	Upazila         string `json:"upazila,omitempty"`
	Status          string `json:"status,omitempty"`
	DonorName       string `json:"donorName,omitempty"`
	DonorEmail      string `json:"donorEmail,omitempty"`
}

// UserChangedPayload payload.
type UserChangedPayload struct {
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

// DonationPayload payload.
type DonationPayload struct {
	Donor         string  `json:"donor"`
	DonorEmail    string  `json:"donorEmail"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
}
