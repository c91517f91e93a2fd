package domain

import "time"

// RequestStatus enumerates the forward-only lifecycle of a blood request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in-progress"
	RequestStatusDone       RequestStatus = "done"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusDone:
		return true
	}
	return false
}

// Next returns the only status s may move to, or "" when s is terminal.
func (s RequestStatus) Next() RequestStatus {
	switch s {
	case RequestStatusPending:
		return RequestStatusInProgress
	case RequestStatusInProgress:
		return RequestStatusDone
	}
	return ""
}

// BloodRequest is a request for blood registered by a user.
type BloodRequest struct {
	ID              string        `json:"_id,omitempty"`
	RegistererName  string        `json:"registererName,omitempty"`
	RegistererEmail string        `json:"registererEmail"`
	RecipientName   string        `json:"recipientName,omitempty"`
	HospitalName    string        `json:"hospitalName,omitempty"`
	FullAddress     string        `json:"fullAddress,omitempty"`
	BloodGroup      string        `json:"bloodGroup,omitempty"`
	Zila            string        `json:"zila,omitempty"`
	Upazila         string        `json:"upazila,omitempty"`
	DonationDate    string        `json:"donationDate,omitempty"`
	DonationTime    string        `json:"donationTime,omitempty"`
	RequestMessage  string        `json:"requestMessage,omitempty"`
	RequestTime     time.Time     `json:"requestTime"`
	Status          RequestStatus `json:"status"`
	DonorName       string        `json:"donorName,omitempty"`
	DonorEmail      string        `json:"donorEmail,omitempty"`
	EditAt          *time.Time    `json:"edit_At,omitempty"`
}

// DeletedBloodRequest is the archived copy of a retired blood request.
type DeletedBloodRequest struct {
	BloodRequest
	OriginalID string    `json:"originalId"`
	DeletedAt  time.Time `json:"deletedAt"`
}

// Archive stamps a copy of r for the archive collection. The storage identifier
// of the copy is cleared so the archive assigns its own.
func (r BloodRequest) Archive(originalID string, at time.Time) DeletedBloodRequest {
	r.ID = ""
	return DeletedBloodRequest{BloodRequest: r, OriginalID: originalID, DeletedAt: at}
}
