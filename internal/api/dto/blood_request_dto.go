package dto

import "github.com/liveflow/donor-service/internal/domain"

// CreateBloodRequest payload for POST /create-request. Status and requestTime
// are assigned by the server.
type CreateBloodRequest struct {
	RegistererName  string `json:"registererName"`
	RegistererEmail string `json:"registererEmail"`
	RecipientName   string `json:"recipientName"`
	HospitalName    string `json:"hospitalName"`
	FullAddress     string `json:"fullAddress"`
	BloodGroup      string `json:"bloodGroup"`
	Zila            string `json:"zila"`
	Upazila         string `json:"upazila"`
	DonationDate    string `json:"donationDate"`
	DonationTime    string `json:"donationTime"`
	RequestMessage  string `json:"requestMessage"`
}

// AssignDonorRequest payload for PATCH /update-blood-status.
type AssignDonorRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	DonorName  string `json:"donorName"`
	DonorEmail string `json:"donorEmail"`
}

// CompleteRequest payload for PATCH /update-blood-status-done.
type CompleteRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// EditBloodRequest payload for PATCH /edit-request.
type EditBloodRequest struct {
	ID            string         `json:"id"`
	UpdateRequest map[string]any `json:"updateRequest"`
}

// RetireRequest payload for POST /delete-request. Request is the copy the
// client was shown; it is archived as-is when present.
type RetireRequest struct {
	ID      string               `json:"id"`
	Request *domain.BloodRequest `json:"request"`
}
