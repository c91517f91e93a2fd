package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/liveflow/donor-service/internal/domain"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name,omitempty"`
	Email        string             `bson:"email"`
	Image        string             `bson:"image,omitempty"`
	Role         string             `bson:"role"`
	Status       string             `bson:"status"`
	BloodGroup   string             `bson:"bloodGroup,omitempty"`
	District     string             `bson:"district,omitempty"`
	Upazila      string             `bson:"upazila,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	LastLoggedIn time.Time          `bson:"last_loggedIn"`
	LastUpdateAt *time.Time         `bson:"last_update_At,omitempty"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		Name:         u.Name,
		Email:        u.Email,
		Image:        u.Image,
		Role:         string(u.Role),
		Status:       string(u.Status),
		BloodGroup:   u.BloodGroup,
		District:     u.District,
		Upazila:      u.Upazila,
		CreatedAt:    u.CreatedAt,
		LastLoggedIn: u.LastLoggedIn,
		LastUpdateAt: u.LastUpdateAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Image:        d.Image,
		Role:         domain.UserRole(d.Role),
		Status:       domain.UserStatus(d.Status),
		BloodGroup:   d.BloodGroup,
		District:     d.District,
		Upazila:      d.Upazila,
		CreatedAt:    d.CreatedAt,
		LastLoggedIn: d.LastLoggedIn,
		LastUpdateAt: d.LastUpdateAt,
	}
}

type requestDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	RegistererName  string             `bson:"registererName,omitempty"`
	RegistererEmail string             `bson:"registererEmail"`
	RecipientName   string             `bson:"recipientName,omitempty"`
	HospitalName    string             `bson:"hospitalName,omitempty"`
	FullAddress     string             `bson:"fullAddress,omitempty"`
	BloodGroup      string             `bson:"bloodGroup,omitempty"`
	Zila            string             `bson:"zila,omitempty"`
	Upazila         string             `bson:"upazila,omitempty"`
	DonationDate    string             `bson:"donationDate,omitempty"`
	DonationTime    string             `bson:"donationTime,omitempty"`
	RequestMessage  string             `bson:"requestMessage,omitempty"`
	RequestTime     time.Time          `bson:"requestTime"`
	Status          string             `bson:"status"`
	DonorName       string             `bson:"donorName,omitempty"`
	DonorEmail      string             `bson:"donorEmail,omitempty"`
	EditAt          *time.Time         `bson:"edit_At,omitempty"`
}

func newRequestDoc(r *domain.BloodRequest) requestDoc {
	return requestDoc{
		RegistererName:  r.RegistererName,
		RegistererEmail: r.RegistererEmail,
		RecipientName:   r.RecipientName,
		HospitalName:    r.HospitalName,
		FullAddress:     r.FullAddress,
		BloodGroup:      r.BloodGroup,
		Zila:            r.Zila,
		Upazila:         r.Upazila,
		DonationDate:    r.DonationDate,
		DonationTime:    r.DonationTime,
		RequestMessage:  r.RequestMessage,
		RequestTime:     r.RequestTime,
		Status:          string(r.Status),
		DonorName:       r.DonorName,
		DonorEmail:      r.DonorEmail,
		EditAt:          r.EditAt,
	}
}

func (d requestDoc) toDomain() domain.BloodRequest {
	return domain.BloodRequest{
		ID:              d.ID.Hex(),
		RegistererName:  d.RegistererName,
		RegistererEmail: d.RegistererEmail,
		RecipientName:   d.RecipientName,
		HospitalName:    d.HospitalName,
		FullAddress:     d.FullAddress,
		BloodGroup:      d.BloodGroup,
		Zila:            d.Zila,
		Upazila:         d.Upazila,
		DonationDate:    d.DonationDate,
		DonationTime:    d.DonationTime,
		RequestMessage:  d.RequestMessage,
		RequestTime:     d.RequestTime,
		Status:          domain.RequestStatus(d.Status),
		DonorName:       d.DonorName,
		DonorEmail:      d.DonorEmail,
		EditAt:          d.EditAt,
	}
}

type deletedDoc struct {
	Request    requestDoc `bson:",inline"`
	OriginalID string     `bson:"originalId"`
	DeletedAt  time.Time  `bson:"deletedAt"`
}

func (d deletedDoc) toDomain() domain.DeletedBloodRequest {
	return domain.DeletedBloodRequest{
		BloodRequest: d.Request.toDomain(),
		OriginalID:   d.OriginalID,
		DeletedAt:    d.DeletedAt,
	}
}

type donationDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Donor         string             `bson:"donor"`
	DonorEmail    string             `bson:"donorEmail"`
	Amount        float64            `bson:"amount"`
	TransactionID string             `bson:"transactionId"`
	PaymentStatus string             `bson:"paymentStatus"`
	DonateAt      time.Time          `bson:"donateAt"`
}

func (d donationDoc) toDomain() domain.Donation {
	return domain.Donation{
		ID:            d.ID.Hex(),
		Donor:         d.Donor,
		DonorEmail:    d.DonorEmail,
		Amount:        d.Amount,
		TransactionID: d.TransactionID,
		PaymentStatus: d.PaymentStatus,
		DonateAt:      d.DonateAt,
	}
}
