package repository

import (
	"context"
	"errors"

	"github.com/liveflow/donor-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup by identity key matches nothing.
	ErrNotFound = errors.New("document not found")
	// ErrMalformedID is returned before touching storage when an identifier is
	// not in the backend's identifier format.
	ErrMalformedID = errors.New("malformed identifier")
	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

// Patch is a field-level merge patch keyed by document field name. Only the
// named fields are replaced.
type Patch map[string]any

// UpdateResult distinguishes "no document matched" from "matched but nothing changed".
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// UserFilter narrows user listings. Empty fields impose no filter.
type UserFilter struct {
	Status     domain.UserStatus
	BloodGroup string
	District   string
	Upazila    string
}

// BloodRequestFilter narrows blood request listings. Empty fields impose no
// filter. NewestFirst sorts by requestTime descending; ties keep storage order,
// which is not deterministic across backends.
type BloodRequestFilter struct {
	RegistererEmail string
	BloodGroup      string
	Status          domain.RequestStatus
	NewestFirst     bool
	Limit           int
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Update(ctx context.Context, email string, patch Patch) (UpdateResult, error)
	Count(ctx context.Context) (int64, error)
}

// BloodRequestRepository defines persistence access for live blood requests.
type BloodRequestRepository interface {
	Create(ctx context.Context, req *domain.BloodRequest) error
	GetByID(ctx context.Context, id string) (*domain.BloodRequest, error)
	List(ctx context.Context, filter BloodRequestFilter) ([]domain.BloodRequest, error)
	// Update applies patch to the request with the given id. When expected is
	// non-empty the request must currently be in that status to match.
	Update(ctx context.Context, id string, expected domain.RequestStatus, patch Patch) (UpdateResult, error)
	Delete(ctx context.Context, id string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// DeletedRequestRepository is the append-only archive of retired requests.
// OriginalID is unique.
type DeletedRequestRepository interface {
	Create(ctx context.Context, archived *domain.DeletedBloodRequest) error
	List(ctx context.Context) ([]domain.DeletedBloodRequest, error)
}

// DonationRepository stores confirmed donations. TransactionID is unique.
type DonationRepository interface {
	Create(ctx context.Context, donation *domain.Donation) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Donation, error)
	List(ctx context.Context) ([]domain.Donation, error)
	TotalAmount(ctx context.Context) (float64, error)
}

// Transactor runs fn inside a transaction when the backend supports one.
// Callers use InTransaction to learn whether fn ran atomically.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users     UserRepository
	Requests  BloodRequestRepository
	Deleted   DeletedRequestRepository
	Donations DonationRepository
	Tx        Transactor
}

type txMarkerKey struct{}

// MarkTransaction returns a context flagged as running inside a real transaction.
func MarkTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, txMarkerKey{}, true)
}

// InTransaction reports whether ctx was flagged by MarkTransaction.
func InTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(txMarkerKey{}).(bool)
	return v
}
