package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/payment"
	"github.com/liveflow/donor-service/internal/repository"
	"github.com/liveflow/donor-service/internal/sanitize"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

// Reconcile outcomes.
const (
	ReconcileRecorded        = "recorded"
	ReconcileAlreadyRecorded = "already_recorded"
	ReconcileNotCompleted    = "not_completed"
)

// DonationService turns completed checkout sessions into donation records.
type DonationService struct {
	donations repository.DonationRepository
	processor payment.Processor
	events    publisher
	logger    *zap.Logger
	now       func() time.Time
}

// DonationDependencies bundles collaborators for the donation service.
type DonationDependencies struct {
	DonationRepo repository.DonationRepository
	Processor    payment.Processor
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewDonationService constructs the service.
func NewDonationService(deps DonationDependencies) *DonationService {
	return &DonationService{
		donations: deps.DonationRepo,
		processor: deps.Processor,
		events:    publisher{dispatcher: deps.Dispatcher, logger: deps.Logger},
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CheckoutInput describes a donation the caller wants to pay for.
type CheckoutInput struct {
	Amount     float64
	DonorEmail string
	Donor      string
}

// CreateCheckout opens a hosted checkout session and returns its URL.
func (s *DonationService) CreateCheckout(ctx context.Context, input CheckoutInput) (string, error) {
	email := strings.TrimSpace(input.DonorEmail)
	if email == "" {
		return "", apperrors.NewValidationError("donorEmail is required", nil)
	}
	if payment.ToMinorUnits(input.Amount) <= 0 {
		return "", apperrors.NewValidationError("amount must be positive", map[string]any{"amount": input.Amount})
	}

	session, err := s.processor.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Amount:     input.Amount,
		DonorEmail: email,
		Donor:      sanitize.Text(input.Donor),
	})
	if err != nil {
		return "", apperrors.NewUpstreamFailure("payment processor", err)
	}
	return session.URL, nil
}

// ReconcileResult is the outcome of Reconcile. Donation is set when a record
// exists for the session.
type ReconcileResult struct {
	Outcome       string
	SessionStatus string
	Donation      *domain.Donation
}

// Reconcile records the donation for a completed checkout session exactly
// once. Repeating it for the same session returns the existing record.
func (s *DonationService) Reconcile(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.NewValidationError("sessionId is required", nil)
	}

	session, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("payment processor", err)
	}

	transactionID := session.PaymentIntentID
	if transactionID == "" {
		transactionID = session.ID
	}

	existing, err := s.donations.GetByTransactionID(ctx, transactionID)
	switch {
	case err == nil:
		return &ReconcileResult{Outcome: ReconcileAlreadyRecorded, SessionStatus: session.Status, Donation: existing}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeError(err, transactionID)
	}

	if !session.Complete() {
		return &ReconcileResult{Outcome: ReconcileNotCompleted, SessionStatus: session.Status}, nil
	}

	donor := session.Donor
	if donor == "" {
		donor = domain.AnonymousDonor
	}
	donation := &domain.Donation{
		Donor:         donor,
		DonorEmail:    session.DonorEmail,
		Amount:        session.Amount(),
		TransactionID: transactionID,
		PaymentStatus: session.PaymentStatus,
		DonateAt:      s.now(),
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, storeError(err, transactionID)
		}
		// A concurrent reconcile recorded it first.
		existing, err := s.donations.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return nil, storeError(err, transactionID)
		}
		return &ReconcileResult{Outcome: ReconcileAlreadyRecorded, SessionStatus: session.Status, Donation: existing}, nil
	}

	s.logger.Info("donation recorded",
		zap.String("transaction_id", transactionID),
		zap.Float64("amount", donation.Amount),
	)
	s.events.publish(ctx, events.NewEvent(events.EventDonationRecorded, donation.ID, donation.DonorEmail, events.DonationPayload{
		Donor:         donation.Donor,
		DonorEmail:    donation.DonorEmail,
		Amount:        donation.Amount,
		TransactionID: transactionID,
	}))
	return &ReconcileResult{Outcome: ReconcileRecorded, SessionStatus: session.Status, Donation: donation}, nil
}

// List returns every recorded donation.
func (s *DonationService) List(ctx context.Context) ([]domain.Donation, error) {
	donations, err := s.donations.List(ctx)
	return donations, storeError(err, "")
}
