package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/auth"
	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/repository"
	"github.com/liveflow/donor-service/internal/sanitize"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

// latestRequestLimit is how many requests the dashboard preview shows.
const latestRequestLimit = 3

// editableRequestFields may be changed through Edit. Status, donor fields and
// the registerer are owned by the lifecycle operations.
var editableRequestFields = []string{
	"recipientName",
	"hospitalName",
	"fullAddress",
	"bloodGroup",
	"zila",
	"upazila",
	"donationDate",
	"donationTime",
	"requestMessage",
}

// BloodRequestService coordinates the blood request lifecycle.
type BloodRequestService struct {
	requests repository.BloodRequestRepository
	deleted  repository.DeletedRequestRepository
	tx       repository.Transactor
	policy   *auth.Policy
	events   publisher
	logger   *zap.Logger
	now      func() time.Time
}

// BloodRequestDependencies bundles collaborators for the blood request service.
type BloodRequestDependencies struct {
	RequestRepo repository.BloodRequestRepository
	DeletedRepo repository.DeletedRequestRepository
	Transactor  repository.Transactor
	Policy      *auth.Policy
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewBloodRequestService constructs the service.
func NewBloodRequestService(deps BloodRequestDependencies) *BloodRequestService {
	return &BloodRequestService{
		requests: deps.RequestRepo,
		deleted:  deps.DeletedRepo,
		tx:       deps.Transactor,
		policy:   deps.Policy,
		events:   publisher{dispatcher: deps.Dispatcher, logger: deps.Logger},
		logger:   deps.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequestInput is the client-supplied body of a new request.
type CreateRequestInput struct {
	RegistererName  string
	RegistererEmail string
	RecipientName   string
	HospitalName    string
	FullAddress     string
	BloodGroup      string
	Zila            string
	Upazila         string
	DonationDate    string
	DonationTime    string
	RequestMessage  string
}

// Create stores a new pending request stamped with the server clock. Status
// and requestTime are never taken from the client.
func (s *BloodRequestService) Create(ctx context.Context, principal domain.Principal, input CreateRequestInput) (*domain.BloodRequest, error) {
	raw := input.RegistererEmail
	if strings.TrimSpace(raw) == "" {
		raw = principal.Email
	}
	email, err := normalizeEmail("registererEmail", raw)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, principal, auth.ActionCreateRequest, auth.Target{OwnerEmail: email}); err != nil {
		return nil, err
	}

	req := &domain.BloodRequest{
		RegistererName:  sanitize.Text(input.RegistererName),
		RegistererEmail: email,
		RecipientName:   sanitize.Text(input.RecipientName),
		HospitalName:    sanitize.Text(input.HospitalName),
		FullAddress:     sanitize.Text(input.FullAddress),
		BloodGroup:      sanitize.Text(input.BloodGroup),
		Zila:            sanitize.Text(input.Zila),
		Upazila:         sanitize.Text(input.Upazila),
		DonationDate:    sanitize.Text(input.DonationDate),
		DonationTime:    sanitize.Text(input.DonationTime),
		RequestMessage:  sanitize.Text(input.RequestMessage),
		RequestTime:     s.now(),
		Status:          domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, storeError(err, "")
	}

	s.events.publish(ctx, events.NewEvent(events.EventBloodRequestCreated, req.ID, principal.Email, requestPayload(req)))
	return req, nil
}

// Get returns the request with id, or nil when there is none.
func (s *BloodRequestService) Get(ctx context.Context, id string) (*domain.BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, id)
	}
	return req, nil
}

// ListByOwner returns the requests registered by email. With latest set only
// the newest few are returned.
func (s *BloodRequestService) ListByOwner(ctx context.Context, principal domain.Principal, email string, latest bool) ([]domain.BloodRequest, error) {
	email, err := normalizeEmail("email", email)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, principal, auth.ActionListOwnRequests, auth.Target{OwnerEmail: email}); err != nil {
		return nil, err
	}
	filter := repository.BloodRequestFilter{RegistererEmail: email}
	if latest {
		filter.NewestFirst = true
		filter.Limit = latestRequestLimit
	}
	reqs, err := s.requests.List(ctx, filter)
	return reqs, storeError(err, "")
}

// RequestFilter narrows the public listing.
type RequestFilter struct {
	BloodGroup string
	Status     string
}

// List returns every live request matching filter.
func (s *BloodRequestService) List(ctx context.Context, filter RequestFilter) ([]domain.BloodRequest, error) {
	status := domain.RequestStatus(strings.TrimSpace(filter.Status))
	if status != "" && !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": filter.Status})
	}
	reqs, err := s.requests.List(ctx, repository.BloodRequestFilter{
		BloodGroup: strings.TrimSpace(filter.BloodGroup),
		Status:     status,
	})
	return reqs, storeError(err, "")
}

// ListPending returns requests still waiting for a donor.
func (s *BloodRequestService) ListPending(ctx context.Context) ([]domain.BloodRequest, error) {
	return s.List(ctx, RequestFilter{Status: string(domain.RequestStatusPending)})
}

// AssignDonorInput carries the donor taking a pending request.
type AssignDonorInput struct {
	ID         string
	Status     domain.RequestStatus
	DonorName  string
	DonorEmail string
}

// AssignDonor moves a pending request to in-progress and records the donor.
// A request that exists but is no longer pending is a conflict; an unknown id
// matches nothing.
func (s *BloodRequestService) AssignDonor(ctx context.Context, principal domain.Principal, input AssignDonorInput) (repository.UpdateResult, error) {
	if input.Status != domain.RequestStatusInProgress {
		return repository.UpdateResult{}, apperrors.NewValidationError("status must be in-progress", map[string]any{"status": input.Status})
	}
	donorName := sanitize.Text(input.DonorName)
	if donorName == "" {
		return repository.UpdateResult{}, apperrors.NewValidationError("donorName is required", nil)
	}
	donorEmail, err := normalizeEmail("donorEmail", input.DonorEmail)
	if err != nil {
		return repository.UpdateResult{}, err
	}

	req, err := s.load(ctx, input.ID)
	if err != nil || req == nil {
		return repository.UpdateResult{}, err
	}
	target := auth.Target{OwnerEmail: req.RegistererEmail, DonorEmail: donorEmail}
	if err := s.policy.Authorize(ctx, principal, auth.ActionAssignDonor, target); err != nil {
		return repository.UpdateResult{}, err
	}

	res, err := s.transition(ctx, req, domain.RequestStatusInProgress, repository.Patch{
		"donorName":  donorName,
		"donorEmail": donorEmail,
	})
	if err != nil {
		return res, err
	}

	req.Status, req.DonorName, req.DonorEmail = domain.RequestStatusInProgress, donorName, donorEmail
	s.events.publish(ctx, events.NewEvent(events.EventDonorAssigned, req.ID, principal.Email, requestPayload(req)))
	return res, nil
}

// Complete moves an in-progress request to done.
func (s *BloodRequestService) Complete(ctx context.Context, principal domain.Principal, id string, status domain.RequestStatus) (repository.UpdateResult, error) {
	if status != domain.RequestStatusDone {
		return repository.UpdateResult{}, apperrors.NewValidationError("status must be done", map[string]any{"status": status})
	}
	req, err := s.load(ctx, id)
	if err != nil || req == nil {
		return repository.UpdateResult{}, err
	}
	target := auth.Target{OwnerEmail: req.RegistererEmail, DonorEmail: req.DonorEmail}
	if err := s.policy.Authorize(ctx, principal, auth.ActionCompleteRequest, target); err != nil {
		return repository.UpdateResult{}, err
	}

	res, err := s.transition(ctx, req, domain.RequestStatusDone, nil)
	if err != nil {
		return res, err
	}
	req.Status = domain.RequestStatusDone
	s.events.publish(ctx, events.NewEvent(events.EventBloodRequestDone, req.ID, principal.Email, requestPayload(req)))
	return res, nil
}

// Edit merge-patches the descriptive fields of a request and stamps edit_At.
// Keys outside the editable set are ignored.
func (s *BloodRequestService) Edit(ctx context.Context, principal domain.Principal, id string, fields map[string]any) (repository.UpdateResult, error) {
	patch, err := allowedPatch(fields, editableRequestFields)
	if err != nil {
		return repository.UpdateResult{}, err
	}
	req, err := s.load(ctx, id)
	if err != nil || req == nil {
		return repository.UpdateResult{}, err
	}
	if err := s.policy.Authorize(ctx, principal, auth.ActionEditRequest, auth.Target{OwnerEmail: req.RegistererEmail}); err != nil {
		return repository.UpdateResult{}, err
	}

	sanitize.Fields(patch, editableRequestFields...)
	patch["edit_At"] = s.now()
	res, err := s.requests.Update(ctx, id, "", patch)
	return res, storeError(err, id)
}

// RetireResult reports the outcome of Retire.
type RetireResult struct {
	ArchivedID string
	Deleted    int64
	Resumed    bool
}

// Retire copies a request into the archive and removes the live record. The
// archive copy is taken from snapshot when given, else from the stored
// request. On backends without transactions a retry after a failed delete
// finds the archive copy already present and only completes the delete.
func (s *BloodRequestService) Retire(ctx context.Context, principal domain.Principal, id string, snapshot *domain.BloodRequest) (*RetireResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("id is required", nil)
	}

	result := &RetireResult{}
	var retired *domain.BloodRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		atomic := repository.InTransaction(ctx)

		stored, err := s.load(ctx, id)
		if err != nil || stored == nil {
			return err
		}
		if err := s.policy.Authorize(ctx, principal, auth.ActionRetireRequest, auth.Target{OwnerEmail: stored.RegistererEmail}); err != nil {
			return err
		}

		source := stored
		if snapshot != nil {
			source = snapshot
		}
		archived := source.Archive(id, s.now())
		switch err := s.deleted.Create(ctx, &archived); {
		case err == nil:
			result.ArchivedID = archived.ID
		case errors.Is(err, repository.ErrDuplicate) && !atomic:
			result.Resumed = true
		default:
			return storeError(err, id)
		}

		deleted, err := s.requests.Delete(ctx, id)
		if err != nil {
			if atomic {
				return storeError(err, id)
			}
			return apperrors.NewPartialFailure("request archived but not deleted; retry to finish",
				map[string]any{"id": id, "archivedId": result.ArchivedID}, err)
		}
		result.Deleted = deleted
		retired = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Resumed {
		s.logger.Info("resumed interrupted retire", zap.String("request_id", id))
	}
	if retired != nil && result.Deleted > 0 {
		s.events.publish(ctx, events.NewEvent(events.EventBloodRequestRetired, id, principal.Email, requestPayload(retired)))
	}
	return result, nil
}

// ListArchived returns every retired request.
func (s *BloodRequestService) ListArchived(ctx context.Context, principal domain.Principal) ([]domain.DeletedBloodRequest, error) {
	if err := s.policy.Authorize(ctx, principal, auth.ActionListArchived, auth.Target{}); err != nil {
		return nil, err
	}
	archived, err := s.deleted.List(ctx)
	return archived, storeError(err, "")
}

// load fetches a request, returning nil without error when it does not exist.
func (s *BloodRequestService) load(ctx context.Context, id string) (*domain.BloodRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, id)
	}
	return req, nil
}

// transition moves req to the status that follows its current one, applying
// patch alongside. The write is conditional on the status read, so a request
// moved by another writer in between is reported as a conflict.
func (s *BloodRequestService) transition(ctx context.Context, req *domain.BloodRequest, to domain.RequestStatus, patch repository.Patch) (repository.UpdateResult, error) {
	conflict := func(current domain.RequestStatus) error {
		return apperrors.NewConflict("request cannot move from "+string(current)+" to "+string(to), map[string]any{
			"id":     req.ID,
			"status": current,
		})
	}
	from := req.Status
	if from.Next() != to {
		return repository.UpdateResult{}, conflict(from)
	}

	update := repository.Patch{"status": to}
	for k, v := range patch {
		update[k] = v
	}
	res, err := s.requests.Update(ctx, req.ID, from, update)
	if err != nil {
		return res, storeError(err, req.ID)
	}
	if res.Matched > 0 {
		return res, nil
	}

	// Another writer moved or removed the request after it was read.
	current, err := s.load(ctx, req.ID)
	if err != nil {
		return res, err
	}
	if current == nil {
		return res, nil
	}
	return res, conflict(current.Status)
}

func requestPayload(req *domain.BloodRequest) events.BloodRequestPayload {
	return events.BloodRequestPayload{
		RegistererEmail: req.RegistererEmail,
		BloodGroup:      req.BloodGroup,
		Zila:            req.Zila,
		Upazila:         req.Upazila,
		Status:          string(req.Status),
		DonorName:       req.DonorName,
		DonorEmail:      req.DonorEmail,
	}
}
