package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/repository"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

// Action names an operation subject to authorization.
type Action string

const (
	ActionUpdateRole      Action = "update-role"
	ActionUpdateStatus    Action = "update-status"
	ActionListUsers       Action = "all-users"
	ActionListArchived    Action = "deleted-blood-req"
	ActionViewStats       Action = "admin-stats"
	ActionAssignDonor     Action = "update-blood-status"
	ActionCompleteRequest Action = "update-blood-status-done"
	ActionEditRequest     Action = "edit-request"
	ActionRetireRequest   Action = "delete-request"
	ActionListOwnRequests Action = "my-blood-req"
	ActionCreateRequest   Action = "create-request"
	ActionUpdateProfile   Action = "profile-update"
)

var adminOnly = map[Action]bool{
	ActionUpdateRole:   true,
	ActionUpdateStatus: true,
	ActionListUsers:    true,
	ActionListArchived: true,
	ActionViewStats:    true,
}

var readOnly = map[Action]bool{
	ActionListUsers:       true,
	ActionListArchived:    true,
	ActionViewStats:       true,
	ActionListOwnRequests: true,
}

// Target describes the data an action touches. OwnerEmail is the request
// registerer or the profile being edited; DonorEmail is the assigned or
// claiming donor.
type Target struct {
	OwnerEmail string
	DonorEmail string
}

// UserLookup loads the stored record of a principal.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Policy decides whether a principal may perform an action. When enforcement
// is off every authenticated principal is permitted, matching the historical
// behavior of the API.
type Policy struct {
	enforce bool
	users   UserLookup
	logger  *zap.Logger
}

// NewPolicy builds a Policy.
func NewPolicy(enforce bool, users UserLookup, logger *zap.Logger) *Policy {
	if !enforce {
		logger.Warn("role enforcement disabled; any signed-in user may call administrative routes")
	}
	return &Policy{enforce: enforce, users: users, logger: logger}
}

// CanPerform reports whether principal may perform action on target.
func (p *Policy) CanPerform(ctx context.Context, principal domain.Principal, action Action, target Target) (bool, error) {
	if !p.enforce {
		p.logger.Debug("authorization not enforced",
			zap.String("action", string(action)),
			zap.String("principal", principal.Email),
			zap.String("owner", target.OwnerEmail),
		)
		return true, nil
	}

	role, status, err := p.lookup(ctx, principal.Email)
	if err != nil {
		return false, err
	}
	if status == domain.UserStatusBlocked && !readOnly[action] {
		return false, nil
	}

	isAdmin := role == domain.UserRoleAdmin
	isOwner := target.OwnerEmail != "" && target.OwnerEmail == principal.Email
	isDonor := target.DonorEmail != "" && target.DonorEmail == principal.Email

	if adminOnly[action] {
		return isAdmin, nil
	}
	switch action {
	case ActionAssignDonor, ActionCompleteRequest:
		return isAdmin || role == domain.UserRoleVolunteer || isOwner || isDonor, nil
	case ActionEditRequest, ActionRetireRequest, ActionListOwnRequests, ActionCreateRequest, ActionUpdateProfile:
		return isAdmin || isOwner, nil
	}
	return false, nil
}

// Authorize is CanPerform returning a FORBIDDEN error on denial.
func (p *Policy) Authorize(ctx context.Context, principal domain.Principal, action Action, target Target) error {
	ok, err := p.CanPerform(ctx, principal, action, target)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbidden("not permitted to " + string(action))
	}
	return nil
}

func (p *Policy) lookup(ctx context.Context, email string) (domain.UserRole, domain.UserStatus, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.UserStatusActive, nil
		}
		return "", "", apperrors.NewUpstreamFailure("store", err)
	}
	return user.Role, user.Status, nil
}
