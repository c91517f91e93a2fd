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

// profileFields may be changed through UpdateProfile.
var profileFields = []string{"name", "image", "bloodGroup", "district", "upazila"}

// UserService coordinates user registration and administration.
type UserService struct {
	users  repository.UserRepository
	policy *auth.Policy
	events publisher
	now    func() time.Time
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Policy     *auth.Policy
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:  deps.UserRepo,
		policy: deps.Policy,
		events: publisher{dispatcher: deps.Dispatcher, logger: deps.Logger},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProfileInput is the client-supplied profile on sign-in.
type ProfileInput struct {
	Email      string
	Name       string
	Image      string
	BloodGroup string
	District   string
	Upazila    string
}

// RegisterResult reports whether sign-in created the user or touched an
// existing one.
type RegisterResult struct {
	Created    bool
	InsertedID string
	Update     repository.UpdateResult
}

// RegisterOrTouch creates the user on first sign-in as an active donor.
// Later sign-ins only refresh last_loggedIn.
func (s *UserService) RegisterOrTouch(ctx context.Context, input ProfileInput) (*RegisterResult, error) {
	email, err := normalizeEmail("email", input.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		Name:         sanitize.Text(input.Name),
		Image:        strings.TrimSpace(input.Image),
		BloodGroup:   sanitize.Text(input.BloodGroup),
		District:     sanitize.Text(input.District),
		Upazila:      sanitize.Text(input.Upazila),
		Role:         domain.UserRoleDonor,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		LastLoggedIn: now,
	}
	_, err = s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = s.users.Create(ctx, user)
		if err == nil {
			return &RegisterResult{Created: true, InsertedID: user.ID}, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, storeError(err, email)
		}
		// A concurrent first sign-in won the insert.
	case err != nil:
		return nil, storeError(err, email)
	}

	res, err := s.users.Update(ctx, email, repository.Patch{"last_loggedIn": now})
	if err != nil {
		return nil, storeError(err, email)
	}
	return &RegisterResult{Update: res}, nil
}

// Get returns the user with email, or nil when there is none.
func (s *UserService) Get(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, email)
	}
	return user, nil
}

// List returns all users, optionally narrowed by status.
func (s *UserService) List(ctx context.Context, principal domain.Principal, status string) ([]domain.User, error) {
	if err := s.policy.Authorize(ctx, principal, auth.ActionListUsers, auth.Target{}); err != nil {
		return nil, err
	}
	filter := repository.UserFilter{Status: domain.UserStatus(status)}
	if status != "" && filter.Status != domain.UserStatusActive && filter.Status != domain.UserStatusBlocked {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	users, err := s.users.List(ctx, filter)
	return users, storeError(err, "")
}

// SearchFilter narrows donor search. Empty fields impose no filter.
type SearchFilter struct {
	BloodGroup string
	District   string
	Upazila    string
}

// Search finds users matching every supplied field.
func (s *UserService) Search(ctx context.Context, filter SearchFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{
		BloodGroup: strings.TrimSpace(filter.BloodGroup),
		District:   strings.TrimSpace(filter.District),
		Upazila:    strings.TrimSpace(filter.Upazila),
	})
	return users, storeError(err, "")
}

// UpdateRole sets the role of the user with email.
func (s *UserService) UpdateRole(ctx context.Context, principal domain.Principal, email string, role domain.UserRole) (repository.UpdateResult, error) {
	email, err := normalizeEmail("email", email)
	if err != nil {
		return repository.UpdateResult{}, err
	}
	if !role.Valid() {
		return repository.UpdateResult{}, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if err := s.policy.Authorize(ctx, principal, auth.ActionUpdateRole, auth.Target{OwnerEmail: email}); err != nil {
		return repository.UpdateResult{}, err
	}
	res, err := s.users.Update(ctx, email, repository.Patch{"role": role})
	if err != nil {
		return res, storeError(err, email)
	}
	if res.Modified > 0 {
		s.events.publish(ctx, events.NewEvent(events.EventUserRoleChanged, email, principal.Email,
			events.UserChangedPayload{Email: email, Role: string(role)}))
	}
	return res, nil
}

// ToggleStatus flips the user between active and block. An unknown email
// matches nothing.
func (s *UserService) ToggleStatus(ctx context.Context, principal domain.Principal, email string) (repository.UpdateResult, error) {
	email, err := normalizeEmail("email", email)
	if err != nil {
		return repository.UpdateResult{}, err
	}
	if err := s.policy.Authorize(ctx, principal, auth.ActionUpdateStatus, auth.Target{OwnerEmail: email}); err != nil {
		return repository.UpdateResult{}, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.UpdateResult{}, nil
	}
	if err != nil {
		return repository.UpdateResult{}, storeError(err, email)
	}
	next := user.Status.Toggled()
	res, err := s.users.Update(ctx, email, repository.Patch{"status": next})
	if err != nil {
		return res, storeError(err, email)
	}
	if res.Modified > 0 {
		s.events.publish(ctx, events.NewEvent(events.EventUserStatusChanged, email, principal.Email,
			events.UserChangedPayload{Email: email, Status: string(next)}))
	}
	return res, nil
}

// UpdateProfile merge-patches the profile fields of the user with email.
// Fields outside the profile allow-list are ignored.
func (s *UserService) UpdateProfile(ctx context.Context, principal domain.Principal, email string, fields map[string]any) (repository.UpdateResult, error) {
	email, err := normalizeEmail("email", email)
	if err != nil {
		return repository.UpdateResult{}, err
	}
	patch, err := allowedPatch(fields, profileFields)
	if err != nil {
		return repository.UpdateResult{}, err
	}
	if err := s.policy.Authorize(ctx, principal, auth.ActionUpdateProfile, auth.Target{OwnerEmail: email}); err != nil {
		return repository.UpdateResult{}, err
	}
	sanitize.Fields(patch, "name", "bloodGroup", "district", "upazila")
	patch["last_update_At"] = s.now()
	res, err := s.users.Update(ctx, email, patch)
	return res, storeError(err, email)
}

// allowedPatch copies the allowed string fields of fields into a patch.
func allowedPatch(fields map[string]any, allowed []string) (repository.Patch, error) {
	patch := repository.Patch{}
	for _, key := range allowed {
		v, ok := fields[key]
		if !ok {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, apperrors.NewValidationError("field must be a string", map[string]any{"field": key})
		}
		patch[key] = strings.TrimSpace(str)
	}
	if len(patch) == 0 {
		return nil, apperrors.NewValidationError("no updatable fields supplied", map[string]any{"allowed": allowed})
	}
	return patch, nil
}
