package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/repository"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

func seededUsers(t *testing.T) repository.UserRepository {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, u := range []domain.User{
		{Email: "admin@example.com", Role: domain.UserRoleAdmin, Status: domain.UserStatusActive},
		{Email: "vol@example.com", Role: domain.UserRoleVolunteer, Status: domain.UserStatusActive},
		{Email: "donor@example.com", Role: domain.UserRoleDonor, Status: domain.UserStatusActive},
		{Email: "blocked@example.com", Role: domain.UserRoleAdmin, Status: domain.UserStatusBlocked},
	} {
		u := u
		require.NoError(t, store.Users.Create(context.Background(), &u))
	}
	return store.Users
}

func TestPolicy_NotEnforcedPermitsEverything(t *testing.T) {
	p := NewPolicy(false, seededUsers(t), zap.NewNop())
	ok, err := p.CanPerform(context.Background(), domain.Principal{Email: "stranger@example.com"}, ActionUpdateRole, Target{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewPolicy_WarnsWhenNotEnforced(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	NewPolicy(false, seededUsers(t), zap.New(core))
	NewPolicy(true, seededUsers(t), zap.New(core))
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "role enforcement disabled")
}

func TestPolicy_Enforced(t *testing.T) {
	p := NewPolicy(true, seededUsers(t), zap.NewNop())
	owner := Target{OwnerEmail: "donor@example.com"}

	tests := []struct {
		name   string
		email  string
		action Action
		target Target
		want   bool
	}{
		{name: "admin updates role", email: "admin@example.com", action: ActionUpdateRole, want: true},
		{name: "donor cannot update role", email: "donor@example.com", action: ActionUpdateRole, want: false},
		{name: "volunteer cannot list users", email: "vol@example.com", action: ActionListUsers, want: false},
		{name: "volunteer assigns donor", email: "vol@example.com", action: ActionAssignDonor, target: Target{OwnerEmail: "x@example.com"}, want: true},
		{name: "donor claims for self", email: "donor@example.com", action: ActionAssignDonor, target: Target{OwnerEmail: "x@example.com", DonorEmail: "donor@example.com"}, want: true},
		{name: "donor claims for another", email: "donor@example.com", action: ActionAssignDonor, target: Target{OwnerEmail: "x@example.com", DonorEmail: "y@example.com"}, want: false},
		{name: "owner edits", email: "donor@example.com", action: ActionEditRequest, target: owner, want: true},
		{name: "volunteer cannot edit", email: "vol@example.com", action: ActionEditRequest, target: owner, want: false},
		{name: "unknown user lists own", email: "new@example.com", action: ActionListOwnRequests, target: Target{OwnerEmail: "new@example.com"}, want: true},
		{name: "blocked admin cannot mutate", email: "blocked@example.com", action: ActionUpdateStatus, want: false},
		{name: "blocked admin can read", email: "blocked@example.com", action: ActionListUsers, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := p.CanPerform(context.Background(), domain.Principal{Email: tt.email}, tt.action, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestPolicy_AuthorizeReturnsForbidden(t *testing.T) {
	p := NewPolicy(true, seededUsers(t), zap.NewNop())
	err := p.Authorize(context.Background(), domain.Principal{Email: "donor@example.com"}, ActionViewStats, Target{})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}
