package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveflow/donor-service/internal/domain"
)

func TestMemoryUsers_CreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &domain.User{Email: "a@example.com", Role: domain.UserRoleDonor, Status: domain.UserStatusActive}
	require.NoError(t, store.Users.Create(ctx, first))
	assert.NotEmpty(t, first.ID)

	err := store.Users.Create(ctx, &domain.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	count, err := store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryUsers_UpdateReportsMatchedAndModified(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Users.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.UserRoleDonor}))

	res, err := store.Users.Update(ctx, "a@example.com", Patch{"role": domain.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 1}, res)

	res, err = store.Users.Update(ctx, "a@example.com", Patch{"role": domain.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 0}, res)

	res, err = store.Users.Update(ctx, "missing@example.com", Patch{"role": domain.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{}, res)

	user, err := store.Users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, user.Role)
}

func TestMemoryUsers_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, u := range []domain.User{
		{Email: "a@example.com", Status: domain.UserStatusActive, BloodGroup: "A+", District: "Dhaka"},
		{Email: "b@example.com", Status: domain.UserStatusBlocked, BloodGroup: "A+", District: "Dhaka"},
		{Email: "c@example.com", Status: domain.UserStatusActive, BloodGroup: "O-", District: "Sylhet"},
	} {
		u := u
		require.NoError(t, store.Users.Create(ctx, &u))
	}

	all, err := store.Users.List(ctx, UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "a@example.com", all[0].Email)

	donors, err := store.Users.List(ctx, UserFilter{Status: domain.UserStatusActive, BloodGroup: "A+"})
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, "a@example.com", donors[0].Email)
}

func TestMemoryRequests_MalformedAndMissingIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Requests.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrMalformedID)

	_, err = store.Requests.GetByID(ctx, "5b1f2a8e-4c8e-4c47-9a55-3c7e3a1c0f11")
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := store.Requests.Delete(ctx, "5b1f2a8e-4c8e-4c47-9a55-3c7e3a1c0f11")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestMemoryRequests_ConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	req := &domain.BloodRequest{RegistererEmail: "r@example.com", Status: domain.RequestStatusPending, RequestTime: time.Now()}
	require.NoError(t, store.Requests.Create(ctx, req))

	res, err := store.Requests.Update(ctx, req.ID, domain.RequestStatusInProgress, Patch{"status": domain.RequestStatusDone})
	require.NoError(t, err)
	assert.Zero(t, res.Matched)

	res, err = store.Requests.Update(ctx, req.ID, domain.RequestStatusPending, Patch{
		"status":     domain.RequestStatusInProgress,
		"donorName":  "Donor",
		"donorEmail": "d@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 1}, res)

	got, err := store.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusInProgress, got.Status)
	assert.Equal(t, "d@example.com", got.DonorEmail)
	assert.Equal(t, "r@example.com", got.RegistererEmail)
}

func TestMemoryRequests_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Requests.Create(ctx, &domain.BloodRequest{
			RegistererEmail: "r@example.com",
			RecipientName:   string(rune('a' + i)),
			Status:          domain.RequestStatusPending,
			RequestTime:     base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.Requests.Create(ctx, &domain.BloodRequest{
		RegistererEmail: "other@example.com",
		Status:          domain.RequestStatusPending,
		RequestTime:     base.Add(24 * time.Hour),
	}))

	latest, err := store.Requests.List(ctx, BloodRequestFilter{RegistererEmail: "r@example.com", NewestFirst: true, Limit: 3})
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, "e", latest[0].RecipientName)
	assert.Equal(t, "d", latest[1].RecipientName)
	assert.Equal(t, "c", latest[2].RecipientName)
}

func TestMemoryDeleted_OriginalIDIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	req := domain.BloodRequest{ID: "orig", RegistererEmail: "r@example.com", Status: domain.RequestStatusPending}

	first := req.Archive("orig", time.Now())
	require.NoError(t, store.Deleted.Create(ctx, &first))
	assert.NotEqual(t, "orig", first.ID)

	second := req.Archive("orig", time.Now())
	assert.ErrorIs(t, store.Deleted.Create(ctx, &second), ErrDuplicate)

	archived, err := store.Deleted.List(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "orig", archived[0].OriginalID)
}

func TestMemoryDonations_TotalAndUniqueTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Donations.Create(ctx, &domain.Donation{TransactionID: "pi_1", Amount: 10.5}))
	require.NoError(t, store.Donations.Create(ctx, &domain.Donation{TransactionID: "pi_2", Amount: 4.5}))
	assert.ErrorIs(t, store.Donations.Create(ctx, &domain.Donation{TransactionID: "pi_1", Amount: 1}), ErrDuplicate)

	total, err := store.Donations.TotalAmount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, total, 0.0001)

	got, err := store.Donations.GetByTransactionID(ctx, "pi_2")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.Amount, 0.0001)
}

func TestMemoryTransactor_IsNotTransactional(t *testing.T) {
	store := NewMemoryStore()
	var inside bool
	err := store.Tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		inside = InTransaction(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, inside)
}
