package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveflow/donor-service/internal/domain"
)

// newTestPostgres connects to TEST_POSTGRES_DSN, applies the schema and empties
// every table. Tests skip when the variable is unset.
func newTestPostgres(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE users, blood_requests, deleted_blood_requests, donations`)
	require.NoError(t, err)
	return NewPostgresStore(pool)
}

func TestPostgresStore_UserLifecycle(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	user := &domain.User{Email: "pg@example.com", Role: domain.UserRoleDonor, Status: domain.UserStatusActive}
	require.NoError(t, store.Users.Create(ctx, user))
	assert.ErrorIs(t, store.Users.Create(ctx, &domain.User{Email: "pg@example.com"}), ErrDuplicate)

	res, err := store.Users.Update(ctx, "pg@example.com", Patch{"status": domain.UserStatusBlocked})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 1}, res)

	res, err = store.Users.Update(ctx, "pg@example.com", Patch{"status": domain.UserStatusBlocked})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1}, res)

	got, err := store.Users.GetByEmail(ctx, "pg@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, domain.UserStatusBlocked, got.Status)
}

func TestPostgresStore_RetireInsideTransaction(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	req := &domain.BloodRequest{RegistererEmail: "r@example.com", Status: domain.RequestStatusPending, RequestTime: time.Now().UTC()}
	require.NoError(t, store.Requests.Create(ctx, req))

	err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		archived := req.Archive(req.ID, time.Now().UTC())
		if err := store.Deleted.Create(ctx, &archived); err != nil {
			return err
		}
		_, err := store.Requests.Delete(ctx, req.ID)
		return err
	})
	require.NoError(t, err)

	_, err = store.Requests.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	archived, err := store.Deleted.List(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, req.ID, archived[0].OriginalID)
}

func TestPostgresStore_DonationTotals(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, store.Donations.Create(ctx, &domain.Donation{TransactionID: "pi_a", Amount: 12.25}))
	require.NoError(t, store.Donations.Create(ctx, &domain.Donation{TransactionID: "pi_b", Amount: 7.75}))
	assert.ErrorIs(t, store.Donations.Create(ctx, &domain.Donation{TransactionID: "pi_a"}), ErrDuplicate)

	total, err := store.Donations.TotalAmount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, total, 0.0001)
}
