package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/repository"
)

const unknownID = "5b1f2a8e-4c8e-4c47-9a55-3c7e3a1c0f11"

func TestBloodRequestService_CreateStampsServerFields(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	req, err := f.requests.Create(ctx, principal("owner@example.com"), CreateRequestInput{
		RecipientName:  "<script>x</script>Ayesha",
		HospitalName:   "DMCH",
		BloodGroup:     "AB-",
		RequestMessage: "urgent & needed",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", req.RegistererEmail)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.True(t, req.RequestTime.Equal(fixedNow))
	assert.Equal(t, "Ayesha", req.RecipientName)
	assert.Equal(t, "urgent & needed", req.RequestMessage)
	assert.Equal(t, []events.EventType{events.EventBloodRequestCreated}, f.events.types())

	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, stored.ID)
}

func TestBloodRequestService_Get(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.requests.Get(ctx, "not-an-id")
	requireCode(t, err, "MALFORMED_ID")

	req, err := f.requests.Get(ctx, unknownID)
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestBloodRequestService_Lifecycle(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.seedRequest(t, "owner@example.com", domain.RequestStatusPending)
	actor := principal("donor@example.com")

	_, err := f.requests.Complete(ctx, actor, req.ID, domain.RequestStatusDone)
	requireCode(t, err, "CONFLICT")

	_, err = f.requests.AssignDonor(ctx, actor, AssignDonorInput{ID: req.ID, Status: domain.RequestStatusDone, DonorName: "D", DonorEmail: "donor@example.com"})
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.requests.AssignDonor(ctx, actor, AssignDonorInput{ID: req.ID, Status: domain.RequestStatusInProgress})
	requireCode(t, err, "VALIDATION_FAILED")

	res, err := f.requests.AssignDonor(ctx, actor, AssignDonorInput{ID: req.ID, Status: domain.RequestStatusInProgress, DonorName: "Donor", DonorEmail: "donor@example.com"})
	require.NoError(t, err)
	assert.Equal(t, repository.UpdateResult{Matched: 1, Modified: 1}, res)

	_, err = f.requests.AssignDonor(ctx, actor, AssignDonorInput{ID: req.ID, Status: domain.RequestStatusInProgress, DonorName: "Other", DonorEmail: "other@example.com"})
	requireCode(t, err, "CONFLICT")

	res, err = f.requests.Complete(ctx, actor, req.ID, domain.RequestStatusDone)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Modified)

	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusDone, stored.Status)
	assert.Equal(t, "donor@example.com", stored.DonorEmail)
	assert.Equal(t, []events.EventType{events.EventDonorAssigned, events.EventBloodRequestDone}, f.events.types())
}

func TestBloodRequestService_TransitionUnknownID(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.requests.AssignDonor(ctx, principal("d@example.com"), AssignDonorInput{ID: unknownID, Status: domain.RequestStatusInProgress, DonorName: "D", DonorEmail: "d@example.com"})
	require.NoError(t, err)
	assert.Zero(t, res.Matched)

	_, err = f.requests.Complete(ctx, principal("d@example.com"), "bogus", domain.RequestStatusDone)
	requireCode(t, err, "MALFORMED_ID")
}

func TestBloodRequestService_ListByOwnerLatest(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.requests.Create(ctx, principal("owner@example.com"), CreateRequestInput{RecipientName: "r"})
		require.NoError(t, err)
	}
	f.seedRequest(t, "someone@example.com", domain.RequestStatusPending)

	all, err := f.requests.ListByOwner(ctx, principal("owner@example.com"), "owner@example.com", false)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	latest, err := f.requests.ListByOwner(ctx, principal("owner@example.com"), "owner@example.com", true)
	require.NoError(t, err)
	assert.Len(t, latest, 3)
}

func TestBloodRequestService_ListFilters(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRequest(t, "a@example.com", domain.RequestStatusPending)
	f.seedRequest(t, "b@example.com", domain.RequestStatusDone)

	pending, err := f.requests.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a@example.com", pending[0].RegistererEmail)

	_, err = f.requests.List(ctx, RequestFilter{Status: "cancelled"})
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestBloodRequestService_Edit(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.seedUser(t, "owner@example.com", domain.UserRoleDonor, domain.UserStatusActive)
	f.seedUser(t, "stranger@example.com", domain.UserRoleDonor, domain.UserStatusActive)
	req := f.seedRequest(t, "owner@example.com", domain.RequestStatusPending)

	_, err := f.requests.Edit(ctx, principal("stranger@example.com"), req.ID, map[string]any{"hospitalName": "X"})
	requireCode(t, err, "FORBIDDEN")

	res, err := f.requests.Edit(ctx, principal("owner@example.com"), req.ID, map[string]any{
		"hospitalName": "Square",
		"status":       "done",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Modified)

	stored, _ := f.requests.Get(ctx, req.ID)
	assert.Equal(t, "Square", stored.HospitalName)
	assert.Equal(t, domain.RequestStatusPending, stored.Status)
	require.NotNil(t, stored.EditAt)
}

func TestBloodRequestService_Retire(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.seedRequest(t, "owner@example.com", domain.RequestStatusPending)

	res, err := f.requests.Retire(ctx, principal("owner@example.com"), req.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)
	assert.NotEmpty(t, res.ArchivedID)
	assert.False(t, res.Resumed)

	gone, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	archived, err := f.requests.ListArchived(ctx, principal("owner@example.com"))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, req.ID, archived[0].OriginalID)
	assert.Equal(t, "owner@example.com", archived[0].RegistererEmail)
	assert.NotEqual(t, req.ID, archived[0].ID)

	again, err := f.requests.Retire(ctx, principal("owner@example.com"), req.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, again.Deleted)
	assert.Contains(t, f.events.types(), events.EventBloodRequestRetired)
}

func TestBloodRequestService_RetireUsesSnapshot(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.seedRequest(t, "owner@example.com", domain.RequestStatusPending)

	snapshot := *req
	snapshot.RecipientName = "as shown to the user"
	_, err := f.requests.Retire(ctx, principal("owner@example.com"), req.ID, &snapshot)
	require.NoError(t, err)

	archived, err := f.store.Deleted.List(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "as shown to the user", archived[0].RecipientName)
}

func TestBloodRequestService_RetirePartialFailureThenResume(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.seedRequest(t, "owner@example.com", domain.RequestStatusPending)

	broken := *f.requests
	broken.requests = failingDelete{f.store.Requests}
	_, err := broken.Retire(ctx, principal("owner@example.com"), req.ID, nil)
	requireCode(t, err, "PARTIAL_FAILURE")

	live, _ := f.requests.Get(ctx, req.ID)
	require.NotNil(t, live, "live record survives the failed delete")
	archived, _ := f.store.Deleted.List(ctx)
	require.Len(t, archived, 1)

	res, err := f.requests.Retire(ctx, principal("owner@example.com"), req.ID, nil)
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, int64(1), res.Deleted)

	archived, _ = f.store.Deleted.List(ctx)
	assert.Len(t, archived, 1, "resume does not archive twice")
}

func TestBloodRequestService_RetireMalformedIDArchivesNothing(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.requests.Retire(ctx, principal("owner@example.com"), "xyz", &domain.BloodRequest{RegistererEmail: "owner@example.com"})
	requireCode(t, err, "MALFORMED_ID")

	archived, err := f.store.Deleted.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestBloodRequestService_ArchivedIsAdminOnlyWhenEnforced(t *testing.T) {
	f := newFixture(t, true)
	f.seedUser(t, "donor@example.com", domain.UserRoleDonor, domain.UserStatusActive)
	_, err := f.requests.ListArchived(context.Background(), principal("donor@example.com"))
	requireCode(t, err, "FORBIDDEN")
}

func TestBloodRequestService_RejectsMalformedEmail(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	owner := principal("owner@example.com")

	_, err := f.requests.Create(ctx, owner, CreateRequestInput{RegistererEmail: "owner at example"})
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.requests.ListByOwner(ctx, owner, "nope", false)
	requireCode(t, err, "VALIDATION_FAILED")

	req := f.seedRequest(t, "owner@example.com", domain.RequestStatusPending)
	_, err = f.requests.AssignDonor(ctx, owner, AssignDonorInput{
		ID:         req.ID,
		Status:     domain.RequestStatusInProgress,
		DonorName:  "Donor",
		DonorEmail: "donor@",
	})
	requireCode(t, err, "VALIDATION_FAILED")

	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, stored.Status)
	assert.Empty(t, f.events.types())
}

func TestBloodRequestService_DoneIsTerminal(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	req := f.seedRequest(t, "owner@example.com", domain.RequestStatusDone)

	_, err := f.requests.AssignDonor(ctx, principal("donor@example.com"), AssignDonorInput{
		ID: req.ID, Status: domain.RequestStatusInProgress, DonorName: "Donor", DonorEmail: "donor@example.com",
	})
	requireCode(t, err, "CONFLICT")

	_, err = f.requests.Complete(ctx, principal("owner@example.com"), req.ID, domain.RequestStatusDone)
	requireCode(t, err, "CONFLICT")
	assert.Empty(t, f.events.types())
}
