package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/auth"
	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/payment"
	"github.com/liveflow/donor-service/internal/repository"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Subscribe(events.EventType, events.EventHandler) {}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeProcessor struct {
	CreateFunc func(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	GetFunc    func(ctx context.Context, sessionID string) (*payment.Session, error)
}

func (f *fakeProcessor) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	return f.CreateFunc(ctx, req)
}

func (f *fakeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	return f.GetFunc(ctx, sessionID)
}

// failingDelete wraps a request repository whose Delete always fails.
type failingDelete struct {
	repository.BloodRequestRepository
}

func (f failingDelete) Delete(context.Context, string) (int64, error) {
	return 0, errors.New("connection reset")
}

type fixture struct {
	store    repository.Store
	events   *recorder
	users    *UserService
	requests *BloodRequestService
}

func newFixture(t *testing.T, enforce bool) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	rec := &recorder{}
	logger := zap.NewNop()
	policy := auth.NewPolicy(enforce, store.Users, logger)

	users := NewUserService(UserDependencies{UserRepo: store.Users, Policy: policy, Dispatcher: rec, Logger: logger})
	users.now = func() time.Time { return fixedNow }
	requests := NewBloodRequestService(BloodRequestDependencies{
		RequestRepo: store.Requests,
		DeletedRepo: store.Deleted,
		Transactor:  store.Tx,
		Policy:      policy,
		Dispatcher:  rec,
		Logger:      logger,
	})
	requests.now = func() time.Time { return fixedNow }
	return &fixture{store: store, events: rec, users: users, requests: requests}
}

func (f *fixture) seedUser(t *testing.T, email string, role domain.UserRole, status domain.UserStatus) {
	t.Helper()
	require.NoError(t, f.store.Users.Create(context.Background(), &domain.User{Email: email, Role: role, Status: status}))
}

func (f *fixture) seedRequest(t *testing.T, owner string, status domain.RequestStatus) *domain.BloodRequest {
	t.Helper()
	req := &domain.BloodRequest{RegistererEmail: owner, BloodGroup: "B+", Status: status, RequestTime: fixedNow}
	require.NoError(t, f.store.Requests.Create(context.Background(), req))
	return req
}

func principal(email string) domain.Principal {
	return domain.Principal{Email: email, Subject: "uid-" + email}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, code), "want %s, got %v", code, err)
}
