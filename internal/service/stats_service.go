package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/liveflow/donor-service/internal/repository"
)

// Stats summarises the platform for the admin dashboard.
type Stats struct {
	TotalUsers    int64   `json:"totalUsers"`
	TotalRequests int64   `json:"totalRequests"`
	TotalFunding  float64 `json:"totalFunding"`
}

// StatsService aggregates counters across collections. Access control is
// applied at the route.
type StatsService struct {
	store repository.Store
}

// NewStatsService constructs the service.
func NewStatsService(store repository.Store) *StatsService {
	return &StatsService{store: store}
}

// Get runs the three aggregates concurrently.
func (s *StatsService) Get(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Users.Count(ctx)
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Requests.Count(ctx)
		stats.TotalRequests = n
		return err
	})
	g.Go(func() error {
		total, err := s.store.Donations.TotalAmount(ctx)
		stats.TotalFunding = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, "")
	}
	return &stats, nil
}
