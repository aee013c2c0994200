package analytics

import (
	"context"

	"github.com/nulzo/calx-web/internal/store"
	"github.com/nulzo/calx-web/internal/store/model"
)

const defaultDays = 7

type Service interface {
	FetchStats(ctx context.Context, days int) ([]model.DailyStats, error)
}

type service struct {
	repo store.Repository
}

// NewService returns a Service over repo. A nil repo yields empty stats.
func NewService(repo store.Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) FetchStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	if days <= 0 {
		days = defaultDays
	}
	if s.repo == nil {
		return []model.DailyStats{}, nil
	}
	stats, err := s.repo.Attempts().GetDailyStats(ctx, days)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []model.DailyStats{}
	}
	return stats, nil
}
