package accounts

import (
	"context"
	"log/slog"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Chart loads the current chart of accounts as an immutable handle.
func (s *Service) Chart(ctx context.Context) (*Chart, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewChart(list)
}

// Seed validates and stores the accounts, keyed by number.
func (s *Service) Seed(ctx context.Context, list []Account) ([]Account, error) {
	for i := range list {
		if err := list[i].Validate(); err != nil {
			return nil, err
		}
	}
	stored, err := s.repo.Upsert(ctx, list)
	if err != nil {
		return nil, err
	}
	s.logger.Info("chart of accounts seeded", slog.Int("accounts", len(stored)))
	return stored, nil
}
