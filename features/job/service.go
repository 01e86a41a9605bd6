package job

import (
	"context"
	"log/slog"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Failure, error) {
	return s.repo.List(ctx)
}

// Dismiss drops a journal row. The file itself stays untagged, so the worker
// picks it up again on its next cycle.
func (s *Service) Dismiss(ctx context.Context, hash string) error {
	f, err := s.repo.Get(ctx, hash)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByHash(ctx, hash); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "dismissed tagging failure", "hash", f.Hash, "attempts", f.Attempts)
	return nil
}
