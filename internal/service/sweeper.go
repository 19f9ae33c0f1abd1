package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval задаёт период обхода статусов кампаний по умолчанию.
const DefaultSweepInterval = time.Minute

// RunStatusSweeper периодически переводит активные кампании в completed или expired.
// Блокируется до отмены контекста.
func (s *Service) RunStatusSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepStatuses(ctx)
		}
	}
}

// SweepStatuses выполняет один проход обновления статусов.
func (s *Service) SweepStatuses(ctx context.Context) {
	completed, expired, err := s.repo.SweepCampaignStatuses(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("campaign status sweep failed", zap.Error(err))
		}
		return
	}

	if completed > 0 || expired > 0 {
		s.logger.Info("campaign statuses updated",
			zap.Int64("completed", completed),
			zap.Int64("expired", expired),
		)
	}
}
