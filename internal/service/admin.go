package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/money"
	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/validation"
)

const (
	chartMonths        = 6
	recentTransactions = 5
)

// AdminStats собирает сводку для панели администратора.
func (s *Service) AdminStats(ctx context.Context) (*model.AdminStats, error) {
	counts, err := s.repo.GetCounts(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month()-(chartMonths-1), 1, 0, 0, 0, 0, time.UTC)

	chart, err := s.repo.GetMonthlyDonations(ctx, since)
	if err != nil {
		return nil, storeError(err)
	}

	recent, err := s.repo.ListDonations(ctx, recentTransactions)
	if err != nil {
		return nil, storeError(err)
	}

	return &model.AdminStats{
		TotalUsers:         counts.Users,
		TotalCampaigns:     counts.Campaigns,
		ActiveCampaigns:    counts.ActiveCampaigns,
		CompletedCampaigns: counts.CompletedCampaigns,
		TotalDonations:     counts.Donations,
		TotalFunds:         money.FromMinor(counts.FundsMinor),
		ChartData:          chart,
		RecentTransactions: recent,
	}, nil
}

// ListUsers ищет пользователей по имени или email.
func (s *Service) ListUsers(ctx context.Context, keyword string) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx, strings.TrimSpace(keyword))
	if err != nil {
		return nil, storeError(err)
	}
	return users, nil
}

// ToggleUserBan переключает блокировку пользователя и возвращает новое значение.
func (s *Service) ToggleUserBan(ctx context.Context, actorID, userID uuid.UUID) (bool, error) {
	if err := s.activeAdmin(ctx, actorID); err != nil {
		return false, err
	}
	if actorID == userID {
		return false, fmt.Errorf("%w: cannot ban yourself", ErrForbidden)
	}

	banned, err := s.repo.ToggleUserBan(ctx, userID)
	if err != nil {
		return false, storeError(err)
	}

	s.logger.Info("user ban toggled",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", actorID.String()),
		zap.Bool("banned", banned),
	)
	return banned, nil
}

// DeleteUser удаляет пользователя без кампаний и пожертвований.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if err := s.activeAdmin(ctx, actorID); err != nil {
		return err
	}
	if actorID == userID {
		return fmt.Errorf("%w: cannot delete yourself", ErrForbidden)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return storeError(err)
	}

	s.logger.Info("user deleted",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", actorID.String()),
	)
	return nil
}

// ListAllCampaigns возвращает все кампании, включая неодобренные.
func (s *Service) ListAllCampaigns(ctx context.Context) ([]model.Campaign, error) {
	campaigns, err := s.repo.ListAllCampaigns(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return campaigns, nil
}

// ModerateCampaign применяет решение администратора к кампании.
func (s *Service) ModerateCampaign(ctx context.Context, actorID, campaignID uuid.UUID, m repository.CampaignModeration) (*model.Campaign, error) {
	if err := s.activeAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if m.Status != nil {
		if err := validation.Status(*m.Status); err != nil {
			return nil, err
		}
	}

	if err := s.repo.ModerateCampaign(ctx, campaignID, m); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("campaign moderated",
		zap.String("campaign_id", campaignID.String()),
		zap.String("admin_id", actorID.String()),
	)

	return s.GetCampaign(ctx, campaignID)
}

// AdminDeleteCampaign удаляет кампанию без проверки владельца.
func (s *Service) AdminDeleteCampaign(ctx context.Context, actorID, campaignID uuid.UUID) error {
	if err := s.activeAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.repo.DeleteCampaign(ctx, campaignID); err != nil {
		return storeError(err)
	}

	s.logger.Info("campaign deleted by admin",
		zap.String("campaign_id", campaignID.String()),
		zap.String("admin_id", actorID.String()),
	)
	return nil
}

// activeAdmin проверяет по хранилищу, что действующий пользователь не заблокирован и остаётся администратором.
func (s *Service) activeAdmin(ctx context.Context, actorID uuid.UUID) error {
	actor, err := s.activeUser(ctx, actorID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: unknown actor", ErrForbidden)
	}
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// ListAllDonations возвращает все пожертвования с пометкой подозрительных сумм.
func (s *Service) ListAllDonations(ctx context.Context) ([]model.DonationView, error) {
	donations, err := s.repo.ListDonations(ctx, 0)
	if err != nil {
		return nil, storeError(err)
	}
	return donations, nil
}
