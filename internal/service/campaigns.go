package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/validation"
)

// CampaignInput содержит данные для создания кампании.
type CampaignInput struct {
	Title       string
	Description string
	Image       string
	Category    string
	GoalAmount  decimal.Decimal
	Deadline    time.Time
}

// CampaignUpdate описывает изменение кампании владельцем. nil-поля не изменяются.
type CampaignUpdate struct {
	Title       *string
	Description *string
	Image       *string
	Category    *string
	GoalAmount  *decimal.Decimal
	Deadline    *time.Time
}

// ListCampaigns возвращает публичный список кампаний.
func (s *Service) ListCampaigns(ctx context.Context, f repository.CampaignFilter) ([]model.Campaign, error) {
	f.Search = strings.TrimSpace(f.Search)
	if f.Category == "All" {
		f.Category = ""
	}

	campaigns, err := s.repo.ListCampaigns(ctx, f)
	if err != nil {
		return nil, storeError(err)
	}
	return campaigns, nil
}

// GetCampaign возвращает кампанию по идентификатору.
func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// CreateCampaign создаёт кампанию от имени пользователя.
func (s *Service) CreateCampaign(ctx context.Context, userID uuid.UUID, in CampaignInput) (*model.Campaign, error) {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := validation.Title(in.Title); err != nil {
		return nil, err
	}
	goalMinor, err := validation.Amount("goalAmount", in.GoalAmount)
	if err != nil {
		return nil, err
	}
	if err := validation.Deadline(in.Deadline, s.now()); err != nil {
		return nil, err
	}
	if err := validation.Category(in.Category); err != nil {
		return nil, err
	}

	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = model.DefaultCampaignImage
	}

	c := &model.Campaign{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Image:       image,
		Category:    in.Category,
		CreatorID:   userID,
		Status:      model.CampaignStatusActive,
		Deadline:    in.Deadline,
	}
	if err := s.repo.CreateCampaign(ctx, c, goalMinor); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("creator_id", userID.String()),
	)
	return s.GetCampaign(ctx, c.ID)
}

// authorizeCampaign проверяет, что пользователь является владельцем кампании или администратор.
func (s *Service) authorizeCampaign(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error) {
	actor, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if c.CreatorID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: campaign %s belongs to another user", ErrForbidden, campaignID)
	}
	return c, nil
}

// UpdateCampaign изменяет кампанию. Собранная сумма через этот путь не меняется.
func (s *Service) UpdateCampaign(ctx context.Context, userID, campaignID uuid.UUID, in CampaignUpdate) (*model.Campaign, error) {
	if _, err := s.authorizeCampaign(ctx, userID, campaignID); err != nil {
		return nil, err
	}

	var patch repository.CampaignPatch

	if in.Title != nil {
		if err := validation.Title(*in.Title); err != nil {
			return nil, err
		}
		title := strings.TrimSpace(*in.Title)
		patch.Title = &title
	}
	if in.Category != nil {
		if err := validation.Category(*in.Category); err != nil {
			return nil, err
		}
		patch.Category = in.Category
	}
	if in.GoalAmount != nil {
		goalMinor, err := validation.Amount("goalAmount", *in.GoalAmount)
		if err != nil {
			return nil, err
		}
		patch.GoalMinor = &goalMinor
	}
	if in.Deadline != nil {
		if err := validation.Deadline(*in.Deadline, s.now()); err != nil {
			return nil, err
		}
		patch.Deadline = in.Deadline
	}
	patch.Description = in.Description
	patch.Image = in.Image

	if err := s.repo.UpdateCampaign(ctx, campaignID, patch); err != nil {
		return nil, storeError(err)
	}

	return s.GetCampaign(ctx, campaignID)
}

// DeleteCampaign удаляет кампанию владельцем или администратором.
func (s *Service) DeleteCampaign(ctx context.Context, userID, campaignID uuid.UUID) error {
	if _, err := s.authorizeCampaign(ctx, userID, campaignID); err != nil {
		return err
	}

	if err := s.repo.DeleteCampaign(ctx, campaignID); err != nil {
		return storeError(err)
	}
	return nil
}
