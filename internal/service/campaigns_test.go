package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/crowdfund/internal/model"
)

func validCampaignInput() CampaignInput {
	return CampaignInput{
		Title:      "  School library  ",
		GoalAmount: decimal.RequireFromString("25000.50"),
		Category:   model.CategoryEducation,
		Deadline:   time.Now().Add(72 * time.Hour),
	}
}

func TestCreateCampaign(t *testing.T) {
	repo := newStubRepo()
	creator := repo.addUser(model.RoleUser, false)
	svc := newTestService(repo)

	c, err := svc.CreateCampaign(context.Background(), creator.ID, validCampaignInput())
	require.NoError(t, err)
	assert.Equal(t, "School library", c.Title)
	assert.Equal(t, creator.ID, c.CreatorID)
	assert.Equal(t, model.DefaultCampaignImage, c.Image)
	assert.Equal(t, model.CampaignStatusActive, c.Status)
	assert.True(t, c.GoalAmount.Equal(decimal.RequireFromString("25000.50")))
	assert.True(t, c.RaisedAmount.IsZero())
}

func TestCreateCampaign_Validation(t *testing.T) {
	repo := newStubRepo()
	creator := repo.addUser(model.RoleUser, false)
	svc := newTestService(repo)

	tests := []struct {
		name   string
		mutate func(*CampaignInput)
	}{
		{"missing title", func(in *CampaignInput) { in.Title = " " }},
		{"zero goal", func(in *CampaignInput) { in.GoalAmount = decimal.Zero }},
		{"past deadline", func(in *CampaignInput) { in.Deadline = time.Now().Add(-time.Hour) }},
		{"missing deadline", func(in *CampaignInput) { in.Deadline = time.Time{} }},
		{"unknown category", func(in *CampaignInput) { in.Category = "Sports" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCampaignInput()
			tt.mutate(&in)

			_, err := svc.CreateCampaign(context.Background(), creator.ID, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateCampaign_BannedUser(t *testing.T) {
	repo := newStubRepo()
	banned := repo.addUser(model.RoleUser, true)
	svc := newTestService(repo)

	_, err := svc.CreateCampaign(context.Background(), banned.ID, validCampaignInput())
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestUpdateCampaign_Authorization(t *testing.T) {
	repo := newStubRepo()
	owner := repo.addUser(model.RoleUser, false)
	other := repo.addUser(model.RoleUser, false)
	admin := repo.addUser(model.RoleAdmin, false)
	campaign := repo.addCampaign(owner.ID, 100000)
	svc := newTestService(repo)

	title := "Renamed"

	_, err := svc.UpdateCampaign(context.Background(), other.ID, campaign.ID, CampaignUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := svc.UpdateCampaign(context.Background(), owner.ID, campaign.ID, CampaignUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", c.Title)

	goal := decimal.NewFromInt(5000)
	c, err = svc.UpdateCampaign(context.Background(), admin.ID, campaign.ID, CampaignUpdate{GoalAmount: &goal})
	require.NoError(t, err)
	assert.True(t, c.GoalAmount.Equal(goal))

	_, err = svc.UpdateCampaign(context.Background(), owner.ID, uuid.New(), CampaignUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCampaign_WithDonations(t *testing.T) {
	repo := newStubRepo()
	owner := repo.addUser(model.RoleUser, false)
	campaign := repo.addCampaign(owner.ID, 100000)
	empty := repo.addCampaign(owner.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	_, err := svc.VerifyAndRecord(context.Background(), owner.ID, paidRequest(repo, owner.ID, campaign.ID, "o", "p", "10"))
	require.NoError(t, err)

	err = svc.DeleteCampaign(context.Background(), owner.ID, campaign.ID)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, svc.DeleteCampaign(context.Background(), owner.ID, empty.ID))
	_, err = svc.GetCampaign(context.Background(), empty.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
