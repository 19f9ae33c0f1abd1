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
	"github.com/mmeshcher/crowdfund/internal/repository"
)

func TestAdminStats(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser(model.RoleUser, false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})
	svc.now = func() time.Time { return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC) }

	for _, p := range []string{"p1", "p2"} {
		_, err := svc.VerifyAndRecord(context.Background(), donor.ID, paidRequest(repo, donor.ID, campaign.ID, "o_"+p, p, "150"))
		require.NoError(t, err)
	}

	stats, err := svc.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.TotalDonations)
	assert.True(t, stats.TotalFunds.Equal(decimal.NewFromInt(300)))
	assert.Len(t, stats.RecentTransactions, 2)
	require.Len(t, stats.ChartData, 1)
	assert.Equal(t, "Oct", stats.ChartData[0].Name)
}

func TestToggleUserBan(t *testing.T) {
	repo := newStubRepo()
	admin := repo.addUser(model.RoleAdmin, false)
	user := repo.addUser(model.RoleUser, false)
	svc := newTestService(repo)

	banned, err := svc.ToggleUserBan(context.Background(), admin.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, banned)

	banned, err = svc.ToggleUserBan(context.Background(), admin.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, banned)

	_, err = svc.ToggleUserBan(context.Background(), admin.ID, admin.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteUser(t *testing.T) {
	repo := newStubRepo()
	admin := repo.addUser(model.RoleAdmin, false)
	donor := repo.addUser(model.RoleUser, false)
	idle := repo.addUser(model.RoleUser, false)
	campaign := repo.addCampaign(admin.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	_, err := svc.VerifyAndRecord(context.Background(), donor.ID, paidRequest(repo, donor.ID, campaign.ID, "o", "p", "10"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(context.Background(), admin.ID, donor.ID), ErrConflict)
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), admin.ID, admin.ID), ErrForbidden)
	require.NoError(t, svc.DeleteUser(context.Background(), admin.ID, idle.ID))

	_, err = svc.GetUser(context.Background(), idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModerateCampaign(t *testing.T) {
	repo := newStubRepo()
	admin := repo.addUser(model.RoleAdmin, false)
	owner := repo.addUser(model.RoleUser, false)
	campaign := repo.addCampaign(owner.ID, 100000)
	svc := newTestService(repo)

	_, err := svc.ModerateCampaign(context.Background(), owner.ID, campaign.ID, repository.CampaignModeration{})
	assert.ErrorIs(t, err, ErrForbidden)

	approved := true
	reason := "ok"
	c, err := svc.ModerateCampaign(context.Background(), admin.ID, campaign.ID, repository.CampaignModeration{
		IsApproved:      &approved,
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	assert.True(t, c.IsApproved)
	assert.Equal(t, "ok", c.RejectionReason)

	bad := model.CampaignStatus("archived")
	_, err = svc.ModerateCampaign(context.Background(), admin.ID, campaign.ID, repository.CampaignModeration{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	expired := model.CampaignStatusExpired
	c, err = svc.ModerateCampaign(context.Background(), admin.ID, campaign.ID, repository.CampaignModeration{Status: &expired})
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusExpired, c.Status)
}

func TestAdminMutations_BannedAdmin(t *testing.T) {
	repo := newStubRepo()
	admin := repo.addUser(model.RoleAdmin, true)
	user := repo.addUser(model.RoleUser, false)
	campaign := repo.addCampaign(user.ID, 100000)
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ToggleUserBan(ctx, admin.ID, user.ID)
	assert.ErrorIs(t, err, ErrUserBanned)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, user.ID), ErrUserBanned)

	approved := true
	_, err = svc.ModerateCampaign(ctx, admin.ID, campaign.ID, repository.CampaignModeration{IsApproved: &approved})
	assert.ErrorIs(t, err, ErrUserBanned)

	assert.ErrorIs(t, svc.AdminDeleteCampaign(ctx, admin.ID, campaign.ID), ErrUserBanned)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBanned)

	c, err := svc.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.False(t, c.IsApproved)
}

func TestAdminMutations_UnknownActor(t *testing.T) {
	repo := newStubRepo()
	user := repo.addUser(model.RoleUser, false)
	svc := newTestService(repo)

	_, err := svc.ToggleUserBan(context.Background(), uuid.New(), user.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
