package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/crowdfund/internal/money"
	"github.com/mmeshcher/crowdfund/internal/payment"
	"github.com/mmeshcher/crowdfund/internal/repository"
)

const testSecret = "test_key_secret"

type stubOrders struct {
	mu    sync.Mutex
	calls int
	last  int64
	err   error
}

func (s *stubOrders) CreateOrder(ctx context.Context, amountMinor int64, currency string) (*payment.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.last = amountMinor
	if s.err != nil {
		return nil, s.err
	}
	return &payment.Order{ID: "order_" + uuid.NewString()[:8], Amount: amountMinor, Currency: currency}, nil
}

func newDonationService(repo *stubRepo, orders *stubOrders) *Service {
	svc := NewService(repo, orders, payment.NewVerifier(testSecret, false, nil), nil)
	return svc
}

func signedRequest(campaignID uuid.UUID, orderID, paymentID, amount string) VerifyRequest {
	return VerifyRequest{
		OrderID:    orderID,
		PaymentID:  paymentID,
		Signature:  payment.Sign(testSecret, orderID, paymentID),
		CampaignID: campaignID.String(),
		Amount:     decimal.RequireFromString(amount),
	}
}

// paidRequest регистрирует заказ донора и возвращает подписанный запрос на ту же сумму.
func paidRequest(repo *stubRepo, donorID, campaignID uuid.UUID, orderID, paymentID, amount string) VerifyRequest {
	req := signedRequest(campaignID, orderID, paymentID, amount)
	minor, _ := money.ToMinor(req.Amount)
	repo.addOrder(orderID, donorID, minor)
	return req
}

func TestCreateOrder_ConvertsToMinorUnits(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	orders := &stubOrders{}
	svc := newDonationService(repo, orders)

	order, err := svc.CreateOrder(context.Background(), donor.ID, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, int64(50000), orders.last)
	assert.Equal(t, int64(50000), order.Amount)
	assert.Equal(t, "INR", order.Currency)

	saved, ok := repo.orders[order.ID]
	require.True(t, ok)
	assert.Equal(t, donor.ID, saved.UserID)
	assert.Equal(t, int64(50000), saved.AmountMinor)
}

func TestCreateOrder_Errors(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	banned := repo.addUser("user", true)

	t.Run("non-positive amount never reaches provider", func(t *testing.T) {
		orders := &stubOrders{}
		svc := newDonationService(repo, orders)

		_, err := svc.CreateOrder(context.Background(), donor.ID, decimal.Zero)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 0, orders.calls)
	})

	t.Run("provider failure", func(t *testing.T) {
		orders := &stubOrders{err: fmt.Errorf("%w: status 500", payment.ErrProvider)}
		svc := newDonationService(repo, orders)

		_, err := svc.CreateOrder(context.Background(), donor.ID, decimal.NewFromInt(10))
		assert.ErrorIs(t, err, payment.ErrProvider)
	})

	t.Run("order not persisted", func(t *testing.T) {
		broken := newStubRepo()
		user := broken.addUser("user", false)
		broken.err = fmt.Errorf("connection refused")
		svc := newDonationService(broken, &stubOrders{})

		_, err := svc.CreateOrder(context.Background(), user.ID, decimal.NewFromInt(10))
		assert.ErrorIs(t, err, ErrPersistence)
	})

	t.Run("banned user", func(t *testing.T) {
		orders := &stubOrders{}
		svc := newDonationService(repo, orders)

		_, err := svc.CreateOrder(context.Background(), banned.ID, decimal.NewFromInt(10))
		assert.ErrorIs(t, err, ErrUserBanned)
		assert.Equal(t, 0, orders.calls)
	})
}

func TestVerifyAndRecord_RecordsDonation(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	id, err := svc.VerifyAndRecord(context.Background(), donor.ID, paidRequest(repo, donor.ID, campaign.ID, "order_1", "pay_1", "500"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, int64(50000), repo.raisedMinor(campaign.ID))

	list, err := svc.ListDonationsForUser(context.Background(), donor.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestVerifyAndRecord_TamperedSignature(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	req := paidRequest(repo, donor.ID, campaign.ID, "order_1", "pay_1", "500")
	req.PaymentID = "pay_2"

	_, err := svc.VerifyAndRecord(context.Background(), donor.ID, req)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	assert.Equal(t, int64(0), repo.raisedMinor(campaign.ID))
	assert.Equal(t, 0, repo.donationCount())
}

func TestVerifyAndRecord_ReplayIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	req := paidRequest(repo, donor.ID, campaign.ID, "order_1", "pay_1", "250.50")

	first, err := svc.VerifyAndRecord(context.Background(), donor.ID, req)
	require.NoError(t, err)
	second, err := svc.VerifyAndRecord(context.Background(), donor.ID, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(25050), repo.raisedMinor(campaign.ID))
	assert.Equal(t, 1, repo.donationCount())

	other := paidRequest(repo, donor.ID, campaign.ID, "order_2", "pay_1", "250.50")
	_, err = svc.VerifyAndRecord(context.Background(), donor.ID, other)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(25050), repo.raisedMinor(campaign.ID))
}

func TestVerifyAndRecord_AmountMustMatchOrder(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	order, err := svc.CreateOrder(context.Background(), donor.ID, decimal.NewFromInt(1))
	require.NoError(t, err)

	inflated := signedRequest(campaign.ID, order.ID, "pay_1", "1000000")
	_, err = svc.VerifyAndRecord(context.Background(), donor.ID, inflated)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, repository.ErrPaymentOrderMismatch)

	unknown := signedRequest(campaign.ID, "order_never_created", "pay_2", "1")
	_, err = svc.VerifyAndRecord(context.Background(), donor.ID, unknown)
	assert.ErrorIs(t, err, repository.ErrPaymentOrderNotFound)

	assert.Equal(t, int64(0), repo.raisedMinor(campaign.ID))
	assert.Equal(t, 0, repo.donationCount())

	_, err = svc.VerifyAndRecord(context.Background(), donor.ID, signedRequest(campaign.ID, order.ID, "pay_1", "1"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), repo.raisedMinor(campaign.ID))
}

func TestVerifyAndRecord_RejectsAnotherUsersPayment(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	intruder := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	req := paidRequest(repo, donor.ID, campaign.ID, "order_1", "pay_1", "100")
	first, err := svc.VerifyAndRecord(context.Background(), donor.ID, req)
	require.NoError(t, err)

	id, err := svc.VerifyAndRecord(context.Background(), intruder.ID, req)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotEqual(t, first, id)

	own := paidRequest(repo, intruder.ID, campaign.ID, "order_2", "pay_1", "100")
	_, err = svc.VerifyAndRecord(context.Background(), intruder.ID, own)
	assert.ErrorIs(t, err, ErrConflict)

	list, err := svc.ListDonationsForUser(context.Background(), intruder.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int64(10000), repo.raisedMinor(campaign.ID))
}

func TestVerifyAndRecord_Errors(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	tests := []struct {
		name string
		req  VerifyRequest
		want error
	}{
		{
			name: "malformed campaign id",
			req:  VerifyRequest{OrderID: "o", PaymentID: "p", Signature: payment.Sign(testSecret, "o", "p"), CampaignID: "42", Amount: decimal.NewFromInt(1)},
			want: ErrValidation,
		},
		{
			name: "zero amount",
			req:  signedRequest(campaign.ID, "o", "p", "0"),
			want: ErrValidation,
		},
		{
			name: "unknown campaign",
			req:  paidRequest(repo, donor.ID, uuid.New(), "o", "p", "10"),
			want: ErrNotFound,
		},
		{
			name: "missing signature",
			req:  VerifyRequest{OrderID: "o", PaymentID: "p", CampaignID: campaign.ID.String(), Amount: decimal.NewFromInt(1)},
			want: payment.ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyAndRecord(context.Background(), donor.ID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, repo.donationCount())
}

func TestVerifyAndRecord_FailsClosedWithoutSecret(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := NewService(repo, &stubOrders{}, payment.NewVerifier("", false, nil), nil)

	_, err := svc.VerifyAndRecord(context.Background(), donor.ID, signedRequest(campaign.ID, "o", "p", "10"))
	assert.ErrorIs(t, err, payment.ErrSecretNotConfigured)
	assert.Equal(t, 0, repo.donationCount())
}

func TestVerifyAndRecord_BannedDonorStillRecorded(t *testing.T) {
	repo := newStubRepo()
	owner := repo.addUser("user", false)
	banned := repo.addUser("user", true)
	campaign := repo.addCampaign(owner.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	_, err := svc.VerifyAndRecord(context.Background(), banned.ID, paidRequest(repo, banned.ID, campaign.ID, "o", "p", "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), repo.raisedMinor(campaign.ID))
}

func TestVerifyAndRecord_PersistenceFailure(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	repo.err = repository.ErrUserNotFound
	svc := newDonationService(repo, &stubOrders{})

	_, err := svc.VerifyAndRecord(context.Background(), donor.ID, signedRequest(campaign.ID, "o", "p", "10"))
	assert.ErrorIs(t, err, ErrNotFound)

	repo.err = fmt.Errorf("connection refused")
	_, err = svc.VerifyAndRecord(context.Background(), donor.ID, signedRequest(campaign.ID, "o", "p", "10"))
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestVerifyAndRecord_ConcurrentDonations(t *testing.T) {
	repo := newStubRepo()
	donor := repo.addUser("user", false)
	campaign := repo.addCampaign(donor.ID, 100000)
	svc := newDonationService(repo, &stubOrders{})

	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := paidRequest(repo, donor.ID, campaign.ID, fmt.Sprintf("order_%d", i), fmt.Sprintf("pay_%d", i), "20")
			_, err := svc.VerifyAndRecord(context.Background(), donor.ID, req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(n*2000), repo.raisedMinor(campaign.ID))
	assert.Equal(t, n, repo.donationCount())
}
