package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/money"
)

// Counts содержит агрегированные счётчики для панели администратора.
type Counts struct {
	Users              int64
	Campaigns          int64
	ActiveCampaigns    int64
	CompletedCampaigns int64
	Donations          int64
	FundsMinor         int64
}

// GetCounts возвращает количество пользователей, кампаний, пожертвований и сумму завершённых пожертвований.
func (r *PostgresRepository) GetCounts(ctx context.Context) (*Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM users),
		     (SELECT COUNT(*) FROM campaigns),
		     (SELECT COUNT(*) FROM campaigns WHERE status = $1),
		     (SELECT COUNT(*) FROM campaigns WHERE status = $2),
		     (SELECT COUNT(*) FROM donations),
		     (SELECT COALESCE(SUM(amount), 0)::BIGINT FROM donations WHERE status = $3)`,
		string(model.CampaignStatusActive),
		string(model.CampaignStatusCompleted),
		string(model.DonationStatusCompleted),
	).Scan(&c.Users, &c.Campaigns, &c.ActiveCampaigns, &c.CompletedCampaigns, &c.Donations, &c.FundsMinor)
	if err != nil {
		return nil, fmt.Errorf("select counts: %w", err)
	}
	return &c, nil
}

// GetMonthlyDonations возвращает суммы завершённых пожертвований по месяцам начиная с since.
func (r *PostgresRepository) GetMonthlyDonations(ctx context.Context, since time.Time) ([]model.MonthlyAmount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('month', created_at AT TIME ZONE 'UTC') AS month, SUM(amount)::BIGINT
		 FROM donations
		 WHERE status = $1 AND created_at >= $2
		 GROUP BY month
		 ORDER BY month`,
		string(model.DonationStatusCompleted), since,
	)
	if err != nil {
		return nil, fmt.Errorf("select monthly donations: %w", err)
	}
	defer rows.Close()

	res := make([]model.MonthlyAmount, 0, 6)
	for rows.Next() {
		var (
			month time.Time
			total int64
		)
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("scan monthly donations: %w", err)
		}
		res = append(res, model.MonthlyAmount{
			Name:   month.Month().String()[:3],
			Amount: money.FromMinor(total),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
