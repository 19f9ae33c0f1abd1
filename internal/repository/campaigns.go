package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/money"
)

// Варианты сортировки списка кампаний.
const (
	SortNewest   = ""
	SortRaised   = "raised"
	SortDeadline = "deadline"
)

// CampaignFilter задаёт условия выборки публичного списка кампаний.
type CampaignFilter struct {
	Category string
	Search   string
	Sort     string
}

// CampaignPatch описывает частичное изменение кампании. nil-поля не изменяются.
type CampaignPatch struct {
	Title       *string
	Description *string
	Image       *string
	Category    *string
	GoalMinor   *int64
	Deadline    *time.Time
}

// CampaignModeration описывает решение администратора по кампании.
type CampaignModeration struct {
	IsApproved      *bool
	Status          *model.CampaignStatus
	RejectionReason *string
}

const campaignSelect = `
	SELECT c.id, c.title, c.description, c.goal_amount, c.raised_amount, c.image, c.category,
	       c.creator_id, u.name, u.email, c.is_approved, c.rejection_reason, c.status, c.deadline, c.created_at
	FROM campaigns c
	JOIN users u ON u.id = c.creator_id`

func scanCampaign(row scanner) (*model.Campaign, error) {
	var (
		c                 model.Campaign
		goal, raised      int64
		status            string
		creatorName, mail string
	)
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &goal, &raised, &c.Image, &c.Category,
		&c.CreatorID, &creatorName, &mail, &c.IsApproved, &c.RejectionReason, &status, &c.Deadline, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.GoalAmount = money.FromMinor(goal)
	c.RaisedAmount = money.FromMinor(raised)
	c.Status = model.CampaignStatus(status)
	c.Creator = &model.UserRef{ID: c.CreatorID, Name: creatorName, Email: mail}
	return &c, nil
}

func orderByClause(sort string) string {
	switch sort {
	case SortRaised:
		return ` ORDER BY c.raised_amount DESC, c.created_at DESC`
	case SortDeadline:
		return ` ORDER BY c.deadline ASC, c.created_at DESC`
	default:
		return ` ORDER BY c.created_at DESC`
	}
}

func (r *PostgresRepository) queryCampaigns(ctx context.Context, sql string, args ...any) ([]model.Campaign, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select campaigns: %w", err)
	}
	defer rows.Close()

	var res []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListCampaigns возвращает кампании по фильтру категории и подстроке названия.
func (r *PostgresRepository) ListCampaigns(ctx context.Context, f CampaignFilter) ([]model.Campaign, error) {
	return r.queryCampaigns(ctx,
		campaignSelect+`
		 WHERE ($1 = '' OR c.category = $1)
		   AND ($2 = '' OR c.title ILIKE $3)`+orderByClause(f.Sort),
		f.Category, f.Search, likePattern(f.Search),
	)
}

// ListAllCampaigns возвращает все кампании для панели администратора, новые первыми.
func (r *PostgresRepository) ListAllCampaigns(ctx context.Context) ([]model.Campaign, error) {
	return r.queryCampaigns(ctx, campaignSelect+orderByClause(SortNewest))
}

// GetCampaign возвращает кампанию по идентификатору.
func (r *PostgresRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, campaignSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// CreateCampaign сохраняет новую кампанию. Собранная сумма всегда начинается с нуля.
func (r *PostgresRepository) CreateCampaign(ctx context.Context, c *model.Campaign, goalMinor int64) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusActive
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO campaigns (id, title, description, goal_amount, raised_amount, image, category, creator_id, status, deadline)
		 VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		c.ID, c.Title, c.Description, goalMinor, c.Image, c.Category, c.CreatorID, string(c.Status), c.Deadline,
	).Scan(&c.CreatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
			return ErrUserNotFound
		}
		return fmt.Errorf("create campaign: %w", err)
	}

	c.GoalAmount = money.FromMinor(goalMinor)
	c.RaisedAmount = money.FromMinor(0)
	return nil
}

// UpdateCampaign применяет частичное изменение к кампании.
func (r *PostgresRepository) UpdateCampaign(ctx context.Context, id uuid.UUID, p CampaignPatch) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET
		     title       = COALESCE($2, title),
		     description = COALESCE($3, description),
		     image       = COALESCE($4, image),
		     category    = COALESCE($5, category),
		     goal_amount = COALESCE($6, goal_amount),
		     deadline    = COALESCE($7, deadline)
		 WHERE id = $1`,
		id, p.Title, p.Description, p.Image, p.Category, p.GoalMinor, p.Deadline,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// ModerateCampaign сохраняет решение администратора по кампании.
func (r *PostgresRepository) ModerateCampaign(ctx context.Context, id uuid.UUID, m CampaignModeration) error {
	var status *string
	if m.Status != nil {
		s := string(*m.Status)
		status = &s
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET
		     is_approved      = COALESCE($2, is_approved),
		     status           = COALESCE($3, status),
		     rejection_reason = COALESCE($4, rejection_reason)
		 WHERE id = $1`,
		id, m.IsApproved, status, m.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("moderate campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// DeleteCampaign удаляет кампанию, если по ней нет пожертвований.
func (r *PostgresRepository) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
			return ErrCampaignHasDonations
		}
		return fmt.Errorf("delete campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// SweepCampaignStatuses переводит активные кампании в completed при достижении цели
// и в expired после окончания срока. Возвращает число изменённых кампаний по каждому переходу.
func (r *PostgresRepository) SweepCampaignStatuses(ctx context.Context, now time.Time) (int64, int64, error) {
	completed, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET status = $1
		 WHERE status = $2 AND raised_amount >= goal_amount`,
		string(model.CampaignStatusCompleted), string(model.CampaignStatusActive),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("complete campaigns: %w", err)
	}

	expired, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET status = $1
		 WHERE status = $2 AND deadline < $3`,
		string(model.CampaignStatusExpired), string(model.CampaignStatusActive), now,
	)
	if err != nil {
		return completed.RowsAffected(), 0, fmt.Errorf("expire campaigns: %w", err)
	}

	return completed.RowsAffected(), expired.RowsAffected(), nil
}
