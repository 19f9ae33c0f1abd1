package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/crowdfund/internal/model"
)

const userColumns = `id, name, email, password_hash, role, is_banned, created_at`

func scanUser(row scanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsBanned, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CreateUser создаёт нового пользователя. Идентификатор и роль берутся из u.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_banned)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		u.ID, u.Name, strings.TrimSpace(u.Email), u.PasswordHash, string(u.Role), u.IsBanned,
	).Scan(&u.CreatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email),
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers возвращает пользователей, чьё имя или email содержит keyword, новые первыми.
func (r *PostgresRepository) ListUsers(ctx context.Context, keyword string) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE $1 = '' OR name ILIKE $2 OR email ILIKE $2
		 ORDER BY created_at DESC`,
		keyword, likePattern(keyword),
	)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var res []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		res = append(res, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ToggleUserBan инвертирует признак блокировки пользователя и возвращает новое значение.
func (r *PostgresRepository) ToggleUserBan(ctx context.Context, id uuid.UUID) (bool, error) {
	var banned bool
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET is_banned = NOT is_banned WHERE id = $1 RETURNING is_banned`,
		id,
	).Scan(&banned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("toggle ban: %w", err)
	}
	return banned, nil
}

// DeleteUser удаляет пользователя, если на него не ссылаются кампании и пожертвования.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
			return ErrUserReferenced
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
