package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bmitiku/grocery-system/internal/model"
)

const userColumns = `id, name, email, phone, address, password_hash, role, status,
	verification_status, gov_id_front, gov_id_back, balance, pending_balance,
	otp_hash, otp_expires_at, restricted_at, verified_at, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.PasswordHash,
		&u.Role, &u.Status, &u.VerificationStatus, &u.GovIDFront, &u.GovIDBack,
		&u.BalanceCents, &u.PendingBalanceCents, &u.OTPHash, &u.OTPExpiresAt,
		&u.RestrictedAt, &u.VerifiedAt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser создаёт нового пользователя с ролью user и статусом active.
func (r *PostgresRepository) CreateUser(ctx context.Context, name, email, phone string, passwordHash []byte) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, password_hash, role, status, verification_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		name, email, phone, passwordHash,
		string(model.RoleUser), string(model.StatusActive), string(model.VerificationPending),
	)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по адресу электронной почты.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UserFilter задаёт параметры выборки списка пользователей.
type UserFilter struct {
	Search             string
	Role               string
	Status             string
	VerificationStatus string
	SortBy             string
	SortOrder          string
}

// userSortColumns перечисляет колонки, по которым разрешена сортировка списка.
var userSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"status":     "status",
	"created_at": "created_at",
}

// ListUsers возвращает список пользователей с учётом фильтров.
// Без явной сортировки новые записи идут первыми.
func (r *PostgresRepository) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Search != "" {
		add(`(name ILIKE $%[1]d OR email ILIKE $%[1]d OR phone ILIKE $%[1]d)`, "%"+filter.Search+"%")
	}
	if filter.Role != "" {
		add(`role = $%d`, filter.Role)
	}
	if filter.Status != "" {
		add(`status = $%d`, filter.Status)
	}
	if filter.VerificationStatus != "" {
		add(`verification_status = $%d`, filter.VerificationStatus)
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ` + orderClause(userSortColumns, filter.SortBy, filter.SortOrder, "created_at")

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// UpdateProfile обновляет контактные данные пользователя.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, name, email, phone, address string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, phone = $4, address = $5
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, email, phone, address)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, err
	}
	return u, nil
}

// lockUser блокирует строку пользователя на время транзакции и возвращает её.
// Блокировка до проверки предусловий гарантирует, что параллельные операции
// над одной учётной записью сериализуются.
func lockUser(ctx context.Context, tx pgx.Tx, id int64) (*model.User, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

// adminCount блокирует все административные строки и возвращает их число.
// Без блокировки набора два параллельных понижения разных администраторов
// видят счётчик 2 и вдвоём опускают его до нуля; встречные порядки захвата
// строк разрешаются deadlock-retry в withRetry.
func adminCount(ctx context.Context, tx pgx.Tx) (int64, error) {
	var count int64
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT id FROM users WHERE role = $1 ORDER BY id FOR UPDATE
		) AS admins`, string(model.RoleAdmin)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// SetUserRole переводит пользователя между ролями user и admin.
// Снятие роли администратора с последнего администратора запрещено.
func (r *PostgresRepository) SetUserRole(ctx context.Context, id int64, role model.Role) (*model.User, error) {
	var updated *model.User

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}

		if role == model.RoleAdmin && u.Role == model.RoleAdmin {
			return ErrAlreadyAdmin
		}
		if role == model.RoleUser && u.Role != model.RoleAdmin {
			return ErrNotAnAdmin
		}

		if role == model.RoleUser {
			count, err := adminCount(ctx, tx)
			if err != nil {
				return err
			}
			if count <= 1 {
				return ErrLastAdmin
			}
		}

		row := tx.QueryRow(ctx,
			`UPDATE users SET role = $2 WHERE id = $1 RETURNING `+userColumns,
			id, string(role))
		updated, err = scanUser(row)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetUserStatus блокирует или разблокирует учётную запись.
func (r *PostgresRepository) SetUserStatus(ctx context.Context, id int64, status model.AccountStatus) (*model.User, error) {
	var updated *model.User

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}

		if u.Status == status {
			if status == model.StatusRestricted {
				return ErrAlreadyRestricted
			}
			return ErrNotRestricted
		}

		var restrictedAt *time.Time
		if status == model.StatusRestricted {
			now := time.Now()
			restrictedAt = &now
		}

		row := tx.QueryRow(ctx,
			`UPDATE users SET status = $2, restricted_at = $3 WHERE id = $1 RETURNING `+userColumns,
			id, string(status), restrictedAt)
		updated, err = scanUser(row)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetVerificationStatus подтверждает либо отклоняет проверку документов.
// Переход возможен только из статуса pending.
func (r *PostgresRepository) SetVerificationStatus(ctx context.Context, id int64, status model.VerificationStatus) (*model.User, error) {
	var updated *model.User

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}

		switch u.VerificationStatus {
		case model.VerificationVerified:
			return ErrAlreadyVerified
		case model.VerificationRejected:
			return ErrAlreadyRejected
		}

		var verifiedAt *time.Time
		if status == model.VerificationVerified {
			now := time.Now()
			verifiedAt = &now
		}

		row := tx.QueryRow(ctx,
			`UPDATE users SET verification_status = $2, verified_at = $3 WHERE id = $1 RETURNING `+userColumns,
			id, string(status), verifiedAt)
		updated, err = scanUser(row)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser безвозвратно удаляет учётную запись.
// Удаление последнего администратора запрещено.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}

		if u.Role == model.RoleAdmin {
			count, err := adminCount(ctx, tx)
			if err != nil {
				return err
			}
			if count <= 1 {
				return ErrLastAdmin
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// SetPasswordHash обновляет хеш пароля и сбрасывает одноразовый код.
func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id int64, passwordHash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, otp_hash = NULL, otp_expires_at = NULL WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetOTP сохраняет хеш одноразового кода и срок его действия.
func (r *PostgresRepository) SetOTP(ctx context.Context, id int64, otpHash []byte, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET otp_hash = $2, otp_expires_at = $3 WHERE id = $1`,
		id, otpHash, expiresAt)
	if err != nil {
		return fmt.Errorf("update otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UserStats содержит агрегированную статистику по пользователям.
type UserStats struct {
	Total               int64
	Admins              int64
	Verified            int64
	Restricted          int64
	PendingVerification int64
	Active              int64
	Today               int64
	ThisMonth           int64
}

// GetUserStats возвращает агрегированную статистику по пользователям.
func (r *PostgresRepository) GetUserStats(ctx context.Context) (*UserStats, error) {
	var s UserStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE role = 'admin'),
			COUNT(*) FILTER (WHERE verification_status = 'verified'),
			COUNT(*) FILTER (WHERE status = 'restricted'),
			COUNT(*) FILTER (WHERE verification_status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE created_at::date = now()::date),
			COUNT(*) FILTER (WHERE date_trunc('month', created_at) = date_trunc('month', now()))
		FROM users`,
	).Scan(&s.Total, &s.Admins, &s.Verified, &s.Restricted,
		&s.PendingVerification, &s.Active, &s.Today, &s.ThisMonth)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &s, nil
}
