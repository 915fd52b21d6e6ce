package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bmitiku/grocery-system/internal/model"
)

const messageColumns = `id, name, email, phone, subject, body, is_read, read_at, reply, replied_at, created_at`

func scanMessage(row pgx.Row) (*model.ContactMessage, error) {
	var m model.ContactMessage
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Body,
		&m.IsRead, &m.ReadAt, &m.Reply, &m.RepliedAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return &m, nil
}

// CreateMessage сохраняет сообщение формы обратной связи.
func (r *PostgresRepository) CreateMessage(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, phone, subject, body)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+messageColumns,
		m.Name, m.Email, m.Phone, m.Subject, m.Body)
	return scanMessage(row)
}

// MessageFilter задаёт параметры выборки сообщений.
type MessageFilter struct {
	UnreadOnly bool
	Search     string
	SortBy     string
	SortOrder  string
}

var messageSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"subject":    "subject",
	"created_at": "created_at",
}

// ListMessages возвращает сообщения с учётом фильтров.
// Без явной сортировки новые записи идут первыми.
func (r *PostgresRepository) ListMessages(ctx context.Context, filter MessageFilter) ([]model.ContactMessage, error) {
	var (
		conds []string
		args  []any
	)

	if filter.UnreadOnly {
		conds = append(conds, `is_read = FALSE`)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf(
			`(name ILIKE $%[1]d OR email ILIKE $%[1]d OR subject ILIKE $%[1]d OR body ILIKE $%[1]d)`,
			len(args)))
	}

	query := `SELECT ` + messageColumns + ` FROM contact_messages`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ` + orderClause(messageSortColumns, filter.SortBy, filter.SortOrder, "created_at")

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var messages []model.ContactMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return messages, nil
}

// GetMessageByID возвращает сообщение по идентификатору.
func (r *PostgresRepository) GetMessageByID(ctx context.Context, id int64) (*model.ContactMessage, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM contact_messages WHERE id = $1`, id)
	return scanMessage(row)
}

// MarkMessageRead отмечает сообщение прочитанным либо непрочитанным.
func (r *PostgresRepository) MarkMessageRead(ctx context.Context, id int64, read bool) (*model.ContactMessage, error) {
	var readAt *time.Time
	if read {
		now := time.Now()
		readAt = &now
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE contact_messages SET is_read = $2, read_at = $3 WHERE id = $1 RETURNING `+messageColumns,
		id, read, readAt)
	return scanMessage(row)
}

// MarkAllMessagesRead отмечает все непрочитанные сообщения прочитанными.
func (r *PostgresRepository) MarkAllMessagesRead(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contact_messages SET is_read = TRUE, read_at = now() WHERE is_read = FALSE`)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// SetMessageReply сохраняет текст ответа администратора.
func (r *PostgresRepository) SetMessageReply(ctx context.Context, id int64, reply string) (*model.ContactMessage, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE contact_messages SET reply = $2, replied_at = now(), is_read = TRUE,
			read_at = COALESCE(read_at, now())
		 WHERE id = $1 RETURNING `+messageColumns,
		id, reply)
	return scanMessage(row)
}

// DeleteMessage удаляет сообщение.
func (r *PostgresRepository) DeleteMessage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// MessageStats содержит агрегированную статистику по сообщениям.
type MessageStats struct {
	Total  int64
	Unread int64
	Today  int64
}

// GetMessageStats возвращает агрегированную статистику по сообщениям.
func (r *PostgresRepository) GetMessageStats(ctx context.Context) (*MessageStats, error) {
	var s MessageStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_read = FALSE),
			COUNT(*) FILTER (WHERE created_at::date = now()::date)
		FROM contact_messages`,
	).Scan(&s.Total, &s.Unread, &s.Today)
	if err != nil {
		return nil, fmt.Errorf("message stats: %w", err)
	}
	return &s, nil
}
