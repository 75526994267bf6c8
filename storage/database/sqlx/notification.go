package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/notification"
)

type notificationRow struct {
	ID          string         `db:"id"`
	RecipientID string         `db:"recipient_id"`
	Kind        string         `db:"kind"`
	Title       string         `db:"title"`
	Message     string         `db:"message"`
	Link        sql.NullString `db:"link"`
	Read        bool           `db:"read"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (row notificationRow) unpack() notification.Notification {
	return notification.Notification{
		ID:          row.ID,
		RecipientID: row.RecipientID,
		Kind:        row.Kind,
		Title:       row.Title,
		Message:     row.Message,
		Link:        null.NewString(row.Link.String, row.Link.Valid),
		Read:        row.Read,
		CreatedAt:   row.CreatedAt,
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	n.ID = uuid.New().String()

	q := `
		INSERT INTO notification (id, recipient_id, kind, title, message, link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		n.ID, n.RecipientID, n.Kind, n.Title, n.Message, nullString(n.Link), n.Read, n.CreatedAt,
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func notificationConds(filter notification.QueryFilter, arg func(interface{}) string) []string {
	var conds []string
	if filter.RecipientID != "" {
		conds = append(conds, fmt.Sprintf("recipient_id = %s", arg(filter.RecipientID)))
	}
	if filter.Read != nil {
		conds = append(conds, fmt.Sprintf("read = %s", arg(*filter.Read)))
	}
	if filter.Title != "" {
		conds = append(conds, fmt.Sprintf("title = %s", arg(filter.Title)))
	}
	if filter.MessageContains != "" {
		conds = append(conds, fmt.Sprintf("message LIKE %s", arg("%"+escapeLike(filter.MessageContains)+"%")))
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, fmt.Sprintf("created_at >= %s", arg(filter.CreatedFrom.UTC())))
	}
	return conds
}

func (repo *notificationRepository) FilterNotifications(ctx context.Context, filter notification.QueryFilter, ordering ...core.DBOrdering) ([]notification.Notification, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var rows []notificationRow
	q := `SELECT * FROM notification` + where(notificationConds(filter, arg)) + orderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering notifications")
	}

	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.unpack())
	}
	return notifs, nil
}

func (repo *notificationRepository) CountNotifications(ctx context.Context, filter notification.QueryFilter) (int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var count int
	q := `SELECT COUNT(*) FROM notification` + where(notificationConds(filter, arg))
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting notifications")
	}
	return count, nil
}

func (repo *notificationRepository) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	q := `UPDATE notification SET read = TRUE WHERE id = $1 AND recipient_id = $2`
	res, err := repo.db.ExecContext(ctx, q, id, recipientID)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id, recipientID string) error {
	q := `DELETE FROM notification WHERE id = $1 AND recipient_id = $2`
	res, err := repo.db.ExecContext(ctx, q, id, recipientID)
	if err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notification.ErrNotFound
	}
	return nil
}
