package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/announcement"
)

type announcementRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	Active    bool           `db:"active"`
	ReadBy    pq.StringArray `db:"read_by"`
	CreatedBy string         `db:"created_by"`
	CreatedAt time.Time      `db:"created_at"`
}

func (row announcementRow) unpack() announcement.Announcement {
	return announcement.Announcement{
		ID:        row.ID,
		Title:     row.Title,
		Body:      row.Body,
		Active:    row.Active,
		ReadBy:    row.ReadBy,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	a.ID = uuid.New().String()

	q := `
		INSERT INTO announcement (id, title, body, active, read_by, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q,
		a.ID, a.Title, a.Body, a.Active, pq.Array(a.ReadBy), a.CreatedBy, a.CreatedAt,
	)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func announcementConds(filter announcement.QueryFilter, arg func(interface{}) string) []string {
	var conds []string
	if filter.Active != nil {
		conds = append(conds, fmt.Sprintf("active = %s", arg(*filter.Active)))
	}
	if filter.UnreadBy != "" {
		conds = append(conds, fmt.Sprintf("NOT (%s::uuid = ANY(read_by))", arg(filter.UnreadBy)))
	}
	return conds
}

func (repo *announcementRepository) FilterAnnouncements(ctx context.Context, filter announcement.QueryFilter, ordering ...core.DBOrdering) ([]announcement.Announcement, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var rows []announcementRow
	q := `SELECT * FROM announcement` + where(announcementConds(filter, arg)) + orderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering announcements")
	}

	anns := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, row.unpack())
	}
	return anns, nil
}

func (repo *announcementRepository) CountAnnouncements(ctx context.Context, filter announcement.QueryFilter) (int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var count int
	q := `SELECT COUNT(*) FROM announcement` + where(announcementConds(filter, arg))
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting announcements")
	}
	return count, nil
}

func (repo *announcementRepository) MarkAnnouncementRead(ctx context.Context, id, userID string) error {
	q := `
		UPDATE announcement
		SET read_by = array_append(read_by, $2::uuid)
		WHERE id = $1 AND NOT ($2::uuid = ANY(read_by))`
	res, err := repo.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return errors.Wrap(err, "marking announcement read")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either unknown ID or already read; distinguish for the caller
		var exists bool
		if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM announcement WHERE id = $1)`, id); err != nil {
			return errors.Wrap(err, "checking announcement")
		}
		if !exists {
			return announcement.ErrNotFound
		}
	}
	return nil
}
