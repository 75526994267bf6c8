package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/report"
)

type reportRow struct {
	ID        string    `db:"id"`
	AuthorID  string    `db:"author_id"`
	Date      time.Time `db:"date"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

func (row reportRow) unpack() report.Report {
	return report.Report(row)
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateReport(ctx context.Context, r report.Report) (report.Report, error) {
	r.ID = uuid.New().String()

	q := `
		INSERT INTO daily_report (id, author_id, date, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, q, r.ID, r.AuthorID, r.Date, r.Body, r.CreatedAt); err != nil {
		return report.Report{}, errors.Wrap(err, "inserting report")
	}
	return r, nil
}

func reportConds(filter report.QueryFilter, arg func(interface{}) string) []string {
	var conds []string
	if filter.AuthorID != "" {
		conds = append(conds, fmt.Sprintf("author_id = %s", arg(filter.AuthorID)))
	}
	if !filter.Date.IsZero() {
		conds = append(conds, fmt.Sprintf("date = %s::date", arg(filter.Date)))
	}
	return conds
}

func (repo *reportRepository) FilterReports(ctx context.Context, filter report.QueryFilter, ordering ...core.DBOrdering) ([]report.Report, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var rows []reportRow
	q := `SELECT * FROM daily_report` + where(reportConds(filter, arg)) + orderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering reports")
	}

	reports := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.unpack())
	}
	return reports, nil
}

func (repo *reportRepository) CountReports(ctx context.Context, filter report.QueryFilter) (int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var count int
	q := `SELECT COUNT(*) FROM daily_report` + where(reportConds(filter, arg))
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting reports")
	}
	return count, nil
}
