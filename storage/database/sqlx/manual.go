package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/manual"
)

type manualRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

func (row manualRow) unpack() manual.Manual {
	return manual.Manual(row)
}

type manualRepository struct {
	db *sqlx.DB
}

var _ manual.Repository = (*manualRepository)(nil) // interface compliance check

func NewManualRepository(db *sqlx.DB) *manualRepository {
	return &manualRepository{db: db}
}

func (repo *manualRepository) CreateManual(ctx context.Context, m manual.Manual) (manual.Manual, error) {
	m.ID = uuid.New().String()

	q := `
		INSERT INTO manual (id, title, body, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, q, m.ID, m.Title, m.Body, m.CreatedBy, m.CreatedAt); err != nil {
		return manual.Manual{}, errors.Wrap(err, "inserting manual")
	}
	return m, nil
}

func manualConds(filter manual.QueryFilter, arg func(interface{}) string) []string {
	var conds []string
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR body ILIKE %[1]s)", p))
	}
	if !filter.CreatedSince.IsZero() {
		conds = append(conds, fmt.Sprintf("created_at >= %s", arg(filter.CreatedSince.UTC())))
	}
	return conds
}

func (repo *manualRepository) FilterManuals(ctx context.Context, filter manual.QueryFilter, ordering ...core.DBOrdering) ([]manual.Manual, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var rows []manualRow
	q := `SELECT * FROM manual` + where(manualConds(filter, arg)) + orderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering manuals")
	}

	manuals := make([]manual.Manual, 0, len(rows))
	for _, row := range rows {
		manuals = append(manuals, row.unpack())
	}
	return manuals, nil
}

func (repo *manualRepository) CountManuals(ctx context.Context, filter manual.QueryFilter) (int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var count int
	q := `SELECT COUNT(*) FROM manual` + where(manualConds(filter, arg))
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting manuals")
	}
	return count, nil
}
