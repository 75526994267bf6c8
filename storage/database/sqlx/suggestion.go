package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
)

type suggestionRow struct {
	ID        string    `db:"id"`
	AuthorID  string    `db:"author_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (row suggestionRow) unpack() suggestion.Suggestion {
	return suggestion.Suggestion(row)
}

type suggestionRepository struct {
	db *sqlx.DB
}

var _ suggestion.Repository = (*suggestionRepository)(nil) // interface compliance check

func NewSuggestionRepository(db *sqlx.DB) *suggestionRepository {
	return &suggestionRepository{db: db}
}

func (repo *suggestionRepository) CreateSuggestion(ctx context.Context, s suggestion.Suggestion) (suggestion.Suggestion, error) {
	s.ID = uuid.New().String()

	q := `
		INSERT INTO suggestion (id, author_id, title, body, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := repo.db.ExecContext(ctx, q, s.ID, s.AuthorID, s.Title, s.Body, s.Status, s.CreatedAt); err != nil {
		return suggestion.Suggestion{}, errors.Wrap(err, "inserting suggestion")
	}
	return s, nil
}

func suggestionConds(filter suggestion.QueryFilter, arg func(interface{}) string) []string {
	var conds []string
	if filter.AuthorID != "" {
		conds = append(conds, fmt.Sprintf("author_id = %s", arg(filter.AuthorID)))
	}
	if filter.Status != "" {
		conds = append(conds, fmt.Sprintf("status = %s", arg(filter.Status)))
	}
	return conds
}

func (repo *suggestionRepository) FilterSuggestions(ctx context.Context, filter suggestion.QueryFilter, ordering ...core.DBOrdering) ([]suggestion.Suggestion, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var rows []suggestionRow
	q := `SELECT * FROM suggestion` + where(suggestionConds(filter, arg)) + orderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering suggestions")
	}

	suggs := make([]suggestion.Suggestion, 0, len(rows))
	for _, row := range rows {
		suggs = append(suggs, row.unpack())
	}
	return suggs, nil
}

func (repo *suggestionRepository) CountSuggestions(ctx context.Context, filter suggestion.QueryFilter) (int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var count int
	q := `SELECT COUNT(*) FROM suggestion` + where(suggestionConds(filter, arg))
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting suggestions")
	}
	return count, nil
}

func (repo *suggestionRepository) UpdateSuggestionStatus(ctx context.Context, id, status string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE suggestion SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return errors.Wrap(err, "updating suggestion status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return suggestion.ErrNotFound
	}
	return nil
}
