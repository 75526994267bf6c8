package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/task"
)

// name of the legacy cache migration marker in app_flag
const taskMigrationFlag = "task_legacy_migration_done"

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	DueDate     sql.NullTime   `db:"due_date"`
	AssigneeID  sql.NullString `db:"assignee_id"`
	CreatedBy   string         `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row taskRow) unpack() task.Task {
	return task.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Status:      row.Status,
		DueDate:     null.NewTime(row.DueDate.Time, row.DueDate.Valid),
		AssigneeID:  null.NewString(row.AssigneeID.String, row.AssigneeID.Valid),
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type commentRow struct {
	ID         string    `db:"id"`
	TaskID     string    `db:"task_id"`
	AuthorName string    `db:"author_name"`
	Body       string    `db:"body"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row commentRow) unpack() task.Comment {
	return task.Comment(row)
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = uuid.New().String()

	q := `
		INSERT INTO task (id, title, description, status, due_date, assignee_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		t.ID, t.Title, t.Description, t.Status, nullTime(t.DueDate), nullString(t.AssigneeID),
		t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM task WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return row.unpack(), nil
}

func taskConds(filter task.QueryFilter, arg func(interface{}) string) []string {
	var conds []string
	if len(filter.Statuses) > 0 {
		conds = append(conds, fmt.Sprintf("status = ANY(%s)", arg(pq.Array(filter.Statuses))))
	}
	if filter.AssigneeID != "" {
		conds = append(conds, fmt.Sprintf("assignee_id = %s", arg(filter.AssigneeID)))
	}
	if filter.AssignedOnly {
		conds = append(conds, "assignee_id IS NOT NULL")
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if !filter.DueFrom.IsZero() {
		conds = append(conds, fmt.Sprintf("due_date >= %s", arg(filter.DueFrom.UTC())))
	}
	if !filter.DueTo.IsZero() {
		conds = append(conds, fmt.Sprintf("due_date <= %s", arg(filter.DueTo.UTC())))
	}
	return conds
}

func (repo *taskRepository) FilterTasks(ctx context.Context, filter task.QueryFilter, ordering ...core.DBOrdering) ([]task.Task, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var rows []taskRow
	q := `SELECT * FROM task` + where(taskConds(filter, arg)) + orderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering tasks")
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.unpack())
	}
	return tasks, nil
}

func (repo *taskRepository) CountTasks(ctx context.Context, filter task.QueryFilter) (int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var count int
	q := `SELECT COUNT(*) FROM task` + where(taskConds(filter, arg))
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting tasks")
	}
	return count, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `
		UPDATE task
		SET title = $1, description = $2, status = $3, due_date = $4, assignee_id = $5, updated_at = $6
		WHERE id = $7
		RETURNING *`

	var row taskRow
	err := repo.db.GetContext(ctx, &row, q,
		t.Title, t.Description, t.Status, nullTime(t.DueDate), nullString(t.AssigneeID), t.UpdatedAt, t.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	return row.unpack(), nil
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM task WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return nil
}

func (repo *taskRepository) CreateComment(ctx context.Context, c task.Comment) (task.Comment, error) {
	c.ID = uuid.New().String()

	q := `
		INSERT INTO task_comment (id, task_id, author_name, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, q, c.ID, c.TaskID, c.AuthorName, c.Body, c.CreatedAt); err != nil {
		return task.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return c, nil
}

func (repo *taskRepository) ListComments(ctx context.Context, taskID string) ([]task.Comment, error) {
	var rows []commentRow
	q := `SELECT * FROM task_comment WHERE task_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, taskID); err != nil {
		return nil, errors.Wrap(err, "listing comments")
	}

	comments := make([]task.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.unpack())
	}
	return comments, nil
}

func (repo *taskRepository) MigrationDone(ctx context.Context) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM app_flag WHERE name = $1)`
	if err := repo.db.GetContext(ctx, &exists, q, taskMigrationFlag); err != nil {
		return false, errors.Wrap(err, "checking migration flag")
	}
	return exists, nil
}

func (repo *taskRepository) SetMigrationDone(ctx context.Context) error {
	q := `INSERT INTO app_flag (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, taskMigrationFlag); err != nil {
		return errors.Wrap(err, "setting migration flag")
	}
	return nil
}

func nullTime(t null.Time) interface{} {
	if t.Valid {
		return t.Time.UTC()
	}
	return nil
}

func nullString(s null.String) interface{} {
	if s.Valid && s.String != "" {
		return s.String
	}
	return nil
}
