package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/task"
)

// key of the legacy cache migration marker in the flags table
const taskMigrationFlag = "task_legacy_migration_done"

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) query() []task.Task {
	tasks := make([]task.Task, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) FilterTasks(ctx context.Context, filter task.QueryFilter, ordering ...core.DBOrdering) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(filter), nil
}

func (repo *taskRepository) CountTasks(ctx context.Context, filter task.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *taskRepository) filter(filter task.QueryFilter) []task.Task {
	tasks := repo.query()

	if len(filter.Statuses) > 0 {
		var filtered []task.Task
		for _, t := range tasks {
			for _, s := range filter.Statuses {
				if t.Status == s {
					filtered = append(filtered, t)
					break
				}
			}
		}
		tasks = filtered
	}
	if tasks != nil && filter.AssigneeID != "" {
		var filtered []task.Task
		for _, t := range tasks {
			if t.AssigneeID.String == filter.AssigneeID {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if tasks != nil && filter.AssignedOnly {
		var filtered []task.Task
		for _, t := range tasks {
			if t.AssigneeID.Valid && t.AssigneeID.String != "" {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if tasks != nil && filter.Search != "" {
		var filtered []task.Task
		search := strings.ToLower(filter.Search)
		for _, t := range tasks {
			if strings.Contains(strings.ToLower(t.Title), search) ||
				strings.Contains(strings.ToLower(t.Description), search) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if tasks != nil && !filter.DueFrom.IsZero() {
		var filtered []task.Task
		from := filter.DueFrom.UTC()
		for _, t := range tasks {
			if t.DueDate.Valid && !t.DueDate.Time.Before(from) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if tasks != nil && !filter.DueTo.IsZero() {
		var filtered []task.Task
		to := filter.DueTo.UTC()
		for _, t := range tasks {
			if t.DueDate.Valid && !t.DueDate.Time.After(to) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	return tasks
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.db.comments, id)
	}
	return nil
}

func (repo *taskRepository) CreateComment(ctx context.Context, c task.Comment) (task.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.TaskID]; !ok {
		return task.Comment{}, task.ErrNotFound
	}
	c.ID = uuid.New().String()
	repo.db.comments[c.TaskID] = append(repo.db.comments[c.TaskID], c)
	return c, nil
}

func (repo *taskRepository) ListComments(ctx context.Context, taskID string) ([]task.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	comments := make([]task.Comment, len(repo.db.comments[taskID]))
	copy(comments, repo.db.comments[taskID])
	return comments, nil
}

func (repo *taskRepository) MigrationDone(ctx context.Context) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.flags[taskMigrationFlag], nil
}

func (repo *taskRepository) SetMigrationDone(ctx context.Context) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.flags[taskMigrationFlag] = true
	return nil
}
