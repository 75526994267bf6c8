package schedule

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/task"
	"github.com/fitdeskhq/fitdesk/core/user"
)

type (
	// legacyTask mirrors the on-disk format of the old client's task cache.
	legacyTask struct {
		Title        string     `json:"title"`
		Description  string     `json:"description"`
		Status       string     `json:"status"`
		DueDate      *time.Time `json:"due_date"`
		AssigneeName string     `json:"assignee_name"`
		Comments     []struct {
			Author    string    `json:"author"`
			Body      string    `json:"body"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"comments"`
	}

	// TaskStore is the slice of the task service the reconciler needs.
	TaskStore interface {
		Create(ctx context.Context, createdBy string, nt task.NewTask) (task.Task, error)
		Count(ctx context.Context, filter task.QueryFilter) (int, error)
		AddComment(ctx context.Context, nc task.NewComment) (task.Comment, error)
		MigrationDone(ctx context.Context) (bool, error)
		SetMigrationDone(ctx context.Context) error
	}

	// UserFinder resolves legacy assignee display names to user records.
	UserFinder interface {
		GetByName(ctx context.Context, name string) (user.User, error)
	}

	// Reconciler performs the one-time import of the legacy client-local task
	// cache into the store. The cache predates server-side tasks; once any
	// tasks exist in the store it is considered obsolete and only cleared.
	Reconciler struct {
		tasks  TaskStore
		users  UserFinder
		logger core.Logger
		path   string
	}
)

func NewReconciler(tasks TaskStore, users UserFinder, logger core.Logger, cachePath string) *Reconciler {
	return &Reconciler{
		tasks:  tasks,
		users:  users,
		logger: logger,
		path:   cachePath,
	}
}

// Run migrates the legacy cache file into the store, then deletes the file.
// The file is removed once the migration ran or was judged unnecessary; if the
// store cannot even be consulted (a guard check fails), the file stays put so
// the next start can retry.
//
// The import runs at most once, guarded both by the persisted migration marker
// and by the store being non-empty. Items that fail to import are logged and
// skipped; they do not abort the rest of the batch.
func (r *Reconciler) Run(ctx context.Context, importedBy string) error {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "reading legacy cache")
	}

	var cached []legacyTask
	if err := json.Unmarshal(raw, &cached); err != nil {
		r.logger.Warn("legacy cache unreadable; discarding", errors.Wrap(err, "decoding legacy cache"))
		r.clear()
		return nil
	}
	if len(cached) == 0 {
		r.clear()
		return nil
	}

	if done, err := r.tasks.MigrationDone(ctx); err != nil {
		return errors.Wrap(err, "checking migration marker")
	} else if done {
		r.clear()
		return nil
	}
	if n, err := r.tasks.Count(ctx, task.QueryFilter{}); err != nil {
		return errors.Wrap(err, "counting existing tasks")
	} else if n > 0 {
		r.clear()
		return nil
	}

	imported := 0
	for _, lt := range cached {
		if err := r.importTask(ctx, importedBy, lt); err != nil {
			r.logger.Warn("skipping legacy task", errors.Wrapf(err, "importing %q", lt.Title))
			continue
		}
		imported++
	}
	r.logger.Info("legacy cache reconciled", "imported", imported, "total", len(cached))
	r.clear()

	if err := r.tasks.SetMigrationDone(ctx); err != nil {
		return errors.Wrap(err, "setting migration marker")
	}
	return nil
}

func (r *Reconciler) importTask(ctx context.Context, importedBy string, lt legacyTask) error {
	nt := task.NewTask{
		Title:       lt.Title,
		Description: lt.Description,
		Status:      mapLegacyStatus(lt.Status),
		DueDate:     lt.DueDate,
	}
	// legacy cached the assignee's display name, not an ID
	if lt.AssigneeName != "" {
		if usr, err := r.users.GetByName(ctx, lt.AssigneeName); err == nil {
			nt.AssigneeID = usr.ID
		}
	}

	t, err := r.tasks.Create(ctx, importedBy, nt)
	if err != nil {
		return err
	}

	for _, c := range lt.Comments {
		_, err := r.tasks.AddComment(ctx, task.NewComment{
			TaskID:     t.ID,
			AuthorName: c.Author,
			Body:       c.Body,
		})
		if err != nil {
			r.logger.Warn("skipping legacy comment", errors.Wrapf(err, "importing comment on %q", lt.Title))
		}
	}
	return nil
}

// mapLegacyStatus translates the old client's status vocabulary. Unknown
// values fall back to pending rather than failing the whole item.
func mapLegacyStatus(s string) string {
	switch s {
	case "todo", "pending":
		return task.StatusPending
	case "doing", "in_progress":
		return task.StatusInProgress
	case "done", "completed":
		return task.StatusCompleted
	case "cancelled":
		return task.StatusCancelled
	default:
		return task.StatusPending
	}
}

func (r *Reconciler) clear() {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("removing legacy cache file", err)
	}
}
