// Package schedule drives the background engine: periodic task deadline scans,
// badge refreshes and the one-time legacy cache reconciliation.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/notification"
	"github.com/fitdeskhq/fitdesk/core/task"
)

// Notification titles, keyed on by the overdue duplicate check.
const (
	TitleDueTomorrow = "업무 마감 임박"
	TitleDueSoon     = "업무 마감 안내"
	TitleOverdue     = "업무 기한 초과"
)

type (
	// TaskSource lists the tasks eligible for deadline warnings.
	TaskSource interface {
		Filter(ctx context.Context, filter task.QueryFilter, ordering ...core.DBOrdering) ([]task.Task, error)
	}

	// Notifier persists and counts deadline notifications.
	Notifier interface {
		Create(ctx context.Context, nn notification.NewNotification) (notification.Notification, error)
		Count(ctx context.Context, filter notification.QueryFilter) (int, error)
	}

	// Scanner walks active assigned tasks and notifies assignees whose due
	// dates are tomorrow, in three days, or already past.
	Scanner struct {
		tasks  TaskSource
		notifs Notifier
		logger core.Logger

		NowFunc func() time.Time // mockable
	}
)

func NewScanner(tasks TaskSource, notifs Notifier, logger core.Logger) *Scanner {
	return &Scanner{
		tasks:  tasks,
		notifs: notifs,
		logger: logger,
		NowFunc: time.Now,
	}
}

// Scan runs one deadline pass. It never returns an error: a failed task list
// aborts the pass with a log line, and a failed notification write is logged
// and skipped so one bad row cannot starve the remaining assignees.
//
// Due dates compare on calendar day, not clock time. Completed, cancelled and
// unassigned tasks are ignored, as are tasks without a due date.
func (sc *Scanner) Scan(ctx context.Context) {
	now := sc.NowFunc()
	today := core.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	threeDays := today.AddDate(0, 0, 3)

	tasks, err := sc.tasks.Filter(ctx, task.QueryFilter{
		Statuses:     task.ActiveStatuses,
		AssignedOnly: true,
	})
	if err != nil {
		sc.logger.Error("deadline scan: listing tasks", errors.Wrap(err, "filtering tasks"))
		return
	}

	for _, t := range tasks {
		if !t.DueDate.Valid {
			continue
		}
		due := core.StartOfDay(t.DueDate.Time)

		var nn notification.NewNotification
		switch {
		case core.SameDay(due, tomorrow):
			nn = notification.NewNotification{
				Kind:    notification.KindWarning,
				Title:   TitleDueTomorrow,
				Message: fmt.Sprintf("\"%s\" 업무가 내일 마감됩니다.", t.Title),
			}
		case core.SameDay(due, threeDays):
			nn = notification.NewNotification{
				Kind:    notification.KindInfo,
				Title:   TitleDueSoon,
				Message: fmt.Sprintf("\"%s\" 업무 마감까지 3일 남았습니다.", t.Title),
			}
		case due.Before(today):
			if sc.alreadyNotifiedOverdue(ctx, t, today) {
				continue
			}
			nn = notification.NewNotification{
				Kind:    notification.KindError,
				Title:   TitleOverdue,
				Message: fmt.Sprintf("\"%s\" 업무가 기한을 초과했습니다.", t.Title),
			}
		default:
			continue
		}

		nn.RecipientID = t.AssigneeID.String
		nn.Link = "/tasks/" + t.ID
		if _, err := sc.notifs.Create(ctx, nn); err != nil {
			sc.logger.Warn("deadline scan: skipping task", errors.Wrapf(err, "notifying for task %s", t.ID))
		}
	}
}

// alreadyNotifiedOverdue reports whether an overdue notice for this task was
// written to the assignee today. Overdue tasks stay overdue across scans, so
// without this check every hourly pass would pile on another copy. A lookup
// failure counts as not-notified; worst case is one duplicate row.
func (sc *Scanner) alreadyNotifiedOverdue(ctx context.Context, t task.Task, today time.Time) bool {
	n, err := sc.notifs.Count(ctx, notification.QueryFilter{
		RecipientID:     t.AssigneeID.String,
		Title:           TitleOverdue,
		MessageContains: t.Title,
		CreatedFrom:     today,
	})
	if err != nil {
		sc.logger.Warn("deadline scan: duplicate check failed", errors.Wrapf(err, "counting notifications for task %s", t.ID))
		return false
	}
	return n > 0
}
