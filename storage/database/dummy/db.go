// Package dummydb provides in-memory repository implementations for tests.
package dummydb

import (
	"sync"

	"github.com/fitdeskhq/fitdesk/core/announcement"
	"github.com/fitdeskhq/fitdesk/core/manual"
	"github.com/fitdeskhq/fitdesk/core/notification"
	"github.com/fitdeskhq/fitdesk/core/report"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
	"github.com/fitdeskhq/fitdesk/core/task"
	"github.com/fitdeskhq/fitdesk/core/user"
)

type (
	DB struct {
		user         *userTable
		task         *taskTable
		notification *notificationTable
		announcement *announcementTable
		report       *reportTable
		manual       *manualTable
		suggestion   *suggestionTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	taskTable struct {
		sync.RWMutex
		table    map[string]*task.Task
		comments map[string][]task.Comment // keyed by task ID
		flags    map[string]bool
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}

	announcementTable struct {
		sync.RWMutex
		table map[string]*announcement.Announcement
	}

	reportTable struct {
		sync.RWMutex
		table map[string]*report.Report
	}

	manualTable struct {
		sync.RWMutex
		table map[string]*manual.Manual
	}

	suggestionTable struct {
		sync.RWMutex
		table map[string]*suggestion.Suggestion
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		task: &taskTable{
			table:    make(map[string]*task.Task),
			comments: make(map[string][]task.Comment),
			flags:    make(map[string]bool),
		},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
		announcement: &announcementTable{table: make(map[string]*announcement.Announcement)},
		report:       &reportTable{table: make(map[string]*report.Report)},
		manual:       &manualTable{table: make(map[string]*manual.Manual)},
		suggestion:   &suggestionTable{table: make(map[string]*suggestion.Suggestion)},
	}
	return db, nil
}
