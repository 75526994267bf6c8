package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fitdeskhq/fitdesk/core/notification"
	"github.com/fitdeskhq/fitdesk/core/task"
	dummydb "github.com/fitdeskhq/fitdesk/storage/database/dummy"
)

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

var scanNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestScanner(t *testing.T) (*Scanner, *task.Service, *notification.Service) {
	t.Helper()

	db, err := dummydb.Open()
	assert.NoError(t, err)

	taskSvc := task.NewService(dummydb.NewTaskRepository(db))
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), nil, nil, testLogger{})

	sc := NewScanner(taskSvc, notifSvc, testLogger{})
	sc.NowFunc = func() time.Time { return scanNow }
	return sc, taskSvc, notifSvc
}

func createTask(t *testing.T, svc *task.Service, title, assigneeID, status string, due *time.Time) task.Task {
	t.Helper()
	tsk, err := svc.Create(context.Background(), "boss", task.NewTask{
		Title:      title,
		Status:     status,
		DueDate:    due,
		AssigneeID: assigneeID,
	})
	assert.NoError(t, err)
	return tsk
}

func datePtr(t time.Time) *time.Time { return &t }

func TestScannerNotifiesUpcomingDeadlines(t *testing.T) {
	ctx := context.Background()
	sc, taskSvc, notifSvc := newTestScanner(t)

	tomorrow := scanNow.AddDate(0, 0, 1)
	threeDays := scanNow.AddDate(0, 0, 3)

	createTask(t, taskSvc, "정수기 필터 교체", "u1", task.StatusPending, datePtr(tomorrow))
	createTask(t, taskSvc, "회원권 정산", "u2", task.StatusInProgress, datePtr(threeDays))

	// none of these should notify
	createTask(t, taskSvc, "due today", "u3", task.StatusPending, datePtr(scanNow))
	createTask(t, taskSvc, "no due date", "u3", task.StatusPending, nil)
	createTask(t, taskSvc, "far future", "u3", task.StatusPending, datePtr(scanNow.AddDate(0, 0, 10)))
	createTask(t, taskSvc, "unassigned", "", task.StatusPending, datePtr(tomorrow))
	createTask(t, taskSvc, "already done", "u3", task.StatusCompleted, datePtr(tomorrow))

	sc.Scan(ctx)

	notifs, err := notifSvc.Filter(ctx, notification.QueryFilter{RecipientID: "u1"})
	assert.NoError(t, err)
	if assert.Len(t, notifs, 1) {
		assert.Equal(t, notification.KindWarning, notifs[0].Kind)
		assert.Equal(t, TitleDueTomorrow, notifs[0].Title)
		assert.Contains(t, notifs[0].Message, "정수기 필터 교체")
		assert.Contains(t, notifs[0].Message, "내일")
		assert.Contains(t, notifs[0].Link.String, "/tasks/")
	}

	notifs, err = notifSvc.Filter(ctx, notification.QueryFilter{RecipientID: "u2"})
	assert.NoError(t, err)
	if assert.Len(t, notifs, 1) {
		assert.Equal(t, notification.KindInfo, notifs[0].Kind)
		assert.Contains(t, notifs[0].Message, "3일")
	}

	notifs, err = notifSvc.Filter(ctx, notification.QueryFilter{RecipientID: "u3"})
	assert.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestScannerOverdueNotifiedOncePerDay(t *testing.T) {
	ctx := context.Background()
	sc, taskSvc, notifSvc := newTestScanner(t)

	yesterday := scanNow.AddDate(0, 0, -1)
	createTask(t, taskSvc, "락커 점검", "u1", task.StatusPending, datePtr(yesterday))

	sc.Scan(ctx)
	sc.Scan(ctx) // overdue state persists between passes; must not pile up

	notifs, err := notifSvc.Filter(ctx, notification.QueryFilter{RecipientID: "u1", Title: TitleOverdue})
	assert.NoError(t, err)
	if assert.Len(t, notifs, 1) {
		assert.Equal(t, notification.KindError, notifs[0].Kind)
		assert.Contains(t, notifs[0].Message, "락커 점검")
	}
}

func TestScannerUpcomingNotifiedEachPass(t *testing.T) {
	ctx := context.Background()
	sc, taskSvc, notifSvc := newTestScanner(t)

	tomorrow := scanNow.AddDate(0, 0, 1)
	createTask(t, taskSvc, "오픈 준비", "u1", task.StatusPending, datePtr(tomorrow))

	sc.Scan(ctx)
	sc.Scan(ctx)

	// only overdue notices are deduplicated
	n, err := notifSvc.Count(ctx, notification.QueryFilter{RecipientID: "u1", Title: TitleDueTomorrow})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestScannerComparesCalendarDaysNotClockTime(t *testing.T) {
	ctx := context.Background()
	sc, taskSvc, notifSvc := newTestScanner(t)

	// due early tomorrow morning, less than 24h from "now"
	due := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)
	createTask(t, taskSvc, "조기 마감", "u1", task.StatusPending, datePtr(due))

	sc.Scan(ctx)

	n, err := notifSvc.Count(ctx, notification.QueryFilter{RecipientID: "u1", Title: TitleDueTomorrow})
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
