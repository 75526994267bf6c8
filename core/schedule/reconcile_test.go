package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fitdeskhq/fitdesk/core/task"
	"github.com/fitdeskhq/fitdesk/core/user"
	dummydb "github.com/fitdeskhq/fitdesk/storage/database/dummy"
)

const legacyCacheJSON = `[
	{
		"title": "러닝머신 벨트 점검",
		"description": "3번 러닝머신 소음 확인",
		"status": "doing",
		"due_date": "2026-03-15T00:00:00Z",
		"assignee_name": "Kim Trainer",
		"comments": [
			{"author": "관리자", "body": "부품 주문 완료", "created_at": "2026-03-01T09:00:00Z"}
		]
	},
	{
		"title": "회원 재등록 안내 문자",
		"status": "todo"
	},
	{
		"title": "",
		"status": "todo"
	}
]`

type reconcileFixture struct {
	reconciler *Reconciler
	tasks      *task.Service
	users      user.Repository
	path       string
}

func newReconcileFixture(t *testing.T, cacheJSON string) *reconcileFixture {
	t.Helper()

	db, err := dummydb.Open()
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "legacy_tasks.json")
	if cacheJSON != "" {
		assert.NoError(t, os.WriteFile(path, []byte(cacheJSON), 0644))
	}

	taskSvc := task.NewService(dummydb.NewTaskRepository(db))
	userRepo := dummydb.NewUserRepository(db)
	userSvc := user.NewService(userRepo, nil, testLogger{}, nil)

	return &reconcileFixture{
		reconciler: NewReconciler(taskSvc, userSvc, testLogger{}, path),
		tasks:      taskSvc,
		users:      userRepo,
		path:       path,
	}
}

func (fix *reconcileFixture) cacheFileExists() bool {
	_, err := os.Stat(fix.path)
	return err == nil
}

func TestReconcilerImportsLegacyCache(t *testing.T) {
	ctx := context.Background()
	fix := newReconcileFixture(t, legacyCacheJSON)

	trainer, err := fix.users.CreateUser(ctx, user.User{Name: "Kim Trainer", CreatedAt: time.Now().UTC()})
	assert.NoError(t, err)

	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))

	// the item with an empty title fails validation and is skipped
	tasks, err := fix.tasks.Filter(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Len(t, tasks, 2)

	byTitle := make(map[string]task.Task, len(tasks))
	for _, tsk := range tasks {
		byTitle[tsk.Title] = tsk
	}

	imported, ok := byTitle["러닝머신 벨트 점검"]
	if assert.True(t, ok) {
		assert.Equal(t, task.StatusInProgress, imported.Status)
		assert.Equal(t, "admin-1", imported.CreatedBy)
		assert.Equal(t, trainer.ID, imported.AssigneeID.String)
		assert.True(t, imported.DueDate.Valid)

		comments, err := fix.tasks.Comments(ctx, imported.ID)
		assert.NoError(t, err)
		if assert.Len(t, comments, 1) {
			assert.Equal(t, "관리자", comments[0].AuthorName)
			assert.Equal(t, "부품 주문 완료", comments[0].Body)
		}
	}

	// unknown assignee name leaves the task unassigned
	plain, ok := byTitle["회원 재등록 안내 문자"]
	if assert.True(t, ok) {
		assert.False(t, plain.AssigneeID.Valid)
		assert.Equal(t, task.StatusPending, plain.Status)
	}

	done, err := fix.tasks.MigrationDone(ctx)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.False(t, fix.cacheFileExists())
}

func TestReconcilerRunsOnlyOnce(t *testing.T) {
	ctx := context.Background()
	fix := newReconcileFixture(t, legacyCacheJSON)

	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))
	n, err := fix.tasks.Count(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	// the cache file reappearing must not trigger a second import
	assert.NoError(t, os.WriteFile(fix.path, []byte(legacyCacheJSON), 0644))
	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))

	n, err = fix.tasks.Count(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, fix.cacheFileExists())
}

func TestReconcilerSkipsWhenStoreHasTasks(t *testing.T) {
	ctx := context.Background()
	fix := newReconcileFixture(t, legacyCacheJSON)

	// tasks already exist server-side; the local cache is obsolete
	_, err := fix.tasks.Create(ctx, "someone", task.NewTask{Title: "기존 업무"})
	assert.NoError(t, err)

	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))

	n, err := fix.tasks.Count(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, fix.cacheFileExists())
}

func TestReconcilerNoCacheFile(t *testing.T) {
	ctx := context.Background()
	fix := newReconcileFixture(t, "")

	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))

	n, err := fix.tasks.Count(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReconcilerEmptyCache(t *testing.T) {
	ctx := context.Background()
	fix := newReconcileFixture(t, "[]")

	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))

	n, err := fix.tasks.Count(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, fix.cacheFileExists())
}

// unreachableMarkerStore simulates a store outage during the guard checks.
type unreachableMarkerStore struct {
	*task.Service
}

func (unreachableMarkerStore) MigrationDone(context.Context) (bool, error) {
	return false, errors.New("store unavailable")
}

func TestReconcilerKeepsCacheWhenGuardCheckFails(t *testing.T) {
	ctx := context.Background()
	fix := newReconcileFixture(t, legacyCacheJSON)

	userSvc := user.NewService(fix.users, nil, testLogger{}, nil)
	broken := NewReconciler(unreachableMarkerStore{fix.tasks}, userSvc, testLogger{}, fix.path)

	// the store cannot be consulted; nothing was imported, so the cache file
	// must survive for the next start
	assert.Error(t, broken.Run(ctx, "admin-1"))
	assert.True(t, fix.cacheFileExists())

	n, err := fix.tasks.Count(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	// store back up: the retry imports and clears as usual
	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))
	n, err = fix.tasks.Count(ctx, task.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, fix.cacheFileExists())
}

func TestReconcilerCorruptCacheDiscarded(t *testing.T) {
	ctx := context.Background()
	fix := newReconcileFixture(t, "{not json")

	assert.NoError(t, fix.reconciler.Run(ctx, "admin-1"))
	assert.False(t, fix.cacheFileExists())
}
