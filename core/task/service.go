package task

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fitdeskhq/fitdesk/core"
)

var (
	// errors
	ErrNotFound = errors.New("task not found")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		// FilterTasks applies AND operation on available QueryFilter fields.
		FilterTasks(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Task, error)
		CountTasks(ctx context.Context, filter QueryFilter) (int, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTasksByID(ctx context.Context, ids ...string) error

		CreateComment(ctx context.Context, c Comment) (Comment, error)
		ListComments(ctx context.Context, taskID string) ([]Comment, error)

		// MigrationDone / SetMigrationDone persist the legacy-cache migration
		// marker; guards the one-time reconciliation at startup.
		MigrationDone(ctx context.Context) (bool, error)
		SetMigrationDone(ctx context.Context) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, createdBy string, nt NewTask) (Task, error) {
	if err := nt.Validate(); err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	t := Task{
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		AssigneeID:  null.NewString(nt.AssigneeID, nt.AssigneeID != ""),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nt.DueDate != nil {
		t.DueDate = null.TimeFrom(nt.DueDate.UTC())
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Task, error) {
	return svc.repo.FilterTasks(ctx, filter, ordering...)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountTasks(ctx, filter)
}

// CountPendingTasks reports the number of pending tasks assigned to a user.
// Feeds the tasks badge.
func (svc *Service) CountPendingTasks(ctx context.Context, assigneeID string) (int, error) {
	return svc.repo.CountTasks(ctx, QueryFilter{
		Statuses:   []string{StatusPending},
		AssigneeID: assigneeID,
	})
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTask) (Task, error) {
	if err := ut.Validate(); err != nil {
		return Task{}, err
	}

	orig, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}

	if ut.Title != "" {
		orig.Title = ut.Title
	}
	if ut.Description != "" {
		orig.Description = ut.Description
	}
	if ut.Status != "" {
		orig.Status = ut.Status
	}
	if ut.DueDate != nil {
		orig.DueDate = null.TimeFrom(ut.DueDate.UTC())
	}
	if ut.AssigneeID != nil {
		orig.AssigneeID = null.NewString(*ut.AssigneeID, *ut.AssigneeID != "")
	}
	orig.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateTask(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTasksByID(ctx, ids...)
}

func (svc *Service) AddComment(ctx context.Context, nc NewComment) (Comment, error) {
	if err := nc.Validate(); err != nil {
		return Comment{}, err
	}
	return svc.repo.CreateComment(ctx, Comment{
		TaskID:     nc.TaskID,
		AuthorName: nc.AuthorName,
		Body:       nc.Body,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) Comments(ctx context.Context, taskID string) ([]Comment, error) {
	return svc.repo.ListComments(ctx, taskID)
}

func (svc *Service) MigrationDone(ctx context.Context) (bool, error) {
	return svc.repo.MigrationDone(ctx)
}

func (svc *Service) SetMigrationDone(ctx context.Context) error {
	return svc.repo.SetMigrationDone(ctx)
}
