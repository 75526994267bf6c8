package task

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/fitdeskhq/fitdesk/core"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var (
	AllStatuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

	// ActiveStatuses are the statuses the deadline scanner cares about.
	ActiveStatuses = []string{StatusPending, StatusInProgress}
)

type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	DueDate     null.Time   `json:"due_date"`
	AssigneeID  null.String `json:"assignee_id"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// Comment is a remark attached to a Task.
type Comment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,taskstatus"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  string     `json:"assignee_id"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	if nt.Status == "" {
		nt.Status = StatusPending
	}
	return core.Validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
// Zero-valued fields are left untouched.
type UpdateTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,taskstatus"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *string    `json:"assignee_id"`
}

func (ut *UpdateTask) Validate() error {
	ut.Title = core.CleanString(ut.Title)
	ut.Description = core.CleanString(ut.Description)
	return core.Validate.Struct(ut)
}

// NewComment contains information needed to attach a Comment to a Task.
type NewComment struct {
	TaskID     string `json:"task_id" validate:"required"`
	AuthorName string `json:"author_name" validate:"required"`
	Body       string `json:"body" validate:"required"`
}

func (nc *NewComment) Validate() error {
	nc.AuthorName = core.CleanString(nc.AuthorName)
	nc.Body = core.CleanString(nc.Body)
	return core.Validate.Struct(nc)
}

type QueryFilter struct {
	Statuses     []string  `query:"status"`
	AssigneeID   string    `query:"assignee_id"`
	AssignedOnly bool      `query:"assigned_only"`
	Search       string    `query:"search"`
	DueFrom      time.Time `query:"due_from"`
	DueTo        time.Time `query:"due_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Statuses == nil && qf.AssigneeID == "" && !qf.AssignedOnly &&
		qf.Search == "" && qf.DueFrom.IsZero() && qf.DueTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
