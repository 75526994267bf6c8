package suggestion

import (
	"time"

	"github.com/fitdeskhq/fitdesk/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusDone     = "done"
)

var AllStatuses = []string{StatusPending, StatusReviewed, StatusDone}

// Suggestion is a staff improvement proposal awaiting review.
type Suggestion struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewSuggestion contains information needed to create a new Suggestion.
type NewSuggestion struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

func (ns *NewSuggestion) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	ns.Body = core.CleanString(ns.Body)
	return core.Validate.Struct(ns)
}

type QueryFilter struct {
	AuthorID string `query:"author_id"`
	Status   string `query:"status"`
}
