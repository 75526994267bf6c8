package report

import (
	"time"

	"github.com/fitdeskhq/fitdesk/core"
)

// Report is a staff member's daily operations report.
type Report struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Date      time.Time `json:"date"` // date component only
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewReport contains information needed to create a new Report.
type NewReport struct {
	Date time.Time `json:"date" validate:"required"`
	Body string    `json:"body" validate:"required"`
}

func (nr *NewReport) Validate() error {
	nr.Body = core.CleanString(nr.Body)
	return core.Validate.Struct(nr)
}

type QueryFilter struct {
	AuthorID string    `query:"author_id"`
	Date     time.Time `query:"date"` // date-only equality
}
