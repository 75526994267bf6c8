package manual

import (
	"time"

	"github.com/fitdeskhq/fitdesk/core"
)

// Manual is an operations manual page (opening/closing checklists, machine
// maintenance, front desk playbooks...).
type Manual struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewManual contains information needed to create a new Manual.
type NewManual struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

func (nm *NewManual) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	nm.Body = core.CleanString(nm.Body)
	return core.Validate.Struct(nm)
}

type QueryFilter struct {
	Search       string    `query:"search"`
	CreatedSince time.Time `query:"created_since"`
}
