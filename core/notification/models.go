package notification

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/fitdeskhq/fitdesk/core"
)

// Kinds
const (
	KindInfo    = "info"
	KindWarning = "warning"
	KindSuccess = "success"
	KindError   = "error"
)

var AllKinds = []string{KindInfo, KindWarning, KindSuccess, KindError}

type Notification struct {
	ID          string      `json:"id"`
	RecipientID string      `json:"recipient_id"`
	Kind        string      `json:"kind"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Link        null.String `json:"link"`
	Read        bool        `json:"read"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
}

// NewNotification contains information needed to create a new Notification.
type NewNotification struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Kind        string `json:"kind" validate:"omitempty,notifkind"`
	Title       string `json:"title" validate:"required"`
	Message     string `json:"message"`
	Link        string `json:"link"`
}

func (nn *NewNotification) Validate() error {
	nn.RecipientID = core.CleanString(nn.RecipientID)
	nn.Title = core.CleanString(nn.Title)
	if nn.Kind == "" {
		nn.Kind = KindInfo
	}
	if err := core.Validate.Struct(nn); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

type QueryFilter struct {
	RecipientID     string    `query:"recipient_id"`
	Read            *bool     `query:"read"`
	Title           string    `query:"title"` // exact match
	MessageContains string    `query:"message_contains"`
	CreatedFrom     time.Time `query:"created_from"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.RecipientID == "" && qf.Read == nil && qf.Title == "" &&
		qf.MessageContains == "" && qf.CreatedFrom.IsZero()
}
