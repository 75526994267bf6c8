package announcement

import (
	"time"

	"github.com/fitdeskhq/fitdesk/core"
)

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Active    bool      `json:"active"`
	ReadBy    []string  `json:"read_by"` // user IDs
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// ReadByUser reports whether the given user already opened this announcement.
func (a *Announcement) ReadByUser(userID string) bool {
	for _, id := range a.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// NewAnnouncement contains information needed to create a new Announcement.
type NewAnnouncement struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	return core.Validate.Struct(na)
}

type QueryFilter struct {
	Active   *bool  `query:"active"`
	UnreadBy string `query:"-"` // announcements not yet read by this user
}
