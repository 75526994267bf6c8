package announcement

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
)

var (
	// errors
	ErrNotFound = errors.New("announcement not found")
)

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		FilterAnnouncements(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Announcement, error)
		CountAnnouncements(ctx context.Context, filter QueryFilter) (int, error)
		// MarkAnnouncementRead appends userID to the announcement's ReadBy set.
		MarkAnnouncementRead(ctx context.Context, id, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, createdBy string, na NewAnnouncement) (Announcement, error) {
	if err := na.Validate(); err != nil {
		return Announcement{}, err
	}
	return svc.repo.CreateAnnouncement(ctx, Announcement{
		Title:     na.Title,
		Body:      na.Body,
		Active:    true,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Announcement, error) {
	return svc.repo.FilterAnnouncements(ctx, filter, ordering...)
}

// CountUnread reports the active announcements a user has not opened yet.
// Feeds the announcements badge.
func (svc *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	active := true
	return svc.repo.CountAnnouncements(ctx, QueryFilter{Active: &active, UnreadBy: userID})
}

func (svc *Service) MarkRead(ctx context.Context, id, userID string) error {
	return svc.repo.MarkAnnouncementRead(ctx, id, userID)
}
