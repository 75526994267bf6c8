package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) query() []notification.Notification {
	notifs := make([]notification.Notification, 0, len(repo.db.table))
	for _, n := range repo.db.table {
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.Before(notifs[j].CreatedAt) })
	return notifs
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) FilterNotifications(ctx context.Context, filter notification.QueryFilter, ordering ...core.DBOrdering) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(filter), nil
}

func (repo *notificationRepository) CountNotifications(ctx context.Context, filter notification.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *notificationRepository) filter(filter notification.QueryFilter) []notification.Notification {
	notifs := repo.query()

	if filter.RecipientID != "" {
		var filtered []notification.Notification
		for _, n := range notifs {
			if n.RecipientID == filter.RecipientID {
				filtered = append(filtered, n)
			}
		}
		notifs = filtered
	}
	if notifs != nil && filter.Read != nil {
		var filtered []notification.Notification
		for _, n := range notifs {
			if n.Read == *filter.Read {
				filtered = append(filtered, n)
			}
		}
		notifs = filtered
	}
	if notifs != nil && filter.Title != "" {
		var filtered []notification.Notification
		for _, n := range notifs {
			if n.Title == filter.Title {
				filtered = append(filtered, n)
			}
		}
		notifs = filtered
	}
	if notifs != nil && filter.MessageContains != "" {
		var filtered []notification.Notification
		for _, n := range notifs {
			if strings.Contains(n.Message, filter.MessageContains) {
				filtered = append(filtered, n)
			}
		}
		notifs = filtered
	}
	if notifs != nil && !filter.CreatedFrom.IsZero() {
		var filtered []notification.Notification
		from := filter.CreatedFrom.UTC()
		for _, n := range notifs {
			if !n.CreatedAt.Before(from) {
				filtered = append(filtered, n)
			}
		}
		notifs = filtered
	}

	return notifs
}

func (repo *notificationRepository) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok || n.RecipientID != recipientID {
		return notification.ErrNotFound
	}
	n.Read = true
	return nil
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id, recipientID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok || n.RecipientID != recipientID {
		return notification.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
