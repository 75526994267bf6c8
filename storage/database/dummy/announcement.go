package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/announcement"
)

type announcementRepository struct {
	db *announcementTable
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db.announcement}
}

func (repo *announcementRepository) query() []announcement.Announcement {
	anns := make([]announcement.Announcement, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		anns = append(anns, *a)
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].CreatedAt.Before(anns[j].CreatedAt) })
	return anns
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *announcementRepository) FilterAnnouncements(ctx context.Context, filter announcement.QueryFilter, ordering ...core.DBOrdering) ([]announcement.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(filter), nil
}

func (repo *announcementRepository) CountAnnouncements(ctx context.Context, filter announcement.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *announcementRepository) filter(filter announcement.QueryFilter) []announcement.Announcement {
	anns := repo.query()

	if filter.Active != nil {
		var filtered []announcement.Announcement
		for _, a := range anns {
			if a.Active == *filter.Active {
				filtered = append(filtered, a)
			}
		}
		anns = filtered
	}
	if anns != nil && filter.UnreadBy != "" {
		var filtered []announcement.Announcement
		for _, a := range anns {
			if !a.ReadByUser(filter.UnreadBy) {
				filtered = append(filtered, a)
			}
		}
		anns = filtered
	}

	return anns
}

func (repo *announcementRepository) MarkAnnouncementRead(ctx context.Context, id, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.db.table[id]
	if !ok {
		return announcement.ErrNotFound
	}
	if !a.ReadByUser(userID) {
		a.ReadBy = append(a.ReadBy, userID)
	}
	return nil
}
