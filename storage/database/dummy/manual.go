package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/manual"
)

type manualRepository struct {
	db *manualTable
}

var _ manual.Repository = (*manualRepository)(nil) // interface compliance check

func NewManualRepository(db *DB) manual.Repository {
	return &manualRepository{db: db.manual}
}

func (repo *manualRepository) query() []manual.Manual {
	manuals := make([]manual.Manual, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		manuals = append(manuals, *m)
	}
	sort.Slice(manuals, func(i, j int) bool { return manuals[i].CreatedAt.Before(manuals[j].CreatedAt) })
	return manuals
}

func (repo *manualRepository) CreateManual(ctx context.Context, m manual.Manual) (manual.Manual, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = uuid.New().String()
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *manualRepository) FilterManuals(ctx context.Context, filter manual.QueryFilter, ordering ...core.DBOrdering) ([]manual.Manual, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(filter), nil
}

func (repo *manualRepository) CountManuals(ctx context.Context, filter manual.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *manualRepository) filter(filter manual.QueryFilter) []manual.Manual {
	manuals := repo.query()

	if filter.Search != "" {
		var filtered []manual.Manual
		search := strings.ToLower(filter.Search)
		for _, m := range manuals {
			if strings.Contains(strings.ToLower(m.Title), search) ||
				strings.Contains(strings.ToLower(m.Body), search) {
				filtered = append(filtered, m)
			}
		}
		manuals = filtered
	}
	if manuals != nil && !filter.CreatedSince.IsZero() {
		var filtered []manual.Manual
		since := filter.CreatedSince.UTC()
		for _, m := range manuals {
			if !m.CreatedAt.Before(since) {
				filtered = append(filtered, m)
			}
		}
		manuals = filtered
	}

	return manuals
}
