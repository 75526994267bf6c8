package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
)

type suggestionRepository struct {
	db *suggestionTable
}

var _ suggestion.Repository = (*suggestionRepository)(nil) // interface compliance check

func NewSuggestionRepository(db *DB) suggestion.Repository {
	return &suggestionRepository{db: db.suggestion}
}

func (repo *suggestionRepository) query() []suggestion.Suggestion {
	suggs := make([]suggestion.Suggestion, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		suggs = append(suggs, *s)
	}
	sort.Slice(suggs, func(i, j int) bool { return suggs[i].CreatedAt.Before(suggs[j].CreatedAt) })
	return suggs
}

func (repo *suggestionRepository) CreateSuggestion(ctx context.Context, s suggestion.Suggestion) (suggestion.Suggestion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.New().String()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *suggestionRepository) FilterSuggestions(ctx context.Context, filter suggestion.QueryFilter, ordering ...core.DBOrdering) ([]suggestion.Suggestion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(filter), nil
}

func (repo *suggestionRepository) CountSuggestions(ctx context.Context, filter suggestion.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *suggestionRepository) filter(filter suggestion.QueryFilter) []suggestion.Suggestion {
	suggs := repo.query()

	if filter.AuthorID != "" {
		var filtered []suggestion.Suggestion
		for _, s := range suggs {
			if s.AuthorID == filter.AuthorID {
				filtered = append(filtered, s)
			}
		}
		suggs = filtered
	}
	if suggs != nil && filter.Status != "" {
		var filtered []suggestion.Suggestion
		for _, s := range suggs {
			if s.Status == filter.Status {
				filtered = append(filtered, s)
			}
		}
		suggs = filtered
	}

	return suggs
}

func (repo *suggestionRepository) UpdateSuggestionStatus(ctx context.Context, id, status string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.table[id]
	if !ok {
		return suggestion.ErrNotFound
	}
	s.Status = status
	return nil
}
