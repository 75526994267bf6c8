package suggestion

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
)

var (
	// errors
	ErrNotFound = errors.New("suggestion not found")
)

type (
	Repository interface {
		CreateSuggestion(ctx context.Context, s Suggestion) (Suggestion, error)
		FilterSuggestions(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Suggestion, error)
		CountSuggestions(ctx context.Context, filter QueryFilter) (int, error)
		UpdateSuggestionStatus(ctx context.Context, id, status string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, authorID string, ns NewSuggestion) (Suggestion, error) {
	if err := ns.Validate(); err != nil {
		return Suggestion{}, err
	}
	return svc.repo.CreateSuggestion(ctx, Suggestion{
		AuthorID:  authorID,
		Title:     ns.Title,
		Body:      ns.Body,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Suggestion, error) {
	return svc.repo.FilterSuggestions(ctx, filter, ordering...)
}

// CountPending reports suggestions still awaiting review, across all authors.
// Feeds the suggestions badge (meant for reviewers).
func (svc *Service) CountPending(ctx context.Context) (int, error) {
	return svc.repo.CountSuggestions(ctx, QueryFilter{Status: StatusPending})
}

func (svc *Service) SetStatus(ctx context.Context, id, status string) error {
	return svc.repo.UpdateSuggestionStatus(ctx, id, status)
}
