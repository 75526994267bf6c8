package manual

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
)

var (
	// errors
	ErrNotFound = errors.New("manual not found")
)

// FreshWindow is how long a manual counts as "new" for the manuals badge.
const FreshWindow = 7 * 24 * time.Hour

type (
	Repository interface {
		CreateManual(ctx context.Context, m Manual) (Manual, error)
		FilterManuals(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Manual, error)
		CountManuals(ctx context.Context, filter QueryFilter) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, createdBy string, nm NewManual) (Manual, error) {
	if err := nm.Validate(); err != nil {
		return Manual{}, err
	}
	return svc.repo.CreateManual(ctx, Manual{
		Title:     nm.Title,
		Body:      nm.Body,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Manual, error) {
	return svc.repo.FilterManuals(ctx, filter, ordering...)
}

// CountFresh reports manuals created within the trailing FreshWindow as of `now`.
// Feeds the manuals badge.
func (svc *Service) CountFresh(ctx context.Context, now time.Time) (int, error) {
	return svc.repo.CountManuals(ctx, QueryFilter{CreatedSince: now.Add(-FreshWindow)})
}
