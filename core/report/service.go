package report

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
)

var (
	// errors
	ErrNotFound = errors.New("report not found")
)

type (
	Repository interface {
		CreateReport(ctx context.Context, r Report) (Report, error)
		FilterReports(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Report, error)
		CountReports(ctx context.Context, filter QueryFilter) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, authorID string, nr NewReport) (Report, error) {
	if err := nr.Validate(); err != nil {
		return Report{}, err
	}
	return svc.repo.CreateReport(ctx, Report{
		AuthorID:  authorID,
		Date:      core.StartOfDay(nr.Date),
		Body:      nr.Body,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Report, error) {
	return svc.repo.FilterReports(ctx, filter, ordering...)
}

// CountReportsOn reports how many daily reports were filed for the given day.
// Feeds the daily-reports badge ("what's new today", not a personal unread count).
func (svc *Service) CountReportsOn(ctx context.Context, day time.Time) (int, error) {
	return svc.repo.CountReports(ctx, QueryFilter{Date: core.StartOfDay(day)})
}
