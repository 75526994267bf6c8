package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/report"
)

type reportRepository struct {
	db *reportTable
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.report}
}

func (repo *reportRepository) query() []report.Report {
	reports := make([]report.Report, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.Before(reports[j].CreatedAt) })
	return reports
}

func (repo *reportRepository) CreateReport(ctx context.Context, r report.Report) (report.Report, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = uuid.New().String()
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *reportRepository) FilterReports(ctx context.Context, filter report.QueryFilter, ordering ...core.DBOrdering) ([]report.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(filter), nil
}

func (repo *reportRepository) CountReports(ctx context.Context, filter report.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *reportRepository) filter(filter report.QueryFilter) []report.Report {
	reports := repo.query()

	if filter.AuthorID != "" {
		var filtered []report.Report
		for _, r := range reports {
			if r.AuthorID == filter.AuthorID {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}
	if reports != nil && !filter.Date.IsZero() {
		var filtered []report.Report
		for _, r := range reports {
			if core.SameDay(r.Date, filter.Date) {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}

	return reports
}
