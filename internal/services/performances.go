package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

// PerformanceService reads the public performance catalogue.
type PerformanceService struct {
	d *Dispatcher
}

func NewPerformanceService(d *Dispatcher) *PerformanceService {
	return &PerformanceService{d: d}
}

// List returns one page of performances. Zero-valued paging fields take the
// defaults of [models.DefaultPerformanceFilters].
func (s *PerformanceService) List(ctx context.Context, f models.PerformanceFilters) (models.Page[models.PerformanceListItem], error) {
	return call[models.Page[models.PerformanceListItem]](ctx, s.d, Request{
		Method: http.MethodGet,
		Path:   "/api/performances",
		Query:  filterQuery(f),
	})
}

func filterQuery(f models.PerformanceFilters) url.Values {
	def := models.DefaultPerformanceFilters()
	if f.Size <= 0 {
		f.Size = def.Size
	}
	if f.Sort == "" {
		f.Sort = def.Sort
	}
	if f.Page < 0 {
		f.Page = 0
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("size", strconv.Itoa(f.Size))
	q.Set("sort", f.Sort)
	if f.IsFestival != nil {
		q.Set("isFestival", strconv.FormatBool(*f.IsFestival))
	}
	if f.Keyword != "" {
		q.Set("keyword", f.Keyword)
	}
	return q
}

// Get returns one performance. A 404 is reported as [shared.ErrPerformanceNotFound].
func (s *PerformanceService) Get(ctx context.Context, id int64) (models.PerformanceDetail, error) {
	detail, err := call[models.PerformanceDetail](ctx, s.d, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/performances/%d", id),
	})
	if err != nil && StatusCode(err) == http.StatusNotFound {
		return detail, fmt.Errorf("%w: %d: %w", shared.ErrPerformanceNotFound, id, err)
	}
	return detail, err
}

// Calendar lists the performances overlapping the given month (1-12).
func (s *PerformanceService) Calendar(ctx context.Context, year, month int) ([]models.CalendarPerformance, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d", shared.ErrInvalidArgument, month)
	}
	return call[[]models.CalendarPerformance](ctx, s.d, Request{
		Method: http.MethodGet,
		Path:   "/api/performances/calendar",
		Query:  url.Values{"year": {strconv.Itoa(year)}, "month": {strconv.Itoa(month)}},
	})
}
