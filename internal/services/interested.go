package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/stagelog/internal/models"
)

// InterestedService manages bookmarked performances.
type InterestedService struct {
	d *Dispatcher
}

func NewInterestedService(d *Dispatcher) *InterestedService {
	return &InterestedService{d: d}
}

// Add bookmarks a performance and returns the bookmark id.
func (s *InterestedService) Add(ctx context.Context, performanceID int64) (int64, error) {
	created, err := call[models.InterestedCreateResponse](ctx, s.d, Request{
		Method: http.MethodPost,
		Path:   "/api/interested-performances",
		Body:   models.InterestedCreateRequest{PerformanceID: performanceID},
	})
	return created.ID, err
}

func (s *InterestedService) List(ctx context.Context) ([]models.InterestedPerformanceItem, error) {
	return call[[]models.InterestedPerformanceItem](ctx, s.d, Request{
		Method: http.MethodGet,
		Path:   "/api/interested-performances",
	})
}

// Remove drops the bookmark for a performance. The path takes the
// performance id, not the bookmark id.
func (s *InterestedService) Remove(ctx context.Context, performanceID int64) error {
	_, err := s.d.Send(ctx, Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/interested-performances/%d", performanceID),
	})
	return err
}

// Toggle adds the bookmark when absent and removes it when present. It
// reports whether the performance is bookmarked afterwards.
func (s *InterestedService) Toggle(ctx context.Context, performanceID int64) (bool, error) {
	items, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.PerformanceID == performanceID {
			return false, s.Remove(ctx, performanceID)
		}
	}
	_, err = s.Add(ctx, performanceID)
	return err == nil, err
}
