package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

// ReviewService manages the signed-in user's reviews. Content is HTML and
// passes through untouched.
type ReviewService struct {
	d *Dispatcher
}

func NewReviewService(d *Dispatcher) *ReviewService {
	return &ReviewService{d: d}
}

// Create stores a new review and returns its id.
func (s *ReviewService) Create(ctx context.Context, r models.ReviewRequest) (int64, error) {
	if err := shared.ValidateReview(r.Title, r.Content); err != nil {
		return 0, err
	}
	return call[int64](ctx, s.d, Request{Method: http.MethodPost, Path: "/api/reviews", Body: r})
}

// List returns the user's reviews, newest first as ordered by the server.
func (s *ReviewService) List(ctx context.Context) ([]models.ReviewListItem, error) {
	return call[[]models.ReviewListItem](ctx, s.d, Request{Method: http.MethodGet, Path: "/api/reviews"})
}

func (s *ReviewService) Get(ctx context.Context, id int64) (models.ReviewDetail, error) {
	detail, err := call[models.ReviewDetail](ctx, s.d, Request{Method: http.MethodGet, Path: reviewPath(id)})
	if err != nil && StatusCode(err) == http.StatusNotFound {
		return detail, fmt.Errorf("%w: %d: %w", shared.ErrReviewNotFound, id, err)
	}
	return detail, err
}

// Update replaces a review, including its track list.
func (s *ReviewService) Update(ctx context.Context, id int64, r models.ReviewRequest) (models.ReviewDetail, error) {
	if err := shared.ValidateReview(r.Title, r.Content); err != nil {
		return models.ReviewDetail{}, err
	}
	return call[models.ReviewDetail](ctx, s.d, Request{Method: http.MethodPut, Path: reviewPath(id), Body: r})
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	_, err := s.d.Send(ctx, Request{Method: http.MethodDelete, Path: reviewPath(id)})
	return err
}

func reviewPath(id int64) string { return fmt.Sprintf("/api/reviews/%d", id) }
