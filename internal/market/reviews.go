package market

import (
	"context"

	"github.com/google/uuid"
)

const maxReviewComment = 500

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview records the caller's rating of a product. One review per user
// per product; the product's rating average and count are recomputed
// atomically with the insert.
func (s *Service) AddReview(ctx context.Context, actor Actor, productID string, in ReviewInput) (*Product, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, Invalidf("rating must be between 1 and 5")
	}
	if len(in.Comment) > maxReviewComment {
		return nil, Invalidf("review cannot exceed %d characters", maxReviewComment)
	}
	rv := &Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    actor.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.now(),
	}
	return s.Store.AddReview(ctx, rv)
}

func (s *Service) ProductReviews(ctx context.Context, productID string) ([]Review, error) {
	if _, err := s.Store.Product(ctx, productID); err != nil {
		return nil, err
	}
	return s.Store.Reviews(ctx, productID)
}
