package service

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// ReviewInput is a review as entered by the user.
type ReviewInput struct {
	Rating int64  `json:"rating"`
	Text   string `json:"reviewText"`
}

func (r ReviewInput) validate() error {
	r.Text = strings.TrimSpace(r.Text)
	return apperrors.FromValidation(validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Required, validation.Min(int64(1)), validation.Max(int64(5))),
		validation.Field(&r.Text, validation.RuneLength(0, 5000)),
	))
}

// ReviewService lists and authors reviews. Authoring requires a session and
// attributes the review to its subject.
type ReviewService struct {
	reviews    ReviewAPI
	viewer     Viewer
	logger     *zap.Logger
	dispatcher events.Dispatcher
}

// NewReviewService constructs the service.
func NewReviewService(reviews ReviewAPI, viewer Viewer, logger *zap.Logger, dispatcher events.Dispatcher) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{reviews: reviews, viewer: viewer, logger: logger, dispatcher: dispatcher}
}

func (s *ReviewService) ForMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	return s.reviews.ListReviewsByMovie(ctx, movieID)
}

func (s *ReviewService) Get(ctx context.Context, reviewID int64) (*domain.Review, error) {
	return s.reviews.GetReview(ctx, reviewID)
}

func (s *ReviewService) ForUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	return s.reviews.ListReviewsByUser(ctx, userID)
}

// Mine lists the current subject's reviews.
func (s *ReviewService) Mine(ctx context.Context) ([]domain.Review, error) {
	caps, err := s.author()
	if err != nil {
		return nil, err
	}
	return s.reviews.ListReviewsByUser(ctx, caps.SubjectID())
}

func (s *ReviewService) Create(ctx context.Context, movieID int64, in ReviewInput) (*domain.Review, error) {
	caps, err := s.author()
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	review, err := s.reviews.CreateReview(ctx, s.payload(caps, movieID, in))
	if err != nil {
		return nil, err
	}
	s.logger.Info("review posted", zap.Int64("review_id", review.ID), zap.Int64("movie_id", movieID))
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventReviewPosted,
		Actor:   events.Actor{UserID: caps.SubjectID(), Username: caps.Username()},
		Payload: events.ReviewPostedPayload{ReviewID: review.ID, MovieID: movieID, Rating: review.Rating},
	})
	return review, nil
}

// Update replaces rating and text of a review.
func (s *ReviewService) Update(ctx context.Context, reviewID, movieID int64, in ReviewInput) (*domain.Review, error) {
	caps, err := s.author()
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.reviews.UpdateReview(ctx, reviewID, s.payload(caps, movieID, in))
}

// Patch changes only the fields that are set.
func (s *ReviewService) Patch(ctx context.Context, reviewID int64, rating *int64, text *string) (*domain.Review, error) {
	if _, err := s.author(); err != nil {
		return nil, err
	}
	patch := backend.ReviewPatch{Rating: rating}
	fields := map[string]string{}
	if rating != nil && (*rating < 1 || *rating > 5) {
		fields["rating"] = "must be between 1 and 5"
	}
	if text != nil {
		trimmed := strings.TrimSpace(*text)
		if len([]rune(trimmed)) > 5000 {
			fields["reviewText"] = "the length must be no more than 5000"
		}
		patch.ReviewText = &trimmed
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError(fields)
	}
	if patch.Rating == nil && patch.ReviewText == nil {
		return nil, apperrors.NewValidationError("nothing to update", nil)
	}
	return s.reviews.PatchReview(ctx, reviewID, patch)
}

func (s *ReviewService) Delete(ctx context.Context, reviewID int64) error {
	if _, err := s.author(); err != nil {
		return err
	}
	return s.reviews.DeleteReview(ctx, reviewID)
}

func (s *ReviewService) author() (domain.Capabilities, error) {
	caps := actorOf(s.viewer)
	if !caps.IsAuthenticated() {
		return caps, apperrors.NewUnauthorized("sign in to manage reviews")
	}
	return caps, nil
}

func (s *ReviewService) payload(caps domain.Capabilities, movieID int64, in ReviewInput) backend.ReviewInput {
	return backend.ReviewInput{
		UserID:     caps.SubjectID(),
		MovieID:    movieID,
		Rating:     in.Rating,
		ReviewText: optional(strings.TrimSpace(in.Text)),
	}
}
