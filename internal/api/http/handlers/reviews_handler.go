package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/reelhouse/movie-catalog/internal/api/dto"
	"github.com/reelhouse/movie-catalog/internal/service"
)

// ReviewsHandler lists and authors reviews.
type ReviewsHandler struct {
	deps Dependencies
}

// NewReviewsHandler constructs handler.
func NewReviewsHandler(deps Dependencies) *ReviewsHandler {
	return &ReviewsHandler{deps: deps}
}

func (h *ReviewsHandler) reviews(c *fiber.Ctx) (*service.ReviewService, error) {
	_, manager, client, err := requestScope(c)
	if err != nil {
		return nil, err
	}
	return service.NewReviewService(client, manager, h.deps.logger(), h.deps.Dispatcher), nil
}

// ForMovie handles GET /movies/:id/reviews.
func (h *ReviewsHandler) ForMovie(c *fiber.Ctx) error {
	movieID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	reviews, err := svc.ForMovie(c.UserContext(), movieID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reviews})
}

// Get handles GET /reviews/:id.
func (h *ReviewsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	review, err := svc.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": review})
}

// ForUser handles GET /users/:id/reviews.
func (h *ReviewsHandler) ForUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	reviews, err := svc.ForUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reviews})
}

// Mine handles GET /me/reviews.
func (h *ReviewsHandler) Mine(c *fiber.Ctx) error {
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	reviews, err := svc.Mine(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reviews})
}

// Create handles POST /movies/:id/reviews.
func (h *ReviewsHandler) Create(c *fiber.Ctx) error {
	movieID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	review, err := svc.Create(c.UserContext(), movieID, service.ReviewInput{Rating: req.Rating, Text: req.ReviewText})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": review})
}

// Update handles PUT /reviews/:id.
func (h *ReviewsHandler) Update(c *fiber.Ctx) error {
	reviewID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	review, err := svc.Update(c.UserContext(), reviewID, req.MovieID, service.ReviewInput{Rating: req.Rating, Text: req.ReviewText})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": review})
}

// Patch handles PATCH /reviews/:id.
func (h *ReviewsHandler) Patch(c *fiber.Ctx) error {
	reviewID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ReviewPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	review, err := svc.Patch(c.UserContext(), reviewID, req.Rating, req.ReviewText)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": review})
}

// Delete handles DELETE /reviews/:id.
func (h *ReviewsHandler) Delete(c *fiber.Ctx) error {
	reviewID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.reviews(c)
	if err != nil {
		return err
	}
	if err := svc.Delete(c.UserContext(), reviewID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
