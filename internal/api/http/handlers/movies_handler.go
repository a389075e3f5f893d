package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/reelhouse/movie-catalog/internal/service"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// MoviesHandler serves catalog browsing and the admin movie endpoints.
type MoviesHandler struct {
	deps Dependencies
}

// NewMoviesHandler constructs handler.
func NewMoviesHandler(deps Dependencies) *MoviesHandler {
	return &MoviesHandler{deps: deps}
}

func (h *MoviesHandler) catalog(c *fiber.Ctx) (*service.CatalogService, error) {
	_, manager, client, err := requestScope(c)
	if err != nil {
		return nil, err
	}
	return service.NewCatalogService(service.CatalogDependencies{
		Movies:     client,
		Viewer:     manager,
		Logger:     h.deps.logger(),
		Dispatcher: h.deps.Dispatcher,
		Now:        h.deps.Now,
	}), nil
}

// Home handles GET /.
func (h *MoviesHandler) Home(c *fiber.Ctx) error {
	_, manager, _, err := requestScope(c)
	if err != nil {
		return err
	}
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	movies, err := svc.ListWithGenres(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"session": sessionView(manager),
		"movies":  movies,
	}})
}

// List handles GET /movies. view=plain and view=full select the record shape;
// the default includes genres.
func (h *MoviesHandler) List(c *fiber.Ctx) error {
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	var movies any
	switch view := c.Query("view"); view {
	case "", "genres":
		movies, err = svc.ListWithGenres(ctx)
	case "plain":
		movies, err = svc.ListMovies(ctx)
	case "full":
		movies, err = svc.ListFullDetails(ctx)
	default:
		return apperrors.NewValidationError("unknown view", map[string]any{"view": view})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": movies})
}

// Search handles GET /movies/search?q=.
func (h *MoviesHandler) Search(c *fiber.Ctx) error {
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	movies, err := svc.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": movies, "query": c.Query("q")})
}

// Detail handles GET /movies/:id.
func (h *MoviesHandler) Detail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	movie, err := svc.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": movie})
}

// Edit handles GET /admin/movies/:id.
func (h *MoviesHandler) Edit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	movie, err := svc.Movie(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": movie})
}

// Update handles PUT /admin/movies/:id.
func (h *MoviesHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var fields map[string]string
	if err := parseBody(c, &fields); err != nil {
		return err
	}
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	movie, err := svc.Update(c.UserContext(), id, fields)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": movie})
}

// Delete handles DELETE /admin/movies/:id.
func (h *MoviesHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	if err := svc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Cast handles GET /admin/movies/:id/cast.
func (h *MoviesHandler) Cast(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	cast, err := svc.Cast(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cast})
}

// RemoveCast handles DELETE /admin/cast/:participationId.
func (h *MoviesHandler) RemoveCast(c *fiber.Ctx) error {
	id, err := paramID(c, "participationId")
	if err != nil {
		return err
	}
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	if err := svc.RemoveCast(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Genres handles GET /admin/genres.
func (h *MoviesHandler) Genres(c *fiber.Ctx) error {
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	genres, err := svc.Genres(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": genres})
}

// Roles handles GET /admin/roles.
func (h *MoviesHandler) Roles(c *fiber.Ctx) error {
	svc, err := h.catalog(c)
	if err != nil {
		return err
	}
	roles, err := svc.Roles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roles})
}
