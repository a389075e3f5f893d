package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/reelhouse/movie-catalog/internal/api/dto"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/service"
)

// PersonsHandler exposes person lookup and creation for the admin pages.
type PersonsHandler struct {
	deps Dependencies
}

// NewPersonsHandler constructs handler.
func NewPersonsHandler(deps Dependencies) *PersonsHandler {
	return &PersonsHandler{deps: deps}
}

func (h *PersonsHandler) persons(c *fiber.Ctx) (*service.PersonService, error) {
	_, manager, client, err := requestScope(c)
	if err != nil {
		return nil, err
	}
	return service.NewPersonService(client, manager, h.deps.logger(), h.deps.Dispatcher), nil
}

// Search handles GET /admin/persons/search?name=. Queries shorter than two
// characters return an empty list without calling the backend.
func (h *PersonsHandler) Search(c *fiber.Ctx) error {
	svc, err := h.persons(c)
	if err != nil {
		return err
	}
	people, err := svc.Search(c.UserContext(), c.Query("name"))
	if err != nil {
		return err
	}
	if people == nil {
		people = []domain.Person{}
	}
	return c.JSON(fiber.Map{"data": people})
}

// Create handles POST /admin/persons.
func (h *PersonsHandler) Create(c *fiber.Ctx) error {
	var req dto.PersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.persons(c)
	if err != nil {
		return err
	}
	person, err := svc.Create(c.UserContext(), personInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": person})
}
