package handlers

import (
	"net/http"
	"slices"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/api/dto"
	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/service"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// MaxDraftsPerClient bounds the open add-movie forms of one browser client.
const MaxDraftsPerClient = 5

// DraftStore keeps the open add-movie forms of every client.
type DraftStore struct {
	mu    sync.Mutex
	forms map[string]map[string]*service.MovieForm
}

// NewDraftStore creates an empty store.
func NewDraftStore() *DraftStore {
	return &DraftStore{forms: map[string]map[string]*service.MovieForm{}}
}

func (s *DraftStore) open(scope string, form *service.MovieForm) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	forms := s.forms[scope]
	if forms == nil {
		forms = map[string]*service.MovieForm{}
		s.forms[scope] = forms
	}
	if len(forms) >= MaxDraftsPerClient {
		return "", apperrors.NewConflict("too many open drafts", map[string]any{"max": MaxDraftsPerClient})
	}
	id := uuid.NewString()
	forms[id] = form
	return id, nil
}

func (s *DraftStore) get(scope, id string) (*service.MovieForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[scope][id]
	if !ok {
		return nil, apperrors.NewNotFound("draft", map[string]any{"draftId": id})
	}
	return form, nil
}

// close removes the form and closes it so late results are dropped.
func (s *DraftStore) close(scope, id string) error {
	s.mu.Lock()
	form, ok := s.forms[scope][id]
	if ok {
		delete(s.forms[scope], id)
		if len(s.forms[scope]) == 0 {
			delete(s.forms, scope)
		}
	}
	s.mu.Unlock()
	if !ok {
		return apperrors.NewNotFound("draft", map[string]any{"draftId": id})
	}
	form.Close()
	return nil
}

// Len returns the number of open drafts of scope.
func (s *DraftStore) Len(scope string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms[scope])
}

// DraftsHandler drives the admin add-movie form.
type DraftsHandler struct {
	deps   Dependencies
	drafts *DraftStore
}

// NewDraftsHandler constructs handler.
func NewDraftsHandler(deps Dependencies, drafts *DraftStore) *DraftsHandler {
	if drafts == nil {
		drafts = NewDraftStore()
	}
	return &DraftsHandler{deps: deps, drafts: drafts}
}

// Create handles POST /admin/movies/drafts.
func (h *DraftsHandler) Create(c *fiber.Ctx) error {
	scope, manager, client, err := requestScope(c)
	if err != nil {
		return err
	}
	orchestrator := service.NewMovieOrchestrator(service.OrchestratorDependencies{
		Movies:     client,
		Persons:    client,
		Viewer:     manager,
		Logger:     h.deps.logger(),
		Dispatcher: h.deps.Dispatcher,
		Now:        h.deps.Now,
	})
	form := service.NewMovieForm(orchestrator, client)
	id, err := h.drafts.open(scope, form)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": draftView(id, form.State())})
}

// Get handles GET /admin/movies/drafts/:draftId.
func (h *DraftsHandler) Get(c *fiber.Ctx) error {
	id, form, err := h.form(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftView(id, form.State())})
}

// Patch handles PATCH /admin/movies/drafts/:draftId.
func (h *DraftsHandler) Patch(c *fiber.Ctx) error {
	id, form, err := h.form(c)
	if err != nil {
		return err
	}
	var req dto.DraftFieldsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	for name := range req.Fields {
		if !slices.Contains(service.MovieFields, name) {
			return apperrors.NewFieldValidationError(map[string]string{name: "unknown field"})
		}
	}
	for name, value := range req.Fields {
		if err := form.SetField(name, value); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"data": draftView(id, form.State())})
}

// Delete handles DELETE /admin/movies/drafts/:draftId.
func (h *DraftsHandler) Delete(c *fiber.Ctx) error {
	scope, _, _, err := requestScope(c)
	if err != nil {
		return err
	}
	if err := h.drafts.close(scope, c.Params("draftId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ToggleGenre handles POST /admin/movies/drafts/:draftId/genres/:genreId.
func (h *DraftsHandler) ToggleGenre(c *fiber.Ctx) error {
	id, form, err := h.form(c)
	if err != nil {
		return err
	}
	genreID, err := paramID(c, "genreId")
	if err != nil {
		return err
	}
	selected, err := form.ToggleGenre(genreID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftView(id, form.State()), "selected": selected})
}

// AddCredit handles POST /admin/movies/drafts/:draftId/credits.
func (h *DraftsHandler) AddCredit(c *fiber.Ctx) error {
	id, form, err := h.form(c)
	if err != nil {
		return err
	}
	var req dto.CreditRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	index, err := form.AddCredit(service.CreditRef{
		PersonID:      req.PersonID,
		PersonName:    req.PersonName,
		RoleID:        req.RoleID,
		CharacterName: req.CharacterName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": draftView(id, form.State()), "index": index})
}

// RemoveCredit handles DELETE /admin/movies/drafts/:draftId/credits/:index.
func (h *DraftsHandler) RemoveCredit(c *fiber.Ctx) error {
	id, form, err := h.form(c)
	if err != nil {
		return err
	}
	index, err := c.ParamsInt("index")
	if err != nil {
		return apperrors.NewValidationError("invalid index", nil)
	}
	if err := form.RemoveCredit(index); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftView(id, form.State())})
}

// CreatePerson handles POST /admin/movies/drafts/:draftId/persons: the person
// is created on the backend and selected on the draft.
func (h *DraftsHandler) CreatePerson(c *fiber.Ctx) error {
	id, form, err := h.form(c)
	if err != nil {
		return err
	}
	var req dto.InlinePersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	person, err := form.CreatePersonAndAttach(c.UserContext(), personInput(req.PersonRequest), req.RoleID, req.CharacterName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": draftView(id, form.State()), "person": person})
}

// Submit handles POST /admin/movies/drafts/:draftId/submit. A partial success
// renders as 207 with the created movie id in the error details.
func (h *DraftsHandler) Submit(c *fiber.Ctx) error {
	id, form, err := h.form(c)
	if err != nil {
		return err
	}
	movieID, err := form.Submit(c.UserContext())
	if err != nil {
		return err
	}
	h.deps.logger().Info("movie draft submitted", zap.String("draft_id", id), zap.Int64("movie_id", movieID))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": draftView(id, form.State()), "movieId": movieID})
}

func (h *DraftsHandler) form(c *fiber.Ctx) (string, *service.MovieForm, error) {
	scope, _, _, err := requestScope(c)
	if err != nil {
		return "", nil, err
	}
	id := c.Params("draftId")
	form, err := h.drafts.get(scope, id)
	if err != nil {
		return "", nil, err
	}
	return id, form, nil
}

func draftView(id string, state service.FormState) dto.DraftView {
	view := dto.DraftView{
		ID:        id,
		Draft:     state.Draft,
		Pending:   state.Pending,
		InFlight:  state.InFlight,
		CreatedID: state.CreatedID,
		Status:    state.Describe(),
	}
	if de := apperrors.ToDomainError(state.Err); de != nil {
		view.Error = &dto.ErrorView{Code: de.Code, Message: de.Message, Details: de.Details}
	}
	return view
}

func personInput(req dto.PersonRequest) backend.PersonInput {
	return backend.PersonInput{
		Name:       req.Name,
		BirthDate:  req.BirthDate,
		Bio:        req.Bio,
		ProfileURL: req.ProfileURL,
	}
}
