package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
)

// MinPersonQuery is the shortest name query sent to the backend.
const MinPersonQuery = 2

// PersonService manages cast and crew records.
type PersonService struct {
	persons    PersonAPI
	viewer     Viewer
	logger     *zap.Logger
	dispatcher events.Dispatcher
}

// NewPersonService constructs the service.
func NewPersonService(persons PersonAPI, viewer Viewer, logger *zap.Logger, dispatcher events.Dispatcher) *PersonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonService{persons: persons, viewer: viewer, logger: logger, dispatcher: dispatcher}
}

func (s *PersonService) List(ctx context.Context) ([]domain.Person, error) {
	return s.persons.ListPersons(ctx)
}

// Search looks people up by name. Queries shorter than MinPersonQuery
// characters return no results without calling the backend.
func (s *PersonService) Search(ctx context.Context, query string) ([]domain.Person, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinPersonQuery {
		return nil, nil
	}
	return s.persons.SearchPersons(ctx, query)
}

func (s *PersonService) Get(ctx context.Context, id int64) (*domain.Person, error) {
	return s.persons.GetPerson(ctx, id)
}

func (s *PersonService) Create(ctx context.Context, in backend.PersonInput) (*domain.Person, error) {
	normalized, err := ValidatePerson(in)
	if err != nil {
		return nil, err
	}
	person, err := s.persons.CreatePerson(ctx, normalized)
	if err != nil {
		return nil, err
	}
	s.logger.Info("person created", zap.Int64("person_id", person.ID))
	caps := actorOf(s.viewer)
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventPersonCreated,
		Actor:   events.Actor{UserID: caps.SubjectID(), Username: caps.Username()},
		Payload: events.PersonCreatedPayload{PersonID: person.ID, Name: person.Name},
	})
	return person, nil
}

func (s *PersonService) Update(ctx context.Context, id int64, in backend.PersonInput) (*domain.Person, error) {
	normalized, err := ValidatePerson(in)
	if err != nil {
		return nil, err
	}
	return s.persons.UpdatePerson(ctx, id, normalized)
}

func (s *PersonService) Delete(ctx context.Context, id int64) error {
	return s.persons.DeletePerson(ctx, id)
}
