package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// Stage tracks a movie submission.
type Stage int

const (
	StageIdle Stage = iota
	StageCreatingPrimary
	StageAttachingSecondary
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCreatingPrimary:
		return "creating_primary"
	case StageAttachingSecondary:
		return "attaching_secondary"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Dependent steps named in partial-success errors.
const (
	StepGenres  = "attaching genres"
	StepPersons = "creating people"
	StepCredits = "attaching cast and crew"
)

// PendingOperation is the observable state of a submission.
type PendingOperation struct {
	Stage   Stage `json:"stage"`
	MovieID int64 `json:"movieId,omitempty"`
}

// Tracker receives every stage change of a submission.
type Tracker func(PendingOperation)

// MovieOrchestrator creates a movie and its genres and credits through the
// backend's single-entity endpoints.
type MovieOrchestrator struct {
	movies     MovieAPI
	persons    PersonAPI
	viewer     Viewer
	logger     *zap.Logger
	dispatcher events.Dispatcher
	now        func() time.Time
}

// OrchestratorDependencies bundles collaborators for the orchestrator.
type OrchestratorDependencies struct {
	Movies     MovieAPI
	Persons    PersonAPI
	Viewer     Viewer
	Logger     *zap.Logger
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// NewMovieOrchestrator constructs the orchestrator.
func NewMovieOrchestrator(deps OrchestratorDependencies) *MovieOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &MovieOrchestrator{
		movies:     deps.Movies,
		persons:    deps.Persons,
		viewer:     deps.Viewer,
		logger:     logger,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Submit validates draft, creates the movie and then attaches genres, inline
// people and credits, in that order. A failure after the movie exists is
// returned as *errorutil.PartialSuccessError carrying its id; the movie is not
// deleted.
func (o *MovieOrchestrator) Submit(ctx context.Context, draft MovieDraft, track Tracker) (int64, error) {
	if track == nil {
		track = func(PendingOperation) {}
	}

	input, err := draft.Validate(o.now())
	if err != nil {
		return 0, err
	}
	zero := 0.0
	input.AvgRating = &zero

	track(PendingOperation{Stage: StageCreatingPrimary})
	movie, err := o.movies.CreateMovie(ctx, input)
	if err != nil {
		o.logger.Warn("movie create failed", zap.String("title", input.Title), zap.Error(err))
		track(PendingOperation{Stage: StageFailed})
		return 0, err
	}
	if movie == nil || movie.ID == 0 {
		track(PendingOperation{Stage: StageFailed})
		return 0, apperrors.NewBackendError(0, "movie created without an id")
	}
	id := movie.ID
	track(PendingOperation{Stage: StageAttachingSecondary, MovieID: id})

	if err := o.attach(ctx, id, draft); err != nil {
		o.logger.Warn("movie partially created",
			zap.Int64("movie_id", id),
			zap.String("step", err.Step),
			zap.Error(err.Err))
		track(PendingOperation{Stage: StageFailed, MovieID: id})
		o.publish(ctx, events.EventMoviePartiallyCreated, events.MoviePartiallyCreatedPayload{
			MovieID: id,
			Title:   movie.Title,
			Step:    err.Step,
			Error:   apperrors.ToDomainError(err.Err).Message,
		})
		return id, err
	}

	track(PendingOperation{Stage: StageDone, MovieID: id})
	o.logger.Info("movie created",
		zap.Int64("movie_id", id),
		zap.Int("genres", len(draft.GenreIDs)),
		zap.Int("credits", len(draft.Credits)))
	o.publish(ctx, events.EventMovieCreated, events.MovieCreatedPayload{
		MovieID: id,
		Title:   movie.Title,
		Genres:  len(draft.GenreIDs),
		Credits: len(draft.Credits),
	})
	return id, nil
}

func (o *MovieOrchestrator) attach(ctx context.Context, movieID int64, draft MovieDraft) *apperrors.PartialSuccessError {
	if len(draft.GenreIDs) > 0 {
		if err := o.movies.AttachGenres(ctx, movieID, draft.GenreIDs); err != nil {
			return &apperrors.PartialSuccessError{MovieID: movieID, Step: StepGenres, Err: err}
		}
	}
	if len(draft.Credits) == 0 {
		return nil
	}

	credits := make([]domain.CastCredit, 0, len(draft.Credits))
	for _, ref := range draft.Credits {
		personID := ref.PersonID
		if ref.NewPerson != nil {
			person, err := o.createPerson(ctx, *ref.NewPerson)
			if err != nil {
				return &apperrors.PartialSuccessError{MovieID: movieID, Step: StepPersons, Err: err}
			}
			personID = person.ID
		}
		credits = append(credits, castCredit(ref, personID))
	}

	if err := o.movies.AddCastBulk(ctx, movieID, credits); err != nil {
		return &apperrors.PartialSuccessError{MovieID: movieID, Step: StepCredits, Err: err}
	}
	return nil
}

func (o *MovieOrchestrator) createPerson(ctx context.Context, in backend.PersonInput) (*domain.Person, error) {
	normalized, err := ValidatePerson(in)
	if err != nil {
		return nil, err
	}
	person, err := o.persons.CreatePerson(ctx, normalized)
	if err != nil {
		return nil, err
	}
	o.publishPersonCreated(ctx, person)
	return person, nil
}

func (o *MovieOrchestrator) publishPersonCreated(ctx context.Context, person *domain.Person) {
	o.publish(ctx, events.EventPersonCreated, events.PersonCreatedPayload{PersonID: person.ID, Name: person.Name})
}

func (o *MovieOrchestrator) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	caps := actorOf(o.viewer)
	events.Publish(ctx, o.dispatcher, events.Event{
		Type:    eventType,
		Actor:   events.Actor{UserID: caps.SubjectID(), Username: caps.Username()},
		Payload: payload,
	})
}
