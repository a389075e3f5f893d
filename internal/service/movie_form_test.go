package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// gatedMovies holds CreateMovie until release is closed.
type gatedMovies struct {
	MovieAPI
	started chan struct{}
	release chan struct{}
}

func (g *gatedMovies) CreateMovie(ctx context.Context, in backend.MovieInput) (*domain.Movie, error) {
	close(g.started)
	<-g.release
	return g.MovieAPI.CreateMovie(ctx, in)
}

func fillInception(t *testing.T, form *MovieForm) {
	t.Helper()
	for name, value := range inceptionDraft().Fields {
		require.NoError(t, form.SetField(name, value))
	}
}

func TestMovieForm_EditsDraft(t *testing.T) {
	f := newFixture(t)
	form := NewMovieForm(f.orchestrator(), f.client)

	require.Error(t, form.SetField("rating", "5"))
	require.NoError(t, form.SetField(FieldTitle, "Heat"))

	on, err := form.ToggleGenre(1)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = form.ToggleGenre(3)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = form.ToggleGenre(1)
	require.NoError(t, err)
	assert.False(t, on)

	idx, err := form.AddCredit(CreditRef{PersonID: 9, RoleID: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	_, err = form.AddCredit(CreditRef{PersonID: 10, RoleID: 1})
	require.NoError(t, err)
	require.NoError(t, form.RemoveCredit(0))
	assert.True(t, apperrors.HasCode(form.RemoveCredit(5), apperrors.CodeNotFound))

	draft := form.State().Draft
	assert.Equal(t, "Heat", draft.Fields[FieldTitle])
	assert.Equal(t, []int64{3}, draft.GenreIDs)
	require.Len(t, draft.Credits, 1)
	assert.Equal(t, int64(10), draft.Credits[0].PersonID)
}

func TestMovieForm_SubmitSuccessClearsDraft(t *testing.T) {
	f := newFixture(t)
	form := NewMovieForm(f.orchestrator(), f.client)
	fillInception(t, form)

	id, err := form.Submit(context.Background())
	require.NoError(t, err)

	state := form.State()
	assert.True(t, state.Draft.IsEmpty())
	assert.Equal(t, id, state.CreatedID)
	assert.Equal(t, PendingOperation{Stage: StageDone, MovieID: id}, state.Pending)
	assert.NoError(t, state.Err)
	assert.Equal(t, fmt.Sprintf("movie %d created", id), state.Describe())
}

func TestMovieForm_ValidationFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	form := NewMovieForm(f.orchestrator(), f.client)
	require.NoError(t, form.SetField(FieldTitle, "Untitled"))

	_, err := form.Submit(context.Background())
	require.Error(t, err)

	state := form.State()
	assert.Equal(t, "Untitled", state.Draft.Fields[FieldTitle])
	assert.Equal(t, StageIdle, state.Pending.Stage)
	assert.False(t, state.InFlight)
	assert.Equal(t, err, state.Err)
}

func TestMovieForm_PrimaryFailureKeepsDraftForRetry(t *testing.T) {
	f := newFixture(t)
	form := NewMovieForm(f.orchestrator(), f.client)
	fillInception(t, form)
	f.srv.FailNext(routeCreateMovie, http.StatusServiceUnavailable, "try later")

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, inceptionDraft().Fields[FieldTitle], form.State().Draft.Fields[FieldTitle])

	id, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, 1, f.srv.MovieCount())
}

func TestMovieForm_PartialSuccessDiscardsDraft(t *testing.T) {
	f := newFixture(t)
	form := NewMovieForm(f.orchestrator(), f.client)
	fillInception(t, form)
	_, err := form.ToggleGenre(2)
	require.NoError(t, err)
	f.srv.FailNext(routeAttachGenres, http.StatusInternalServerError, "genre service down")

	id, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePartialSuccess))

	state := form.State()
	assert.True(t, state.Draft.IsEmpty())
	assert.Equal(t, id, state.CreatedID)
	assert.Equal(t, StageFailed, state.Pending.Stage)
	assert.Equal(t, "movie created, but attaching genres failed", state.Describe())
}

func TestMovieForm_SecondSubmitIsBusy(t *testing.T) {
	f := newFixture(t)
	gate := &gatedMovies{MovieAPI: f.client, started: make(chan struct{}), release: make(chan struct{})}
	o := NewMovieOrchestrator(OrchestratorDependencies{Movies: gate, Persons: f.client, Now: f.orchestrator().now})
	form := NewMovieForm(o, f.client)
	fillInception(t, form)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = form.Submit(context.Background())
	}()
	<-gate.started

	state := form.State()
	assert.True(t, state.InFlight)
	assert.Equal(t, StageCreatingPrimary, state.Pending.Stage)

	_, err := form.Submit(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBusy))
	assert.True(t, apperrors.HasCode(form.SetField(FieldTitle, "Other"), apperrors.CodeBusy))

	close(gate.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, f.srv.MovieCount())
}

func TestMovieForm_ResultsAfterCloseAreIgnored(t *testing.T) {
	f := newFixture(t)
	gate := &gatedMovies{MovieAPI: f.client, started: make(chan struct{}), release: make(chan struct{})}
	o := NewMovieOrchestrator(OrchestratorDependencies{Movies: gate, Persons: f.client, Now: f.orchestrator().now})
	form := NewMovieForm(o, f.client)
	fillInception(t, form)

	done := make(chan int64)
	go func() {
		id, _ := form.Submit(context.Background())
		done <- id
	}()
	<-gate.started
	form.Close()
	close(gate.release)
	id := <-done

	assert.NotZero(t, id, "the backend call itself still completes")
	state := form.State()
	assert.True(t, state.Closed)
	assert.Zero(t, state.CreatedID)
	assert.Equal(t, StageCreatingPrimary, state.Pending.Stage)
	assert.False(t, state.Draft.IsEmpty())

	_, err := form.Submit(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestMovieForm_CreatePersonAndAttach(t *testing.T) {
	f := newFixture(t)
	form := NewMovieForm(f.orchestrator(), f.client)
	ctx := context.Background()

	person, err := form.CreatePersonAndAttach(ctx, backend.PersonInput{Name: " Hans Zimmer "}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "Hans Zimmer", person.Name)

	credits := form.State().Draft.Credits
	require.Len(t, credits, 1)
	assert.Equal(t, person.ID, credits[0].PersonID)
	assert.Nil(t, credits[0].NewPerson)
	assert.Equal(t, "Hans Zimmer", credits[0].PersonName)
}

func TestMovieForm_CreatePersonFailures(t *testing.T) {
	f := newFixture(t)
	form := NewMovieForm(f.orchestrator(), f.client)
	ctx := context.Background()

	_, err := form.CreatePersonAndAttach(ctx, backend.PersonInput{Name: "  "}, 1, "")
	assert.Contains(t, apperrors.FieldErrors(err), "name")
	_, err = form.CreatePersonAndAttach(ctx, backend.PersonInput{Name: "Hans Zimmer"}, 0, "")
	assert.Contains(t, apperrors.FieldErrors(err), "roleId")
	assert.Zero(t, f.srv.Calls(routeCreatePerson))

	f.srv.FailNext(routeCreatePerson, http.StatusConflict, "Person already exists")
	_, err = form.CreatePersonAndAttach(ctx, backend.PersonInput{Name: "Hans Zimmer"}, 1, "")
	require.Error(t, err)
	assert.Equal(t, "Person already exists", apperrors.ToDomainError(err).Message)
	assert.Empty(t, form.State().Draft.Credits)
}
