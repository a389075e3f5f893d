package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// MovieForm holds the state of one add-movie view: the draft, the pending
// submission and the outcome of the last one.
//
// Only one submission or inline create may be in flight. Once closed, the form
// ignores results of calls that were still running.
type MovieForm struct {
	orchestrator *MovieOrchestrator
	persons      PersonAPI

	mu       sync.Mutex
	draft    MovieDraft
	pending  PendingOperation
	inFlight bool
	closed   bool
	lastErr  error
	created  int64
}

// FormState is a snapshot of a MovieForm.
type FormState struct {
	Draft    MovieDraft       `json:"draft"`
	Pending  PendingOperation `json:"pending"`
	InFlight bool             `json:"inFlight"`
	Closed   bool             `json:"closed"`
	// CreatedID is the id of the last movie this form created, fully or partially.
	CreatedID int64 `json:"createdId,omitempty"`
	Err       error `json:"-"`
}

// NewMovieForm opens an empty form.
func NewMovieForm(orchestrator *MovieOrchestrator, persons PersonAPI) *MovieForm {
	return &MovieForm{
		orchestrator: orchestrator,
		persons:      persons,
		draft:        MovieDraft{Fields: map[string]string{}},
	}
}

var errFormClosed = apperrors.NewConflict("form is closed", nil)

// SetField sets one primary field. Unknown fields are rejected.
func (f *MovieForm) SetField(name, value string) error {
	if !slices.Contains(MovieFields, name) {
		return apperrors.NewFieldValidationError(map[string]string{name: "unknown field"})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return err
	}
	f.draft.Fields[name] = value
	return nil
}

// ToggleGenre selects or deselects a genre and reports whether it is now selected.
func (f *MovieForm) ToggleGenre(id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return false, err
	}
	if i := slices.Index(f.draft.GenreIDs, id); i >= 0 {
		f.draft.GenreIDs = slices.Delete(f.draft.GenreIDs, i, i+1)
		return false, nil
	}
	f.draft.GenreIDs = append(f.draft.GenreIDs, id)
	return true, nil
}

// AddCredit appends a credit and returns its index.
func (f *MovieForm) AddCredit(ref CreditRef) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return 0, err
	}
	if ref.NewPerson != nil {
		p := *ref.NewPerson
		ref.NewPerson = &p
	}
	f.draft.Credits = append(f.draft.Credits, ref)
	return len(f.draft.Credits) - 1, nil
}

func (f *MovieForm) RemoveCredit(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return err
	}
	if index < 0 || index >= len(f.draft.Credits) {
		return apperrors.NewNotFound("credit", map[string]any{"index": index})
	}
	f.draft.Credits = slices.Delete(f.draft.Credits, index, index+1)
	return nil
}

// CreatePersonAndAttach creates a person from a search that found no match and
// adds it to the draft as a reference to the new record.
func (f *MovieForm) CreatePersonAndAttach(ctx context.Context, in backend.PersonInput, roleID int64, characterName string) (*domain.Person, error) {
	normalized, err := ValidatePerson(in)
	if err != nil {
		return nil, err
	}
	if err := flattenCredit(CreditRef{RoleID: roleID, CharacterName: characterName}); err != nil {
		return nil, err
	}
	if err := f.begin(); err != nil {
		return nil, err
	}

	person, err := f.persons.CreatePerson(ctx, normalized)

	f.mu.Lock()
	f.inFlight = false
	if f.closed {
		f.mu.Unlock()
		return person, err
	}
	if err != nil {
		f.lastErr = err
		f.mu.Unlock()
		return nil, err
	}
	f.lastErr = nil
	f.draft.Credits = append(f.draft.Credits, CreditRef{
		PersonID:      person.ID,
		PersonName:    person.Name,
		RoleID:        roleID,
		CharacterName: strings.TrimSpace(characterName),
	})
	f.mu.Unlock()

	f.orchestrator.publishPersonCreated(ctx, person)
	return person, nil
}

// Submit sends the draft through the orchestrator. The draft is kept when
// validation or the movie create fails, and discarded once the movie exists.
func (f *MovieForm) Submit(ctx context.Context) (int64, error) {
	if err := f.begin(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	draft := f.draft.Clone()
	f.mu.Unlock()

	id, err := f.orchestrator.Submit(ctx, draft, f.track)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if f.closed {
		return id, err
	}
	f.lastErr = err
	if id != 0 {
		f.created = id
		f.draft = MovieDraft{Fields: map[string]string{}}
	}
	return id, err
}

// Close discards the form. Later results are not applied.
func (f *MovieForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// State returns a snapshot of the form.
func (f *MovieForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormState{
		Draft:     f.draft.Clone(),
		Pending:   f.pending,
		InFlight:  f.inFlight,
		Closed:    f.closed,
		CreatedID: f.created,
		Err:       f.lastErr,
	}
}

func (f *MovieForm) track(op PendingOperation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.pending = op
	}
}

func (f *MovieForm) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFormClosed
	}
	if f.inFlight {
		return apperrors.NewBusy("submission")
	}
	f.inFlight = true
	return nil
}

// editable must be called with f.mu held.
func (f *MovieForm) editable() error {
	if f.closed {
		return errFormClosed
	}
	if f.inFlight {
		return apperrors.NewBusy("submission")
	}
	return nil
}

func flattenCredit(ref CreditRef) error {
	errs := map[string]string{}
	if err := flatten(errs, "", validateCredit(ref)); err != nil {
		return err
	}
	if len(errs) > 0 {
		return apperrors.NewFieldValidationError(errs)
	}
	return nil
}

// Describe renders a short status line for the form.
func (s FormState) Describe() string {
	switch {
	case s.InFlight:
		return fmt.Sprintf("submitting (%s)", s.Pending.Stage)
	case s.Err != nil:
		return apperrors.ToDomainError(s.Err).Message
	case s.Pending.Stage == StageDone:
		return fmt.Sprintf("movie %d created", s.CreatedID)
	default:
		return "editing"
	}
}
