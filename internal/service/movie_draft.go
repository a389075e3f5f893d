package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// Movie draft field names.
const (
	FieldTitle       = "title"
	FieldReleaseYear = "releaseYear"
	FieldDuration    = "duration"
	FieldDescription = "description"
	FieldLanguage    = "language"
	FieldCountry     = "country"
	FieldPosterURL   = "posterUrl"
	FieldTrailerURL  = "trailerUrl"
)

// MovieFields lists the fields a draft accepts.
var MovieFields = []string{
	FieldTitle, FieldReleaseYear, FieldDuration, FieldDescription,
	FieldLanguage, FieldCountry, FieldPosterURL, FieldTrailerURL,
}

const firstFilmYear = 1888

// MovieDraft is an unsubmitted movie with its genres and credits.
type MovieDraft struct {
	Fields   map[string]string `json:"fields"`
	GenreIDs []int64           `json:"genreIds"`
	Credits  []CreditRef       `json:"credits"`
}

// CreditRef attributes a role on the movie to either an existing person or
// one created inline during submission.
type CreditRef struct {
	PersonID      int64                `json:"personId,omitempty"`
	PersonName    string               `json:"personName,omitempty"`
	NewPerson     *backend.PersonInput `json:"newPerson,omitempty"`
	RoleID        int64                `json:"roleId"`
	CharacterName string               `json:"characterName,omitempty"`
}

// Clone returns a deep copy of the draft.
func (d MovieDraft) Clone() MovieDraft {
	out := MovieDraft{
		Fields:   make(map[string]string, len(d.Fields)),
		GenreIDs: append([]int64(nil), d.GenreIDs...),
		Credits:  make([]CreditRef, len(d.Credits)),
	}
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	for i, c := range d.Credits {
		if c.NewPerson != nil {
			p := *c.NewPerson
			c.NewPerson = &p
		}
		out.Credits[i] = c
	}
	return out
}

// IsEmpty reports whether nothing has been entered.
func (d MovieDraft) IsEmpty() bool {
	for _, v := range d.Fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return len(d.GenreIDs) == 0 && len(d.Credits) == 0
}

type movieFields struct {
	Title       string `json:"title"`
	ReleaseYear string `json:"releaseYear"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Country     string `json:"country"`
	PosterURL   string `json:"posterUrl"`
	TrailerURL  string `json:"trailerUrl"`
}

var validURL = is.RequestURL.Error("must be a valid URL")

// ValidateMovieFields checks and normalizes the primary fields of a movie.
func ValidateMovieFields(values map[string]string, now time.Time) (backend.MovieInput, error) {
	errs := map[string]string{}
	in, err := normalizeMovie(values, now, errs)
	if err != nil {
		return backend.MovieInput{}, err
	}
	if len(errs) > 0 {
		return backend.MovieInput{}, apperrors.NewFieldValidationError(errs)
	}
	return in, nil
}

// Validate checks the whole draft and returns the normalized movie and credits.
func (d MovieDraft) Validate(now time.Time) (backend.MovieInput, error) {
	errs := map[string]string{}
	in, err := normalizeMovie(d.Fields, now, errs)
	if err != nil {
		return backend.MovieInput{}, err
	}

	seen := make(map[int64]bool, len(d.GenreIDs))
	for _, id := range d.GenreIDs {
		if id <= 0 || seen[id] {
			errs["genreIds"] = "genre ids must be positive and unique"
			break
		}
		seen[id] = true
	}

	for i, c := range d.Credits {
		prefix := fmt.Sprintf("credits.%d.", i)
		if err := flatten(errs, prefix, validateCredit(c)); err != nil {
			return backend.MovieInput{}, err
		}
		switch {
		case c.PersonID > 0 && c.NewPerson != nil:
			errs[prefix+"personId"] = "choose an existing person or a new one, not both"
		case c.PersonID <= 0 && c.NewPerson == nil:
			errs[prefix+"personId"] = "select a person"
		case c.NewPerson != nil:
			if _, err := normalizePerson(*c.NewPerson, errs, prefix+"person."); err != nil {
				return backend.MovieInput{}, err
			}
		}
	}

	if len(errs) > 0 {
		return backend.MovieInput{}, apperrors.NewFieldValidationError(errs)
	}
	return in, nil
}

func normalizeMovie(values map[string]string, now time.Time, errs map[string]string) (backend.MovieInput, error) {
	f := movieFields{
		Title:       strings.TrimSpace(values[FieldTitle]),
		ReleaseYear: strings.TrimSpace(values[FieldReleaseYear]),
		Duration:    strings.TrimSpace(values[FieldDuration]),
		Description: strings.TrimSpace(values[FieldDescription]),
		Language:    strings.TrimSpace(values[FieldLanguage]),
		Country:     strings.TrimSpace(values[FieldCountry]),
		PosterURL:   strings.TrimSpace(values[FieldPosterURL]),
		TrailerURL:  strings.TrimSpace(values[FieldTrailerURL]),
	}
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&f.ReleaseYear, validation.Required, intBetween(firstFilmYear, int64(now.Year()+5))),
		validation.Field(&f.Duration, intBetween(1, 600)),
		validation.Field(&f.Description, validation.RuneLength(0, 1000)),
		validation.Field(&f.Language, validation.RuneLength(0, 50)),
		validation.Field(&f.Country, validation.RuneLength(0, 100)),
		validation.Field(&f.PosterURL, validURL),
		validation.Field(&f.TrailerURL, validURL),
	)
	if err := flatten(errs, "", err); err != nil {
		return backend.MovieInput{}, err
	}
	if len(errs) > 0 {
		return backend.MovieInput{}, nil
	}

	year, _ := strconv.ParseInt(f.ReleaseYear, 10, 64)
	in := backend.MovieInput{
		Title:       f.Title,
		ReleaseYear: year,
		Description: optional(f.Description),
		Language:    optional(f.Language),
		Country:     optional(f.Country),
		PosterURL:   optional(f.PosterURL),
		TrailerURL:  optional(f.TrailerURL),
	}
	if f.Duration != "" {
		d, _ := strconv.ParseInt(f.Duration, 10, 64)
		in.Duration = &d
	}
	return in, nil
}

type creditFields struct {
	RoleID        int64  `json:"roleId"`
	CharacterName string `json:"characterName"`
}

func validateCredit(c CreditRef) error {
	f := creditFields{RoleID: c.RoleID, CharacterName: strings.TrimSpace(c.CharacterName)}
	return validation.ValidateStruct(&f,
		validation.Field(&f.RoleID, validation.Required, validation.Min(int64(1))),
		validation.Field(&f.CharacterName, validation.RuneLength(0, 500)),
	)
}

type personFields struct {
	Name       string `json:"name"`
	BirthDate  string `json:"birthDate"`
	Bio        string `json:"bio"`
	ProfileURL string `json:"profileUrl"`
}

// ValidatePerson checks and normalizes a person record.
func ValidatePerson(in backend.PersonInput) (backend.PersonInput, error) {
	errs := map[string]string{}
	out, err := normalizePerson(in, errs, "")
	if err != nil {
		return backend.PersonInput{}, err
	}
	if len(errs) > 0 {
		return backend.PersonInput{}, apperrors.NewFieldValidationError(errs)
	}
	return out, nil
}

func normalizePerson(in backend.PersonInput, errs map[string]string, prefix string) (backend.PersonInput, error) {
	f := personFields{
		Name:       strings.TrimSpace(in.Name),
		BirthDate:  strings.TrimSpace(deref(in.BirthDate)),
		Bio:        strings.TrimSpace(deref(in.Bio)),
		ProfileURL: strings.TrimSpace(deref(in.ProfileURL)),
	}
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&f.BirthDate, validation.Date("2006-01-02")),
		validation.Field(&f.Bio, validation.RuneLength(0, 5000)),
		validation.Field(&f.ProfileURL, validURL),
	)
	if err := flatten(errs, prefix, err); err != nil {
		return backend.PersonInput{}, err
	}
	return backend.PersonInput{
		Name:       f.Name,
		BirthDate:  optional(f.BirthDate),
		Bio:        optional(f.Bio),
		ProfileURL: optional(f.ProfileURL),
	}, nil
}

// castCredit converts a resolved credit into the backend payload.
func castCredit(c CreditRef, personID int64) domain.CastCredit {
	return domain.CastCredit{
		PersonID:      personID,
		RoleID:        c.RoleID,
		CharacterName: optional(strings.TrimSpace(c.CharacterName)),
	}
}

func intBetween(lo, hi int64) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.New("must be a whole number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	})
}

// flatten copies ozzo field errors into errs under prefix. Other errors are returned.
func flatten(errs map[string]string, prefix string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return apperrors.NewInternalError(err)
	}
	for field, ferr := range verrs {
		if ferr != nil {
			errs[prefix+field] = ferr.Error()
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
