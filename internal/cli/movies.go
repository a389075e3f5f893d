package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/service"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

func newMoviesCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Browse and manage movies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all movies",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				movies, err := rt.catalog().ListWithGenres(cmd.Context())
				if err != nil {
					return err
				}
				rt.printMovies(cmd.OutOrStdout(), movies)
				return nil
			},
		},
		&cobra.Command{
			Use:   "search <title>",
			Short: "Find movies whose title contains the query",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				movies, err := rt.catalog().Search(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				rt.printMovies(cmd.OutOrStdout(), movies)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a movie with its genres, credits and reviews",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				movie, err := rt.catalog().Detail(cmd.Context(), id)
				if err != nil {
					return err
				}
				rt.printDetails(cmd.OutOrStdout(), movie)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a movie (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.guard(true, "movies delete"); err != nil {
					return err
				}
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := rt.catalog().Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render(fmt.Sprintf("Deleted movie %d", id)))
				return nil
			},
		},
		newMoviesAddCommand(rt),
	)
	return cmd
}

// movieFlags maps add flags to form fields.
var movieFlags = []struct {
	flag, field, usage string
}{
	{"title", service.FieldTitle, "title, up to 50 characters"},
	{"year", service.FieldReleaseYear, "release year"},
	{"duration", service.FieldDuration, "running time in minutes"},
	{"description", service.FieldDescription, "plot summary"},
	{"language", service.FieldLanguage, "original language"},
	{"country", service.FieldCountry, "country of origin"},
	{"poster-url", service.FieldPosterURL, "poster image URL"},
	{"trailer-url", service.FieldTrailerURL, "trailer URL"},
}

func newMoviesAddCommand(rt *runtime) *cobra.Command {
	values := make([]string, len(movieFlags))
	var genres []int64
	var credits, newPeople []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a movie with genres and credits (admin)",
		Long: `Add a movie and attach its genres and credits in one go.

Credits name an existing person as personId:roleId[:character]. New people are
created first and given as name:roleId[:character]. If the movie is created but
a later step fails, the command reports the new movie id; fix it up with the
web admin pages instead of running add again.

Examples:
  moviectl movies add --title Inception --year 2010 --duration 148 \
    --genre 1 --genre 2 --credit 12:2 --new-person "Elliot Page:1:Ariadne"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.guard(true, "movies add"); err != nil {
				return err
			}
			form := service.NewMovieForm(service.NewMovieOrchestrator(service.OrchestratorDependencies{
				Movies:     rt.client,
				Persons:    rt.client,
				Viewer:     rt.manager,
				Logger:     rt.logger,
				Dispatcher: rt.dispatcher,
				Now:        rt.now,
			}), rt.client)
			defer form.Close()

			for i, f := range movieFlags {
				if cmd.Flags().Changed(f.flag) {
					if err := form.SetField(f.field, values[i]); err != nil {
						return err
					}
				}
			}
			for _, id := range genres {
				if _, err := form.ToggleGenre(id); err != nil {
					return err
				}
			}
			refs, err := parseCredits(credits, newPeople)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if _, err := form.AddCredit(ref); err != nil {
					return err
				}
			}

			id, err := form.Submit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render(fmt.Sprintf("Created movie %d", id)))
			return nil
		},
	}
	for i, f := range movieFlags {
		cmd.Flags().StringVar(&values[i], f.flag, "", f.usage)
	}
	cmd.Flags().Int64SliceVar(&genres, "genre", nil, "genre id, repeatable")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "existing person as personId:roleId[:character], repeatable")
	cmd.Flags().StringArrayVar(&newPeople, "new-person", nil, "new person as name:roleId[:character], repeatable")
	return cmd
}

func parseCredits(existing, created []string) ([]service.CreditRef, error) {
	errs := map[string]string{}
	refs := make([]service.CreditRef, 0, len(existing)+len(created))
	for i, raw := range existing {
		parts := strings.SplitN(raw, ":", 3)
		personID, perr := strconv.ParseInt(parts[0], 10, 64)
		roleID, rerr := creditRole(parts)
		if perr != nil || rerr != nil {
			errs[fmt.Sprintf("credit.%d", i)] = "must be personId:roleId[:character]"
			continue
		}
		refs = append(refs, service.CreditRef{PersonID: personID, RoleID: roleID, CharacterName: creditCharacter(parts)})
	}
	for i, raw := range created {
		parts := strings.SplitN(raw, ":", 3)
		roleID, err := creditRole(parts)
		if err != nil {
			errs[fmt.Sprintf("new-person.%d", i)] = "must be name:roleId[:character]"
			continue
		}
		refs = append(refs, service.CreditRef{
			NewPerson:     &backend.PersonInput{Name: parts[0]},
			RoleID:        roleID,
			CharacterName: creditCharacter(parts),
		})
	}
	if len(errs) > 0 {
		return nil, apperrors.NewFieldValidationError(errs)
	}
	return refs, nil
}

func creditRole(parts []string) (int64, error) {
	if len(parts) < 2 {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(parts[1], 10, 64)
}

func creditCharacter(parts []string) string {
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid id %q", raw), nil)
	}
	return id, nil
}

func (rt *runtime) printMovies(out io.Writer, movies []domain.MovieWithGenres) {
	if len(movies) == 0 {
		fmt.Fprintln(out, rt.styles.Muted.Render("No movies found"))
		return
	}
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			m.Title,
			strconv.FormatInt(m.ReleaseYear, 10),
			strings.Join(m.Genres, ", "),
			rating(m.AvgRating),
		})
	}
	fmt.Fprintln(out, rt.styles.table([]string{"ID", "Title", "Year", "Genres", "Rating"}, rows))
}

func (rt *runtime) printDetails(out io.Writer, m *domain.MovieFullDetails) {
	s := rt.styles
	fmt.Fprintln(out, s.Title.Render(fmt.Sprintf("%s (%d)", m.Title, m.ReleaseYear)))
	if m.Duration != nil {
		fmt.Fprintln(out, s.field("Duration", fmt.Sprintf("%d min", *m.Duration)))
	}
	if m.Language != nil {
		fmt.Fprintln(out, s.field("Language", *m.Language))
	}
	if m.Country != nil {
		fmt.Fprintln(out, s.field("Country", *m.Country))
	}
	fmt.Fprintln(out, s.field("Rating", rating(m.AvgRating)))
	if len(m.Genres) > 0 {
		names := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			names = append(names, g.Name)
		}
		fmt.Fprintln(out, s.field("Genres", strings.Join(names, ", ")))
	}
	if m.Description != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, *m.Description)
	}
	for _, group := range []struct {
		label  string
		people []domain.PersonCredits
	}{
		{"Directors", m.Directors},
		{"Writers", m.Writers},
		{"Producers", m.Producers},
		{"Cast", m.Cast},
	} {
		if len(group.people) == 0 {
			continue
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, s.Title.Render(group.label))
		for _, p := range group.people {
			fmt.Fprintln(out, "  "+p.Name+characterNote(p.Roles))
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, s.Muted.Render(fmt.Sprintf("%d reviews", len(m.Reviews))))
}

func characterNote(roles []domain.RoleCredit) string {
	for _, r := range roles {
		if r.Note != nil && *r.Note != "" {
			return " as " + *r.Note
		}
	}
	return ""
}

func rating(avg *float64) string {
	if avg == nil {
		return "-"
	}
	return strconv.FormatFloat(*avg, 'f', 1, 64)
}
