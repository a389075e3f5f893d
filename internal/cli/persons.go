package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/service"
)

func newPersonsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persons",
		Short: "Find and add cast and crew",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "search <name>",
			Short: "Find people by name",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				query := strings.Join(args, " ")
				out := cmd.OutOrStdout()
				if len([]rune(strings.TrimSpace(query))) < service.MinPersonQuery {
					fmt.Fprintln(out, rt.styles.Muted.Render(fmt.Sprintf("Type at least %d characters", service.MinPersonQuery)))
					return nil
				}
				people, err := rt.persons().Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				if len(people) == 0 {
					fmt.Fprintln(out, rt.styles.Muted.Render("No people found"))
					return nil
				}
				rows := make([][]string, 0, len(people))
				for _, p := range people {
					birth := "-"
					if p.BirthDate != nil {
						birth = *p.BirthDate
					}
					rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Name, birth})
				}
				fmt.Fprintln(out, rt.styles.table([]string{"ID", "Name", "Born"}, rows))
				return nil
			},
		},
		newPersonsAddCommand(rt),
	)
	return cmd
}

func newPersonsAddCommand(rt *runtime) *cobra.Command {
	var name, birthDate, bio, profileURL string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.guard(true, "persons add"); err != nil {
				return err
			}
			in := backend.PersonInput{Name: name}
			if cmd.Flags().Changed("birth-date") {
				in.BirthDate = &birthDate
			}
			if cmd.Flags().Changed("bio") {
				in.Bio = &bio
			}
			if cmd.Flags().Changed("profile-url") {
				in.ProfileURL = &profileURL
			}
			person, err := rt.persons().Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render(fmt.Sprintf("Added %s (id %d)", person.Name, person.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&birthDate, "birth-date", "", "birth date as YYYY-MM-DD")
	cmd.Flags().StringVar(&bio, "bio", "", "short biography")
	cmd.Flags().StringVar(&profileURL, "profile-url", "", "profile image URL")
	return cmd
}
