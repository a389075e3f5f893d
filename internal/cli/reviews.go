package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/service"
)

func newReviewsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Read and write reviews",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <movie-id>",
			Short: "List the reviews of a movie",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				movieID, err := parseID(args[0])
				if err != nil {
					return err
				}
				reviews, err := rt.reviews().ForMovie(cmd.Context(), movieID)
				if err != nil {
					return err
				}
				rt.printReviews(cmd.OutOrStdout(), reviews)
				return nil
			},
		},
		&cobra.Command{
			Use:   "mine",
			Short: "List your reviews",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := rt.guard(false, "reviews mine"); err != nil {
					return err
				}
				reviews, err := rt.reviews().Mine(cmd.Context())
				if err != nil {
					return err
				}
				rt.printReviews(cmd.OutOrStdout(), reviews)
				return nil
			},
		},
		newReviewsAddCommand(rt),
		&cobra.Command{
			Use:   "delete <review-id>",
			Short: "Delete a review",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.guard(false, "reviews delete"); err != nil {
					return err
				}
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := rt.reviews().Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render(fmt.Sprintf("Deleted review %d", id)))
				return nil
			},
		},
	)
	return cmd
}

func newReviewsAddCommand(rt *runtime) *cobra.Command {
	var in service.ReviewInput
	cmd := &cobra.Command{
		Use:   "add <movie-id>",
		Short: "Review a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.guard(false, "reviews add"); err != nil {
				return err
			}
			movieID, err := parseID(args[0])
			if err != nil {
				return err
			}
			review, err := rt.reviews().Create(cmd.Context(), movieID, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render(fmt.Sprintf("Posted review %d", review.ID)))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&in.Rating, "rating", "r", 0, "rating from 1 to 5")
	cmd.Flags().StringVarP(&in.Text, "text", "t", "", "review text")
	return cmd
}

func (rt *runtime) printReviews(out io.Writer, reviews []domain.Review) {
	if len(reviews) == 0 {
		fmt.Fprintln(out, rt.styles.Muted.Render("No reviews yet"))
		return
	}
	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		text := ""
		if r.ReviewText != nil {
			text = *r.ReviewText
		}
		author := r.UserName
		if author == "" {
			author = "user " + strconv.FormatInt(r.UserID, 10)
		}
		rows = append(rows, []string{strconv.FormatInt(r.ID, 10), strconv.FormatInt(r.Rating, 10) + "/5", author, text})
	}
	fmt.Fprintln(out, rt.styles.table([]string{"ID", "Rating", "By", "Review"}, rows))
}
