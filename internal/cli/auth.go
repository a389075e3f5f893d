package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the catalog",
		Long: `Sign in with your catalog account. The password is read from stdin when
--password is not given.

Examples:
  moviectl login --username alice --password s3cret
  echo s3cret | moviectl login --username alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = readSecret(cmd)
			}
			if err := rt.manager.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render("Signed in as "+rt.manager.Session().Username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newRegisterCommand(rt *runtime) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = readSecret(cmd)
			}
			if err := rt.manager.Register(cmd.Context(), username, email, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render("Registered and signed in as "+rt.manager.Session().Username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username, 3 to 50 characters")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, at least 6 characters")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.styles.Success.Render("Signed out"))
			return nil
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s := rt.manager.Session()
			if !s.Authenticated() {
				fmt.Fprintln(out, rt.styles.Muted.Render("Not signed in"))
				return nil
			}
			caps := rt.manager.Capabilities()
			fmt.Fprintln(out, rt.styles.field("Username", s.Username))
			fmt.Fprintln(out, rt.styles.field("Email", s.Email))
			fmt.Fprintln(out, rt.styles.field("Roles", strings.Join(s.Roles, ", ")))
			fmt.Fprintln(out, rt.styles.field("Admin", fmt.Sprint(caps.IsAdmin())))
			return nil
		},
	}
}

func readSecret(cmd *cobra.Command) string {
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
