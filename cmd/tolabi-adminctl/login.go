package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
)

type loginOutput struct {
	Identity  string `json:"identity"`
	Role      string `json:"role"`
	Dashboard string `json:"dashboard,omitempty"`
	Token     string `json:"token"`
}

func loginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a bearer token",
		Long: `Sign in against the backend and print the issued token.

The password is read from --password or TOLABI_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = a.getenv(envPassword)
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			sess, err := a.api().Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			return a.printLogin(loginOutput{
				Identity:  sess.Identity,
				Role:      string(sess.Role),
				Dashboard: domainauth.DashboardPath(sess.Role),
				Token:     sess.Token,
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $TOLABI_PASSWORD)")
	return cmd
}

func (a *app) printLogin(out loginOutput) error {
	if a.output == outputJSON {
		return a.printJSON(out)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "IDENTITY\tROLE\tTOKEN"); err != nil {
		return fmt.Errorf("write login header row: %w", err)
	}
	if err := writef(tw, "%s\t%s\t%s\n", out.Identity, out.Role, out.Token); err != nil {
		return fmt.Errorf("write login row: %w", err)
	}
	return tw.Flush()
}
