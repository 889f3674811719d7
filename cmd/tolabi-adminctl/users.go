package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/domain/user"
)

// cliActor names the caller in service logs.
const cliActor = "adminctl"

func usersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List, create, update and delete accounts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			if a.token == "" {
				return errors.New("a token is required: pass --token or set " + envToken)
			}
			return nil
		},
	}
	cmd.AddCommand(usersListCmd(a), usersCreateCmd(a), usersUpdateCmd(a), usersDeleteCmd(a))
	return cmd
}

func (a *app) actor() domainauth.Session {
	return domainauth.Session{Identity: cliActor, Role: domainauth.RoleSuperadmin, Token: a.token}
}

func usersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.users().List(cmd.Context(), a.actor())
			if err != nil {
				return err
			}
			if a.output == outputJSON {
				return a.printJSON(list.Users)
			}
			if err := a.printUsers(list.Users); err != nil {
				return err
			}
			return writef(a.stdout, "\nTotal: %d  Attendants: %d  Editors: %d\n",
				list.Counts.Total, list.Counts.Attendants, list.Counts.Editors)
		},
	}
}

// userFlags binds the editable account fields.
type userFlags struct {
	username     string
	password     string
	fullName     string
	email        string
	organization string
	role         string
	active       bool
}

func (f *userFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.username, "username", "", "login name")
	fs.StringVar(&f.password, "password", "", "password")
	fs.StringVar(&f.fullName, "full-name", "", "display name")
	fs.StringVar(&f.email, "email", "", "email address")
	fs.StringVar(&f.organization, "organization", "", "organization")
	fs.StringVar(&f.role, "role", string(domainauth.RoleAttendant), "superadmin, editor, attendant or visitor")
	fs.BoolVar(&f.active, "active", true, "whether the account may sign in")
}

// apply copies the flags set on the command line onto in.
func (f *userFlags) apply(fs *pflag.FlagSet, in user.Input) (user.Input, error) {
	if fs.Changed("username") {
		in.Username = f.username
	}
	if fs.Changed("password") {
		in.Password = f.password
	}
	if fs.Changed("full-name") {
		in.FullName = f.fullName
	}
	if fs.Changed("email") {
		in.Email = f.email
	}
	if fs.Changed("organization") {
		in.Organization = f.organization
	}
	if fs.Changed("role") {
		role, ok := domainauth.ParseRole(f.role)
		if !ok {
			return in, fmt.Errorf("unknown role %q", f.role)
		}
		in.Role = role
	}
	if fs.Changed("active") {
		in.IsActive = user.Bool(f.active)
	}
	return in, nil
}

func usersCreateCmd(a *app) *cobra.Command {
	var f userFlags
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an account",
		Example: "  tolabi-adminctl users create --username nour --password s3cret --role editor",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.apply(cmd.Flags(), user.NewInput())
			if err != nil {
				return err
			}
			rec, err := a.users().Create(cmd.Context(), a.actor(), in)
			if err != nil {
				return err
			}
			return a.printRecord(rec)
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func usersUpdateCmd(a *app) *cobra.Command {
	var f userFlags
	cmd := &cobra.Command{
		Use:   "update USERNAME",
		Short: "Change an account; fields not given keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.users()
			current, err := svc.Find(cmd.Context(), a.actor(), args[0])
			if err != nil {
				return err
			}
			in, err := f.apply(cmd.Flags(), user.InputFromRecord(current))
			if err != nil {
				return err
			}
			rec, err := svc.Update(cmd.Context(), a.actor(), args[0], in)
			if err != nil {
				return err
			}
			return a.printRecord(rec)
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func usersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.users().Delete(cmd.Context(), a.actor(), args[0]); err != nil {
				return err
			}
			if a.output == outputJSON {
				return a.printJSON(map[string]string{"status": "deleted", "username": args[0]})
			}
			return writef(a.stdout, "Deleted %s\n", args[0])
		},
	}
}

func (a *app) printRecord(rec user.Record) error {
	if a.output == outputJSON {
		return a.printJSON(rec)
	}
	return a.printUsers([]user.Record{rec})
}

func (a *app) printUsers(records []user.Record) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "USERNAME\tNAME\tEMAIL\tROLE\tSTATUS"); err != nil {
		return fmt.Errorf("write users header row: %w", err)
	}
	for _, r := range records {
		status := "Active"
		if !r.Active() {
			status = "Inactive"
		}
		email := r.Email
		if email == "" {
			email = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Username, r.DisplayName(), email, r.Role.Label(), status,
		); err != nil {
			return fmt.Errorf("write users row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush users table: %w", err)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
