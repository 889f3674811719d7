// Command tolabi-adminctl manages console accounts from a terminal through
// the same REST backend the console uses.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhmdnab/tolabi/internal/adapters/restapi"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
	"github.com/mhmdnab/tolabi/internal/service"
)

const (
	envAPIBase  = "API_BASE"
	envToken    = "TOLABI_TOKEN"
	envPassword = "TOLABI_PASSWORD"

	outputTable = "table"
	outputJSON  = "json"
)

// app carries global flags and the seams tests replace.
type app struct {
	apiBase string
	timeout time.Duration
	token   string
	output  string
	verbose bool

	stdout io.Writer
	getenv func(string) string
	// newAPI builds the backend client once flags are parsed.
	newAPI func(restapi.Config) ports.AdminAPI
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout, os.Getenv)
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command failure to callers
	}
}

func newApp(stdout io.Writer, getenv func(string) string) *app {
	return &app{
		stdout: stdout,
		getenv: getenv,
		newAPI: func(cfg restapi.Config) ports.AdminAPI { return restapi.New(cfg) },
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tolabi-adminctl",
		Short: "Manage Tolabi console accounts",
		Long: `tolabi-adminctl signs in to the Tolabi backend and manages user accounts.

Obtain a token with "login", then pass it with --token or TOLABI_TOKEN
to the users commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if a.output != outputTable && a.output != outputJSON {
				return fmt.Errorf("unknown output format %q (use table or json)", a.output)
			}
			if a.apiBase == "" {
				a.apiBase = a.getenv(envAPIBase)
			}
			if a.token == "" {
				a.token = a.getenv(envToken)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiBase, "api-base", "", "backend base URL (default $API_BASE or "+restapi.DefaultBaseURL+")")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "per-request timeout, 0 waits indefinitely")
	flags.StringVar(&a.token, "token", "", "bearer token from login (default $TOLABI_TOKEN)")
	flags.StringVarP(&a.output, "output", "o", outputTable, "output format: table or json")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log backend calls to stderr")

	root.AddCommand(loginCmd(a), usersCmd(a))
	return root
}

func (a *app) api() ports.AdminAPI {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	return a.newAPI(restapi.Config{
		BaseURL: a.apiBase,
		Timeout: a.timeout,
		Logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	})
}

func (a *app) users() *service.UserService {
	return service.NewUserService(service.UserServiceOptions{
		Directory: a.api(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// errorMessage prefers the user-facing message of backend and validation errors.
func errorMessage(err error) string {
	msg := apperrors.UserMessage(err, err.Error())
	if field := apperrors.GetField(err); field != "" {
		return fmt.Sprintf("%s (%s)", msg, field)
	}
	return msg
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
