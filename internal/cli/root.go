// Package cli is the command surface of the weatherwise client: session
// commands (register, login, logout), phone MFA management, saved cities,
// forecasts, and settings. It stands in for the mobile UI the services were
// built for, so commands stay thin and push all behaviour into the
// controllers and services wired up by internal/app.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weatherwise/weatherwise/internal/app"
	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/pkg/slogx"
)

var (
	ErrTooFewArguments  = errors.New("too few arguments")
	ErrTooManyArguments = errors.New("too many arguments")
	ErrNotSignedIn      = errors.New("not signed in; run `weatherwise login` first")
)

// application is built by prerun and shared by every command.
var application *app.Application

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:               "weatherwise",
	Short:             "weatherwise is a weather dashboard with phone-MFA protected accounts",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prerun,
	Version:           app.BuildVersion,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	defer closeApplication()

	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		switch {
		case errors.Is(err, ErrTooFewArguments), errors.Is(err, ErrTooManyArguments):
			_ = RootCmd.Usage()
		}
		closeApplication()
		os.Exit(1)
	}
}

func prerun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	a, err := app.New(app.LoadConfig())
	if err != nil {
		return err
	}
	application = a

	// Commands pass cmd.Context() down into the services; carrying the
	// logger in it lets the deeper layers log without threading a field.
	cmd.SetContext(slogx.WithContext(cmd.Context(), a.Logger()))
	return nil
}

func closeApplication() {
	if application != nil {
		_ = application.Close()
		application = nil
	}
}

// requireUser resolves the signed-in user for commands that need one.
func requireUser() (domain.User, error) {
	user, ok := application.Session.CurrentUser()
	if !ok {
		return domain.User{}, ErrNotSignedIn
	}
	return user, nil
}

// promptLine prints a prompt on stderr and reads one line from stdin.
// Secrets are read the same way; this is a dev client, not a vault.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
