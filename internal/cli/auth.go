package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/auth/session"
)

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "create a new account and sign in",
	RunE:  registerRun,
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "sign in, completing the phone second factor when the account requires one",
	RunE:  loginRun,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "sign out and forget the stored session",
	RunE:  logoutRun,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "show the signed-in account",
	RunE:  whoamiRun,
}

func init() {
	RootCmd.AddCommand(registerCmd)
	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(whoamiCmd)
}

func registerRun(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return ErrTooFewArguments
	}
	if len(args) > 1 {
		return ErrTooManyArguments
	}

	password, err := promptLine("Password: ")
	if err != nil {
		return err
	}

	application.Session.Register(cmd.Context(), args[0], password)

	state := application.Session.State()
	if state.Kind != session.StateAuthenticated {
		return fmt.Errorf("registration failed: %s", state.Message)
	}

	fmt.Printf("Registered and signed in as %s\n", state.User.Email)
	return nil
}

func loginRun(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return ErrTooFewArguments
	}
	if len(args) > 1 {
		return ErrTooManyArguments
	}

	password, err := promptLine("Password: ")
	if err != nil {
		return err
	}

	application.Session.Login(cmd.Context(), args[0], password)

	state := application.Session.State()
	if state.Kind == session.StateSecondFactorRequired {
		if err := completeSecondFactor(cmd, state); err != nil {
			return err
		}
		state = application.Session.State()
	}

	if state.Kind != session.StateAuthenticated {
		return fmt.Errorf("login failed: %s", state.Message)
	}

	fmt.Printf("Signed in as %s\n", state.User.Email)
	return nil
}

// completeSecondFactor walks the paused login through the phone challenge:
// dispatch a code to the enrolled number, collect it, and redeem the proof.
func completeSecondFactor(cmd *cobra.Command, state session.State) error {
	hint, ok := domain.PhoneHint(state.Hints)
	if !ok {
		return fmt.Errorf("account requires a second factor this client does not support")
	}

	verifier := application.Verifier
	defer verifier.ResetInputState()

	fmt.Printf("This account is protected by phone MFA (%s).\n", hint.PhoneNumber)
	verifier.StartChallengeForLogin(cmd.Context(), state.Resolver, hint)
	if !verifier.ChallengeDispatched() {
		return fmt.Errorf("%s", verifier.Status())
	}
	fmt.Println(verifier.Status())

	if _, ready := verifier.BuildLoginProof(); !ready {
		code, err := promptLine("Verification code: ")
		if err != nil {
			return err
		}
		verifier.SetCode(code)
	}

	proof, ok := verifier.BuildLoginProof()
	if !ok {
		return fmt.Errorf("%s", verifier.Status())
	}

	application.Session.CompleteSecondFactor(cmd.Context(), proof)
	return nil
}

func logoutRun(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return ErrTooManyArguments
	}

	application.Session.Logout()
	application.Verifier.ResetInputState()
	fmt.Println("Signed out")
	return nil
}

func whoamiRun(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", user.Email, user.ID)
	return nil
}
