package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mfaCmd = &cobra.Command{
	Use:   "mfa",
	Short: "manage the phone second factor on your account",
}

var mfaEnrollCmd = &cobra.Command{
	Use:   "enroll <phone-number>",
	Short: "verify a phone number and enable it as a second factor",
	RunE:  mfaEnrollRun,
}

var mfaDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "remove the enrolled phone factor",
	RunE:  mfaDisableRun,
}

var mfaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "show whether phone MFA is enabled",
	RunE:  mfaStatusRun,
}

func init() {
	RootCmd.AddCommand(mfaCmd)
	mfaCmd.AddCommand(mfaEnrollCmd)
	mfaCmd.AddCommand(mfaDisableCmd)
	mfaCmd.AddCommand(mfaStatusCmd)
}

func mfaEnrollRun(cmd *cobra.Command, args []string) error {
	if _, err := requireUser(); err != nil {
		return err
	}
	if len(args) < 1 {
		return ErrTooFewArguments
	}
	if len(args) > 1 {
		return ErrTooManyArguments
	}

	verifier := application.Verifier
	defer verifier.ResetInputState()

	verifier.SetPhoneNumber(args[0])
	verifier.StartChallengeForEnrollment(cmd.Context())

	// Auto-verified numbers enroll without a code round trip.
	if verifier.Enrolled() {
		fmt.Println(verifier.Status())
		return nil
	}
	if !verifier.ChallengeDispatched() {
		return fmt.Errorf("%s", verifier.Status())
	}
	fmt.Println(verifier.Status())

	code, err := promptLine("Verification code: ")
	if err != nil {
		return err
	}
	verifier.SetCode(code)
	verifier.SubmitCodeForEnrollment(cmd.Context())

	if !verifier.Enrolled() {
		return fmt.Errorf("%s", verifier.Status())
	}
	fmt.Println(verifier.Status())
	return nil
}

func mfaDisableRun(cmd *cobra.Command, args []string) error {
	if _, err := requireUser(); err != nil {
		return err
	}
	if len(args) > 0 {
		return ErrTooManyArguments
	}

	application.Verifier.DisableEnrollment(cmd.Context())
	fmt.Println(application.Verifier.Status())
	return nil
}

func mfaStatusRun(cmd *cobra.Command, args []string) error {
	if _, err := requireUser(); err != nil {
		return err
	}

	if application.Verifier.Enrolled() {
		fmt.Printf("Phone MFA enabled (%s)\n", application.Verifier.PhoneNumber())
	} else {
		fmt.Println("Phone MFA not enabled")
	}
	return nil
}
