package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/virtualcampus/campus/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	gateway *session.Gateway
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  signup -email EMAIL -first-name NAME -last-name NAME [-role ROLE] - create an account (password prompted)")
	fmt.Println("  resetpassword -email EMAIL - request a password reset email")
	fmt.Println("  resend -email EMAIL - re-send the sign-up confirmation email")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	signUpCmd := flag.NewFlagSet("signup", flag.ExitOnError)
	signUpEmail := signUpCmd.String("email", "", "The account's email address. The password will be prompted next.")
	signUpFirst := signUpCmd.String("first-name", "", "The account holder's first name.")
	signUpLast := signUpCmd.String("last-name", "", "The account holder's last name.")
	signUpRole := signUpCmd.String("role", session.RoleStudent, "One of: student, instructor, admin.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email address.")

	resendCmd := flag.NewFlagSet("resend", flag.ExitOnError)
	resendEmail := resendCmd.String("email", "", "The email address awaiting confirmation.")

	switch args[1] {
	case "signup":
		if err := signUpCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *signUpEmail == "" {
			signUpCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			signUpCmd.Usage()
			return errHelp
		}
		confirm, err := cli.promptPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.signUp(*signUpEmail, pwd, confirm, *signUpFirst, *signUpLast, *signUpRole)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail)
	case "resend":
		if err := resendCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resendEmail == "" {
			resendCmd.Usage()
			return errHelp
		}
		return cli.resend(*resendEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
