package main

import (
	"context"
	"fmt"

	"github.com/virtualcampus/campus/core/session"
)

// signUp creates an unconfirmed account; the confirmation email goes out to the
// supplied address.
func (cli *commandLine) signUp(email, pwd, pwdConfirm, firstName, lastName, role string) error {
	acct := session.NewAccount{
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwdConfirm,
		FirstName:       firstName,
		LastName:        lastName,
		Role:            role,
	}
	if err := acct.Validate(); err != nil {
		return err
	}

	ident, err := cli.gateway.SignUp(context.Background(), acct)
	if err != nil {
		return err
	}
	fmt.Printf("account created; confirmation email sent to %s\n", ident.Email)
	return nil
}
