package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(email string) error {
	if err := cli.gateway.ResetPassword(context.Background(), email); err != nil {
		return err
	}
	fmt.Println("if the email matches an account, reset instructions are on their way")
	return nil
}
