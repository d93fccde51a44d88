package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resend(email string) error {
	if err := cli.gateway.ResendVerification(context.Background(), email); err != nil {
		return err
	}
	fmt.Printf("confirmation email re-sent to %s\n", email)
	return nil
}
