package main

import (
	"context"

	"github.com/trezcool/tutorhub/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	acct, err := cli.accounts.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err := acct.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.accounts.UpdateAccount(ctx, acct); err != nil {
		return err
	}
	return nil
}
