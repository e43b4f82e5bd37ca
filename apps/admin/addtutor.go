package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/profile"
)

// addTutor updates or creates a teaching account with its profile.
func (cli *commandLine) addTutor(email, name, pwd string, role profile.Role) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	acct, err := cli.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != auth.ErrAccountNotFound {
			return err
		}
		acct = auth.Account{Email: email}
		if err = acct.SetPassword(pwd); err != nil {
			return err
		}
		if acct, err = cli.accounts.CreateAccount(ctx, acct); err != nil {
			return err
		}
	} else {
		if err = acct.SetPassword(pwd); err != nil {
			return err
		}
		if _, err = cli.accounts.UpdateAccount(ctx, acct); err != nil {
			return err
		}
	}

	prof, err := cli.profiles.GetProfile(ctx, acct.ID)
	if err != nil {
		if errors.Cause(err) != profile.ErrNotFound {
			return err
		}
		prof = profile.Profile{
			ID:        acct.ID,
			AvatarURL: profile.DefaultAvatarURL,
		}
	}
	prof.FullName = name
	prof.Role = role

	_, err = cli.profiles.UpsertProfile(ctx, prof)
	return err
}
