package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/account"
)

// addAdmin updates or creates an admin account. An existing account with the
// same email must already be an admin; roles are immutable after creation.
func (cli *commandLine) addAdmin(name, surname, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	surname = core.CleanString(surname)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	acct, err := cli.acctRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if err != account.ErrNotFound {
			return err
		}
		acct = account.Account{
			Name:      name,
			Surname:   surname,
			Email:     email,
			Role:      account.RoleAdmin,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = acct.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.acctRepo.CreateAccount(ctx, acct)
		return err
	}

	if !acct.IsAdmin() {
		return fmt.Errorf("account %s already exists with role %q", email, acct.Role)
	}
	acct.Name = name
	acct.Surname = surname
	if err = acct.SetPassword(pwd); err != nil {
		return err
	}
	acct.UpdatedAt = now
	isActive := true
	_, err = cli.acctRepo.UpdateAccount(ctx, acct, &isActive)
	return err
}
