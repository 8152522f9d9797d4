package main

import (
	"context"
	"fmt"

	"github.com/trezcool/pal/core/account"
)

// operator is the actor behind CLI actions that require an admin.
var operator = account.Account{Role: account.RoleAdmin, IsSuperuser: true, IsApproved: true}

func (cli *commandLine) approve(ctx context.Context, email string) error {
	acc, err := cli.accSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	n, err := cli.accSvc.ApproveInstructors(ctx, operator, acc.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("%s is not a pending instructor\n", acc.Email)
		return nil
	}
	fmt.Printf("%s approved\n", acc.Email)
	return nil
}
