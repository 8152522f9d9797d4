package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) addUser(ctx context.Context, email, pwd, role string, superuser bool) error {
	acc, err := cli.accSvc.AddUser(ctx, email, pwd, role, superuser)
	if err != nil {
		return err
	}
	fmt.Printf("account %s (%s) saved\n", acc.Email, acc.ID)
	return nil
}
