package main

import "context"

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	acc, err := cli.accSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.accSvc.SetPassword(ctx, acc, pwd)
	return err
}
