package main

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/testutil"
)

type testCLI struct {
	*commandLine
	fx   *testutil.Fixtures
	svcs testutil.Services
}

func setup(t *testing.T) testCLI {
	db := testutil.PrepareDB(t)
	svcs := testutil.NewServices(db)
	return testCLI{
		commandLine: &commandLine{db: db, accSvc: svcs.Account},
		fx:          testutil.NewFixtures(db),
		svcs:        svcs,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string   // typed at the password prompt
	wantErr    error
	wantErrStr string
}

func (cli testCLI) runTests(t *testing.T, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
				if check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var ran []string
	orig := gooseRunFunc
	defer func() { gooseRunFunc = orig }()
	gooseRunFunc = func(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	cli.runTests(t, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}, nil)
	assert.Equal(t, []string{"up", "up-to", "down", "status"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	existing := cli.fx.Account(t, "pending@pal.test", account.RoleInstructor, false)

	cli.runTests(t, []cliTest{
		{name: "no email", args: []string{"adduser"}, pwd: "secret123", wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-email", "ops@pal.test", "-role", "root"}, pwd: "secret123", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "ops@pal.test"}, wantErr: errHelp},
		{name: "new admin", args: []string{"adduser", "-email", "OPS@pal.test"}, pwd: "secret123"},
		{name: "existing account", args: []string{"adduser", "-email", existing.Email, "-role", account.RoleInstructor}, pwd: "newsecret"},
	}, func(t *testing.T, tt cliTest) {
		acc, err := cli.accSvc.Authenticate(ctx, tt.args[2], tt.pwd)
		require.NoError(t, err)
		assert.True(t, acc.IsApproved)
		assert.True(t, acc.IsActive)
	})

	acc, err := cli.accSvc.GetByEmail(ctx, "ops@pal.test")
	require.NoError(t, err)
	assert.True(t, acc.IsAdmin())

	acc, err = cli.accSvc.GetByEmail(ctx, existing.Email)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, acc.ID)
	assert.Equal(t, account.RoleInstructor, acc.Role)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	acc := cli.fx.Student(t, "student@pal.test")

	cli.runTests(t, []cliTest{
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", acc.Email}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-email", "nobody@pal.test"}, pwd: "secret123", wantErr: account.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", acc.Email}, pwd: "brandnew1"},
	}, func(t *testing.T, tt cliTest) {
		_, err := cli.accSvc.Authenticate(context.Background(), acc.Email, tt.pwd)
		assert.NoError(t, err)
	})
}

func Test_commandLine_approve(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	pending := cli.fx.Account(t, "pending@pal.test", account.RoleInstructor, false)
	student := cli.fx.Student(t, "student@pal.test")

	cli.runTests(t, []cliTest{
		{name: "no email", args: []string{"approve"}, wantErr: errHelp},
		{name: "account not found", args: []string{"approve", "-email", "nobody@pal.test"}, wantErr: account.ErrNotFound},
		{name: "not an instructor", args: []string{"approve", "-email", student.Email}},
		{name: "pending instructor", args: []string{"approve", "-email", pending.Email}},
		{name: "already approved", args: []string{"approve", "-email", pending.Email}},
	}, nil)

	acc, err := cli.accSvc.GetByEmail(ctx, pending.Email)
	require.NoError(t, err)
	assert.True(t, acc.IsApproved)
	assert.True(t, acc.IsActive)
	require.Len(t, cli.svcs.Outbox.Messages(), 1)
	assert.Equal(t, "instructor_approved", cli.svcs.Outbox.Messages()[0].TemplateName)
}
