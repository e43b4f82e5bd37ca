package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/profile"
	inmemdb "github.com/trezcool/tutorhub/storage/database/inmem"
)

var (
	accountRepo auth.AccountRepository
	profileRepo profile.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db := inmemdb.NewDB()
	accountRepo = inmemdb.NewAccountRepository(db)
	profileRepo = inmemdb.NewProfileRepository(db)

	return &commandLine{
		accounts: accountRepo,
		profiles: profileRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addTutor(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd  string
		role profile.Role
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addtutor"}, wantErr: errHelp},
		{name: "email but no name", args: []string{"addtutor", "-email", "jane@test.cd"}, wantErr: errHelp},
		{name: "no password", args: []string{"addtutor", "-email", "jane@test.cd", "-name", "Jane"}, wantErr: errHelp},
		{name: "create tutor", args: []string{"addtutor", "-email", "jane@test.cd", "-name", "Jane Mwamba"},
			extra: extra{pwd: "s3cret", role: profile.RoleTutor}},
		{name: "update existing as admin", args: []string{"addtutor", "-email", "jane@test.cd", "-name", "Jane M.", "-admin"},
			extra: extra{pwd: "n3ws3cret", role: profile.RoleAdmin}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				acct, err := accountRepo.GetAccountByEmail(context.Background(), "jane@test.cd")
				if err != nil {
					t.Fatalf("GetAccountByEmail(): %v", err)
				}
				if err = acct.CheckPassword(tt.extra.(extra).pwd); err != nil {
					t.Error("password not set")
				}
				prof, err := profileRepo.GetProfile(context.Background(), acct.ID)
				if err != nil {
					t.Fatalf("GetProfile(): %v", err)
				}
				if prof.Role != tt.extra.(extra).role {
					t.Errorf("role = %v, want %v", prof.Role, tt.extra.(extra).role)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	acct := auth.Account{Email: "awe@test.cd"}
	if err := acct.SetPassword("mdr"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	acct, err := accountRepo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("CreateAccount(): %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: auth.ErrAccountNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", acct.Email}, extra: extra{pwd: "lol"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := accountRepo.GetAccountByID(context.Background(), acct.ID)
				if err != nil {
					t.Fatalf("GetAccountByID(): %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, acct.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
