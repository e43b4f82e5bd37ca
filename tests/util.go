package testutil

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/course"
	"github.com/trezcool/tutorhub/core/profile"
)

func CreateAccount(t *testing.T, repo auth.AccountRepository, email, pwd string) auth.Account {
	t.Helper()

	acct := auth.Account{Email: email}
	if pwd != "" {
		if err := acct.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount(): %v", err)
		}
	}
	acct, err := repo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("CreateAccount(): %v", err)
	}
	return acct
}

func CreateProfile(t *testing.T, repo profile.Repository, userID, name string, role profile.Role) profile.Profile {
	t.Helper()

	prof, err := repo.UpsertProfile(context.Background(), profile.Profile{
		ID:        userID,
		FullName:  name,
		AvatarURL: profile.DefaultAvatarURL,
		Role:      role,
	})
	if err != nil {
		t.Fatalf("CreateProfile(): %v", err)
	}
	return prof
}

func CreateCourse(t *testing.T, repo course.Repository, ownerID, title string, topics ...course.Topic) course.Course {
	t.Helper()

	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:  title,
		Topics: topics,
		UserID: ownerID,
	})
	if err != nil {
		t.Fatalf("CreateCourse(): %v", err)
	}
	return crs
}

// Logger discards everything; tests assert on state, not log output.
type Logger struct{}

func (Logger) Enable(bool)                  {}
func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}

func JSONBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}
