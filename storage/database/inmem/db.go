package inmemdb

import (
	"sync"

	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/course"
	"github.com/trezcool/tutorhub/core/profile"
)

// DB is an in-memory store for tests and local development. Each table
// guards its map with its own mutex.
type DB struct {
	account *accountTable
	profile *profileTable
	course  *courseTable
}

func NewDB() *DB {
	return &DB{
		account: &accountTable{table: make(map[string]*auth.Account)},
		profile: &profileTable{table: make(map[string]*profile.Profile)},
		course:  &courseTable{table: make(map[string]*course.Course)},
	}
}

type accountTable struct {
	mutex sync.RWMutex
	table map[string]*auth.Account
}

type profileTable struct {
	mutex sync.RWMutex
	table map[string]*profile.Profile
}

type courseTable struct {
	mutex sync.RWMutex
	table map[string]*course.Course
}
