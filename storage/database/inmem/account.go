package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/auth"
)

type accountRepository struct {
	db *accountTable
}

var _ auth.AccountRepository = (*accountRepository)(nil)

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) query() []auth.Account {
	accts := make([]auth.Account, 0, len(repo.db.table))
	for _, acct := range repo.db.table {
		accts = append(accts, *acct)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].CreatedAt.After(accts[j].CreatedAt) })
	return accts
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct auth.Account) (auth.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.Email == acct.Email {
			return auth.Account{}, auth.ErrEmailTaken
		}
	}

	acct.ID = uuid.New().String()
	acct.CreatedAt = time.Now().UTC()
	repo.db.table[acct.ID] = &acct
	return acct, nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (auth.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if acct, ok := repo.db.table[id]; ok {
		return *acct, nil
	}
	return auth.Account{}, auth.ErrAccountNotFound
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.db.table {
		if acct.Email == email {
			return *acct, nil
		}
	}
	return auth.Account{}, auth.ErrAccountNotFound
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct auth.Account) (auth.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[acct.ID]
	if !ok {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	for id, existing := range repo.db.table {
		if id != acct.ID && existing.Email == acct.Email {
			return auth.Account{}, auth.ErrEmailTaken
		}
	}

	orig.Email = acct.Email
	if acct.PasswordHash != nil {
		orig.PasswordHash = acct.PasswordHash
	}
	return *orig, nil
}

func (repo *accountRepository) QueryAllAccounts(ctx context.Context) ([]auth.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}
