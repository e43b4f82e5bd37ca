package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/auth"
)

// newest first
var accountOrdering = core.DBOrdering{Field: "created_at"}

// uniqueViolation is the Postgres error code raised on duplicate keys.
const uniqueViolation = "23505"

type accountRepository struct {
	db *sqlx.DB
}

var _ auth.AccountRepository = (*accountRepository)(nil)

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

type accountRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r accountRow) account() auth.Account {
	return auth.Account{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (repo accountRepository) CreateAccount(ctx context.Context, acct auth.Account) (auth.Account, error) {
	acct.ID = uuid.New().String()
	acct.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO account (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, q, acct.ID, acct.Email, acct.PasswordHash, acct.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return auth.Account{}, auth.ErrEmailTaken
		}
		return auth.Account{}, errors.Wrap(err, "inserting account")
	}
	return acct, nil
}

func (repo accountRepository) GetAccountByID(ctx context.Context, id string) (auth.Account, error) {
	const q = `SELECT id, email, password_hash, created_at FROM account WHERE id = $1`

	var row accountRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return auth.Account{}, auth.ErrAccountNotFound
		}
		return auth.Account{}, errors.Wrap(err, "selecting account")
	}
	return row.account(), nil
}

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	const q = `SELECT id, email, password_hash, created_at FROM account WHERE email = $1`

	var row accountRow
	if err := repo.db.GetContext(ctx, &row, q, email); err != nil {
		if err == sql.ErrNoRows {
			return auth.Account{}, auth.ErrAccountNotFound
		}
		return auth.Account{}, errors.Wrap(err, "selecting account")
	}
	return row.account(), nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acct auth.Account) (auth.Account, error) {
	const q = `UPDATE account SET email = $2, password_hash = $3 WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, acct.ID, acct.Email, acct.PasswordHash)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return auth.Account{}, auth.ErrEmailTaken
		}
		return auth.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	return acct, nil
}

func (repo accountRepository) QueryAllAccounts(ctx context.Context) ([]auth.Account, error) {
	q := `SELECT id, email, password_hash, created_at FROM account ORDER BY ` + accountOrdering.String()

	var rows []accountRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting accounts")
	}
	accts := make([]auth.Account, len(rows))
	for i, row := range rows {
		accts[i] = row.account()
	}
	return accts, nil
}
