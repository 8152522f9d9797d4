package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/storage/database"
)

const accountColumns = "id, email, first_name, last_name, address, role, is_approved, is_active, is_superuser, password_hash, created_at, updated_at, last_login"

var accountOrderingFields = []string{"email", "first_name", "last_name", "role", "created_at", "last_login"}

type accountRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Address      string    `db:"address"`
	Role         string    `db:"role"`
	IsApproved   bool      `db:"is_approved"`
	IsActive     bool      `db:"is_active"`
	IsSuperuser  bool      `db:"is_superuser"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

type accountRepository struct {
	repository
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(exec core.DBExecutor) *accountRepository {
	return &accountRepository{repository{exec: exec}}
}

func (repo accountRepository) boil(acc account.Account) accountRow {
	lastLogin := acc.LastLogin
	if lastLogin.Valid {
		lastLogin = null.TimeFrom(lastLogin.Time.UTC())
	}
	return accountRow{
		ID:           acc.ID,
		Email:        acc.Email,
		FirstName:    acc.FirstName,
		LastName:     acc.LastName,
		Address:      acc.Address,
		Role:         acc.Role,
		IsApproved:   acc.IsApproved,
		IsActive:     acc.IsActive,
		IsSuperuser:  acc.IsSuperuser,
		PasswordHash: string(acc.PasswordHash),
		CreatedAt:    acc.CreatedAt.UTC(),
		UpdatedAt:    acc.UpdatedAt.UTC(),
		LastLogin:    lastLogin,
	}
}

func (repo accountRepository) unboil(row accountRow) account.Account {
	acc := account.Account{
		ID:           row.ID,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Address:      row.Address,
		Role:         row.Role,
		IsApproved:   row.IsApproved,
		IsActive:     row.IsActive,
		IsSuperuser:  row.IsSuperuser,
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin,
	}
	if acc.LastLogin.Valid {
		acc.LastLogin.Time = acc.LastLogin.Time.UTC()
	}
	return acc
}

func (repo accountRepository) unboilSlice(rows []accountRow) []account.Account {
	accounts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, repo.unboil(row))
	}
	return accounts
}

// trapWriteErr maps unique violations on email to account.ErrEmailExists.
func (repo accountRepository) trapWriteErr(err error, msg string) error {
	if database.IsUniqueViolation(err) {
		return account.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded []account.Account, exec ...core.DBExecutor) error {
	b := builder.Select("COUNT(*)").From("accounts").Where(sq.Eq{"email": email})
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, acc := range excluded {
			ids = append(ids, acc.ID)
		}
		b = b.Where(sq.NotEq{"id": ids})
	}

	var count int
	if err := getBuilt(ctx, repo.getExec(exec), &count, b); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return account.ErrEmailExists
	}
	return nil
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	acc.ID = newID()
	acc.ApplyActivationRules()
	row := repo.boil(acc)

	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind("INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		row.ID, row.Email, row.FirstName, row.LastName, row.Address, row.Role, row.IsApproved, row.IsActive,
		row.IsSuperuser, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	)
	if err != nil {
		return account.Account{}, repo.trapWriteErr(err, "inserting account")
	}
	return repo.unboil(row), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context, filter *account.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]account.Account, error) {
	b := builder.Select(accountColumns).From("accounts")

	if filter != nil {
		// accounts with email, first name or last name matching the search keyword
		if filter.Search != "" {
			b = b.Where(sq.Or{
				contains("email", filter.Search),
				contains("first_name", filter.Search),
				contains("last_name", filter.Search),
			})
		}
		if len(filter.Roles) > 0 {
			b = b.Where(sq.Eq{"role": filter.Roles})
		}
		if filter.IsApproved != nil {
			b = b.Where(sq.Eq{"is_approved": *filter.IsApproved})
		}
		if filter.IsActive != nil {
			b = b.Where(sq.Eq{"is_active": *filter.IsActive})
		}
	}

	ordering = core.CleanOrdering(ordering, accountOrderingFields...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "email", Ascending: true}}
	}
	for _, ord := range ordering {
		b = b.OrderBy(ord.String())
	}

	var rows []accountRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	return repo.unboilSlice(rows), nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter, exec ...core.DBExecutor) (account.Account, error) {
	var eq sq.Eq
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return account.Account{}, account.ErrNotFound
		}
		eq = sq.Eq{"id": filter.ID}
	case filter.Email != "":
		eq = sq.Eq{"email": filter.Email}
	default:
		return account.Account{}, account.ErrNotFound
	}

	var row accountRow
	if err := getBuilt(ctx, repo.getExec(exec), &row, builder.Select(accountColumns).From("accounts").Where(eq)); err != nil {
		return account.Account{}, trapNoRowsErr(err, account.ErrNotFound, "finding account")
	}
	return repo.unboil(row), nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	acc.ApplyActivationRules()
	row := repo.boil(acc)

	err := execAffecting(ctx, repo.getExec(exec), account.ErrNotFound, `
		UPDATE accounts
		SET email = ?, first_name = ?, last_name = ?, address = ?, role = ?, is_approved = ?, is_active = ?,
			is_superuser = ?, password_hash = ?, updated_at = ?, last_login = ?
		WHERE id = ?`,
		row.Email, row.FirstName, row.LastName, row.Address, row.Role, row.IsApproved, row.IsActive,
		row.IsSuperuser, row.PasswordHash, row.UpdatedAt, row.LastLogin, row.ID,
	)
	if err != nil {
		if err == account.ErrNotFound {
			return account.Account{}, err
		}
		return account.Account{}, repo.trapWriteErr(err, "updating account")
	}
	return repo.unboil(row), nil
}

func (repo accountRepository) CountCoursesTaught(ctx context.Context, id string, exec ...core.DBExecutor) (int, error) {
	var count int
	err := get(ctx, repo.getExec(exec), &count, "SELECT COUNT(*) FROM courses WHERE instructor_id = ?", id)
	return count, errors.Wrap(err, "counting courses taught")
}

func (repo accountRepository) DeleteAccounts(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := execBuilt(ctx, repo.getExec(exec), builder.Delete("accounts").Where(sq.Eq{"id": ids}))
	return errors.Wrap(err, "deleting accounts")
}
