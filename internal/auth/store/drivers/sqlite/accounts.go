package sqlite

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
)

type accountsRepo struct {
	db    dbtx
	kind  domain.PrincipalKind
	table string
}

func newAccountsRepo(db dbtx, kind domain.PrincipalKind) *accountsRepo {
	table, _ := store.Tables(kind)
	return &accountsRepo{db: db, kind: kind, table: table}
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, r.table)

	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.Email, a.Name, a.PasswordHash, toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	q := fmt.Sprintf(`SELECT id, email, name, password_hash, created_at, updated_at
		FROM %s WHERE email = ?`, r.table)
	return r.scan(r.db.QueryRowContext(ctx, q, email))
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	q := fmt.Sprintf(`SELECT id, email, name, password_hash, created_at, updated_at
		FROM %s WHERE id = ?`, r.table)
	return r.scan(r.db.QueryRowContext(ctx, q, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *accountsRepo) scan(row rowScanner) (domain.Account, error) {
	var (
		a                domain.Account
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &created, &updated); err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.Kind = r.kind
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}
