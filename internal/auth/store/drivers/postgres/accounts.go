package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
)

// AccountsRepository reads and writes one principal kind's account table.
type AccountsRepository struct {
	db    DBTX
	kind  domain.PrincipalKind
	table string
}

func NewAccountsRepository(db DBTX, kind domain.PrincipalKind) *AccountsRepository {
	table, _ := store.Tables(kind)
	return &AccountsRepository{db: db, kind: kind, table: table}
}

func (r *AccountsRepository) CreateAccount(ctx context.Context, a domain.Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.table)
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	return mapConstraint(err)
}

func (r *AccountsRepository) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM %s
		WHERE email = $1
	`, r.table)
	return r.scan(ctx, query, email)
}

func (r *AccountsRepository) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.table)
	return r.scan(ctx, query, id)
}

func (r *AccountsRepository) scan(ctx context.Context, query string, arg string) (domain.Account, error) {
	a := domain.Account{Kind: r.kind}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}
