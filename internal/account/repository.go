package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Repository persists account metadata. All reads and deletes are scoped
// to an owner; an account belonging to someone else is reported missing.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	Get(ctx context.Context, ownerID, id string) (Account, error)
	List(ctx context.Context, ownerID string) ([]Account, error)
	Delete(ctx context.Context, ownerID, id string) error
}

var (
	errNotFound       = apperr.NotFound("account not found")
	errNonZeroBalance = apperr.Validation("account balance must be zero before it can be closed")
)

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an account record.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	accountID, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(acct.OwnerID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, owner_id, kind, balance, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5)`, accountID, ownerID, string(acct.Kind), acct.Balance.String(), acct.CreatedAt.UTC())
	return err
}

// Get fetches one of owner's accounts.
func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (Account, error) {
	accountID, owner, ok := parseIDs(id, ownerID)
	if !ok {
		return Account{}, errNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, owner_id, kind, balance::text, created_at
		FROM accounts WHERE id = $1 AND owner_id = $2`, accountID, owner)
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, errNotFound
	}
	return acct, err
}

// List returns owner's accounts, newest first.
func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]Account, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return []Account{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, owner_id, kind, balance::text, created_at
		FROM accounts WHERE owner_id = $1 ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// Delete removes one of owner's accounts when its balance is zero.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	accountID, owner, ok := parseIDs(id, ownerID)
	if !ok {
		return errNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND owner_id = $2 AND balance = 0`, accountID, owner)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return errNonZeroBalance
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acct      Account
		id, owner uuid.UUID
		kind      string
		balance   string
		createdAt time.Time
	)
	if err := row.Scan(&id, &owner, &kind, &balance, &createdAt); err != nil {
		return Account{}, err
	}
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return Account{}, err
	}
	acct.ID = id.String()
	acct.OwnerID = owner.String()
	acct.Kind = Kind(kind)
	acct.Balance = amount
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}

func parseIDs(id, ownerID string) (uuid.UUID, uuid.UUID, bool) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return accountID, owner, true
}
