package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
)

// PostgresLedger keeps balances on the accounts table and the log in the
// transactions table, mutating both in one database transaction.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

var errAccountNotFound = apperr.NotFound("account not found")

const numericOutOfRange = "22003"

// Post applies the transaction with a conditional in-place update, so
// concurrent posts to one account serialise on the row lock and a
// withdrawal can never drive the balance negative.
func (l *PostgresLedger) Post(ctx context.Context, txn Transaction) (decimal.Decimal, error) {
	accountID, err := uuid.Parse(txn.AccountID)
	if err != nil {
		return decimal.Zero, errAccountNotFound
	}
	ownerID, err := uuid.Parse(txn.OwnerID)
	if err != nil {
		return decimal.Zero, errAccountNotFound
	}
	txID, err := uuid.Parse(txn.ID)
	if err != nil {
		return decimal.Zero, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var balance string
	err = tx.QueryRow(ctx, `UPDATE accounts SET balance = balance + $3::numeric
		WHERE id = $1 AND owner_id = $2 AND balance + $3::numeric >= 0
		RETURNING balance::text`, accountID, ownerID, txn.Delta().String()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, l.rejection(ctx, tx, accountID, ownerID)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
		return decimal.Zero, apperr.Validation("balance limit exceeded")
	}
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, owner_id, account_id, kind, amount, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)`,
		txID, ownerID, accountID, string(txn.Kind), txn.Amount.String(), string(txn.Status), txn.OccurredAt.UTC()); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}

	newBalance, err := decimal.NewFromString(balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	return newBalance, nil
}

// rejection explains why the conditional update matched nothing.
func (l *PostgresLedger) rejection(ctx context.Context, tx pgx.Tx, accountID, ownerID uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND owner_id = $2)`, accountID, ownerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return errAccountNotFound
	}
	return apperr.InsufficientFunds("insufficient funds")
}

// History lists owner's transactions newest first, optionally for one account.
func (l *PostgresLedger) History(ctx context.Context, ownerID, accountID string) ([]Transaction, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return []Transaction{}, nil
	}
	query := `SELECT id, owner_id, account_id, kind, amount::text, status, occurred_at
		FROM transactions WHERE owner_id = $1`
	args := []any{owner}
	if accountID != "" {
		account, err := uuid.Parse(accountID)
		if err != nil {
			return []Transaction{}, nil
		}
		query += ` AND account_id = $2`
		args = append(args, account)
	}
	query += ` ORDER BY occurred_at DESC, id`

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Transaction{}
	for rows.Next() {
		var (
			txn                  Transaction
			id, holder, acct     uuid.UUID
			kind, amount, status string
			occurredAt           time.Time
		)
		if err := rows.Scan(&id, &holder, &acct, &kind, &amount, &status, &occurredAt); err != nil {
			return nil, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		txn.ID = id.String()
		txn.OwnerID = holder.String()
		txn.AccountID = acct.String()
		txn.Kind = Kind(kind)
		txn.Amount = value
		txn.Status = Status(status)
		txn.OccurredAt = occurredAt.UTC()
		out = append(out, txn)
	}
	return out, rows.Err()
}
