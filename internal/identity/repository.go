package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/verification"
)

// Repository persists identities. Registration transitions are guarded by
// the pending session token: they apply only while the stored token equals
// the one presented, and fail with an unauthorized error otherwise.
type Repository interface {
	Create(ctx context.Context, ident Identity) error
	FindByID(ctx context.Context, id string) (Identity, error)
	FindByNationalID(ctx context.Context, nationalID string) (Identity, error)
	PhoneTaken(ctx context.Context, phone, exceptID string) (bool, error)
	SetPhone(ctx context.Context, id, pendingToken string, update PhoneUpdate) error
	MarkPhoneVerified(ctx context.Context, id, pendingToken, nextToken string) error
	CompleteRegistration(ctx context.Context, id, pendingToken string, credentialHash []byte) error
	UpdateCredential(ctx context.Context, id string, credentialHash []byte) error
	UpdateVerification(ctx context.Context, id string, record verification.Record) error
	CountIncomplete(ctx context.Context, createdBefore time.Time) (int64, error)
	DeleteIncomplete(ctx context.Context, createdBefore time.Time) (int64, error)
}

var errSessionLost = apperr.Unauthorized("registration session is no longer valid")

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, display_name, national_id, date_of_birth, phone_number, phone_verified,
	credential_hash, credential_set, registration_complete, pending_session_token, verification,
	created_at, updated_at`

// Create inserts a new identity.
func (r *PostgresRepository) Create(ctx context.Context, ident Identity) error {
	identityID, err := uuid.Parse(ident.ID)
	if err != nil {
		return err
	}
	rec, err := json.Marshal(ident.Verification)
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO identities (id, display_name, national_id, date_of_birth, phone_number,
		phone_verified, credential_hash, credential_set, registration_complete, pending_session_token,
		verification, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		identityID, ident.DisplayName, nullable(ident.NationalID), ident.DateOfBirth, nullable(ident.Phone),
		ident.PhoneVerified, ident.CredentialHash, ident.CredentialSet, ident.RegistrationComplete,
		nullable(ident.PendingSessionToken), rec, ident.CreatedAt.UTC(), ident.UpdatedAt.UTC())
	return translate(err)
}

// FindByID fetches an identity by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Identity, error) {
	identityID, err := uuid.Parse(id)
	if err != nil {
		return Identity{}, apperr.NotFound("identity not found")
	}
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM identities WHERE id = $1`, identityID))
}

// FindByNationalID fetches an identity by its national id number.
func (r *PostgresRepository) FindByNationalID(ctx context.Context, nationalID string) (Identity, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM identities WHERE national_id = $1`, nationalID))
}

// PhoneTaken reports whether another identity already holds phone.
func (r *PostgresRepository) PhoneTaken(ctx context.Context, phone, exceptID string) (bool, error) {
	identityID, err := uuid.Parse(exceptID)
	if err != nil {
		identityID = uuid.Nil
	}
	var taken bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE phone_number = $1 AND id <> $2)`, phone, identityID).Scan(&taken)
	return taken, err
}

// SetPhone binds a phone number to an identity still in registration.
func (r *PostgresRepository) SetPhone(ctx context.Context, id, pendingToken string, update PhoneUpdate) error {
	return r.transition(ctx, `UPDATE identities
		SET phone_number = $3, phone_verified = $4, pending_session_token = $5, updated_at = NOW()
		WHERE id = $1 AND pending_session_token = $2 AND registration_complete = FALSE`,
		id, pendingToken, update.Phone, update.Verified, update.NextToken)
}

// MarkPhoneVerified records a confirmed phone number.
func (r *PostgresRepository) MarkPhoneVerified(ctx context.Context, id, pendingToken, nextToken string) error {
	return r.transition(ctx, `UPDATE identities
		SET phone_verified = TRUE, pending_session_token = $3, updated_at = NOW()
		WHERE id = $1 AND pending_session_token = $2 AND phone_number IS NOT NULL AND registration_complete = FALSE`,
		id, pendingToken, nextToken)
}

// CompleteRegistration stores the credential and clears the pending token.
func (r *PostgresRepository) CompleteRegistration(ctx context.Context, id, pendingToken string, credentialHash []byte) error {
	return r.transition(ctx, `UPDATE identities
		SET credential_hash = $3, credential_set = TRUE, registration_complete = TRUE,
			pending_session_token = NULL, updated_at = NOW()
		WHERE id = $1 AND pending_session_token = $2 AND phone_verified = TRUE AND registration_complete = FALSE`,
		id, pendingToken, credentialHash)
}

func (r *PostgresRepository) transition(ctx context.Context, query, id, pendingToken string, args ...any) error {
	identityID, err := uuid.Parse(id)
	if err != nil {
		return errSessionLost
	}
	cmd, err := r.db.Exec(ctx, query, append([]any{identityID, pendingToken}, args...)...)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return errSessionLost
	}
	return nil
}

// UpdateCredential replaces the credential hash of a registered identity.
func (r *PostgresRepository) UpdateCredential(ctx context.Context, id string, credentialHash []byte) error {
	identityID, err := uuid.Parse(id)
	if err != nil {
		return apperr.NotFound("identity not found")
	}
	cmd, err := r.db.Exec(ctx, `UPDATE identities SET credential_hash = $2, updated_at = NOW()
		WHERE id = $1 AND credential_set = TRUE`, identityID, credentialHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("identity not found")
	}
	return nil
}

// UpdateVerification replaces the verification sub-record.
func (r *PostgresRepository) UpdateVerification(ctx context.Context, id string, record verification.Record) error {
	identityID, err := uuid.Parse(id)
	if err != nil {
		return apperr.NotFound("identity not found")
	}
	rec, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}
	cmd, err := r.db.Exec(ctx, `UPDATE identities SET verification = $2, updated_at = NOW() WHERE id = $1`, identityID, rec)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("identity not found")
	}
	return nil
}

// CountIncomplete counts identities DeleteIncomplete would remove.
func (r *PostgresRepository) CountIncomplete(ctx context.Context, createdBefore time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM identities WHERE registration_complete = FALSE AND created_at < $1`, createdBefore.UTC()).Scan(&n)
	return n, err
}

// DeleteIncomplete removes identities that never finished registration.
func (r *PostgresRepository) DeleteIncomplete(ctx context.Context, createdBefore time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM identities WHERE registration_complete = FALSE AND created_at < $1`, createdBefore.UTC())
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (Identity, error) {
	var (
		id                 uuid.UUID
		nationalID, phone  *string
		pending            *string
		rec                []byte
		ident              Identity
		createdAt, updated time.Time
	)
	err := row.Scan(&id, &ident.DisplayName, &nationalID, &ident.DateOfBirth, &phone, &ident.PhoneVerified,
		&ident.CredentialHash, &ident.CredentialSet, &ident.RegistrationComplete, &pending, &rec,
		&createdAt, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Identity{}, apperr.NotFound("identity not found")
	}
	if err != nil {
		return Identity{}, err
	}
	ident.ID = id.String()
	ident.NationalID = deref(nationalID)
	ident.Phone = deref(phone)
	ident.PendingSessionToken = deref(pending)
	ident.CreatedAt = createdAt.UTC()
	ident.UpdatedAt = updated.UTC()
	ident.Verification = verification.NotSubmitted()
	if len(rec) > 0 && string(rec) != "{}" {
		if err := json.Unmarshal(rec, &ident.Verification); err != nil {
			return Identity{}, fmt.Errorf("decode verification: %w", err)
		}
	}
	return ident, nil
}

// translate maps unique violations onto conflicts.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "identities_phone_number_key":
			return apperr.Conflict("phone number already registered")
		default:
			return apperr.Conflict("identity already registered")
		}
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
