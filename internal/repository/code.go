package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DergiSamayoa/user-verify-email/internal/model"
)

var ErrCodeNotFound = errors.New("verification code not found")

// CodeRepository handles verification code persistence operations.
type CodeRepository struct {
	db *sql.DB
}

// NewCodeRepository creates a new CodeRepository.
func NewCodeRepository(db *sql.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

// Create inserts a new verification code and sets the generated ID.
func (r *CodeRepository) Create(ctx context.Context, code *model.VerificationCode) error {
	query := `INSERT INTO verification_codes (code, user_id) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, code.Code, code.UserID)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	code.ID = id
	return nil
}

// BeginTx starts a new database transaction.
func (r *CodeRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

// GetByCodeTx retrieves a verification code by exact match within the provided
// transaction, taking a row lock. Concurrent consumers of the same code
// serialize on this lock; whichever commits first deletes the row and the
// loser observes ErrCodeNotFound.
func (r *CodeRepository) GetByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*model.VerificationCode, error) {
	query := `SELECT id, code, user_id, created_at FROM verification_codes WHERE code = ? FOR UPDATE`

	vc := &model.VerificationCode{}
	err := tx.QueryRowContext(ctx, query, code).Scan(&vc.ID, &vc.Code, &vc.UserID, &vc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	return vc, nil
}

// DeleteTx consumes a verification code within the provided transaction. The
// delete must affect exactly one row, guaranteeing at-most-once consumption.
func (r *CodeRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM verification_codes WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected != 1 {
		return ErrCodeNotFound
	}

	return nil
}
