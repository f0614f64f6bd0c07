package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/DergiSamayoa/user-verify-email/internal/model"
)

func TestCreateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() unexpected error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO verification_codes").
		WithArgs("abc123", int64(5)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	repo := NewCodeRepository(db)
	code := &model.VerificationCode{Code: "abc123", UserID: 5}

	if err := repo.Create(context.Background(), code); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if code.ID != 11 {
		t.Errorf("Create() ID = %d, want 11", code.ID)
	}
}

// The code lookup takes a row lock so concurrent redemptions serialize.
func TestGetByCodeTxLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() unexpected error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM verification_codes WHERE code (.+) FOR UPDATE").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "user_id", "created_at"}).
			AddRow(11, "abc123", 5, time.Now()))

	repo := NewCodeRepository(db)
	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx() unexpected error: %v", err)
	}

	vc, err := repo.GetByCodeTx(context.Background(), tx, "abc123")
	if err != nil {
		t.Fatalf("GetByCodeTx() unexpected error: %v", err)
	}
	if vc.UserID != 5 {
		t.Errorf("GetByCodeTx() UserID = %d, want 5", vc.UserID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByCodeTxNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() unexpected error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM verification_codes").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "user_id", "created_at"}))

	repo := NewCodeRepository(db)
	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx() unexpected error: %v", err)
	}

	_, err = repo.GetByCodeTx(context.Background(), tx, "unknown")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("GetByCodeTx() error = %v, want ErrCodeNotFound", err)
	}
}

// A delete that affects zero rows means another transaction consumed the
// code first; the caller must treat the code as already used.
func TestDeleteTxZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() unexpected error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM verification_codes").
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCodeRepository(db)
	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx() unexpected error: %v", err)
	}

	err = repo.DeleteTx(context.Background(), tx, 11)
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("DeleteTx() error = %v, want ErrCodeNotFound", err)
	}
}
