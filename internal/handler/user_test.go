package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/DergiSamayoa/user-verify-email/internal/crypto"
	"github.com/DergiSamayoa/user-verify-email/internal/mail"
	"github.com/DergiSamayoa/user-verify-email/internal/middleware"
	"github.com/DergiSamayoa/user-verify-email/internal/model"
	"github.com/DergiSamayoa/user-verify-email/internal/repository"
	"github.com/DergiSamayoa/user-verify-email/internal/service"
)

const testSecret = "test-secret"

var userTestColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name",
	"country", "image", "is_verified", "created_at", "updated_at",
}

func userRow(id int64, email, firstName string, verified bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userTestColumns).
		AddRow(id, email, "$argon2id$hash", firstName, "User", "CL", "", verified, now, now)
}

// newTestRouter wires the full route table the way cmd/api does, over a
// sqlmock-backed service with email disabled.
func newTestRouter(t *testing.T) (*chi.Mux, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mailer, err := mail.NewClient("", "", "", "Accounts <no-reply@localhost>", false)
	if err != nil {
		t.Fatalf("mail.NewClient() unexpected error: %v", err)
	}

	svc := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewCodeRepository(db),
		mailer,
		testSecret,
		24*time.Hour,
		nil,
	)
	h := NewUserHandler(svc)

	r := chi.NewRouter()
	r.Post("/", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Get("/verify/{code}", h.HandleVerifyEmail)
	r.Post("/reset_password", h.HandleResetPassword)
	r.Post("/reset_password/{code}", h.HandleChangePassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(testSecret))
		r.Get("/", h.HandleGetAll)
		r.Get("/me", h.HandleMe)
		r.Get("/{id}", h.HandleGetOne)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleRemove)
	})

	return r, mock
}

func authHeader(t *testing.T, id int64, email string) string {
	t.Helper()
	token, err := crypto.GenerateToken(crypto.UserClaims{ID: id, Email: email, IsVerified: true}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() unexpected error: %v", err)
	}
	return "Bearer " + token
}

func TestHandleRegisterInvalidBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRegisterMissingEmail(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"password":"password123","frontBaseUrl":"https://app.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRegisterCreated(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO verification_codes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	body := `{"email":"test@example.com","password":"password123","firstName":"Test","frontBaseUrl":"https://app.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// The response must not carry the password hash.
	if strings.Contains(rec.Body.String(), "argon2id") || strings.Contains(rec.Body.String(), "password") {
		t.Errorf("register response leaks credential material: %s", rec.Body.String())
	}
}

func TestHandleLoginInvalidCredentials(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WillReturnRows(sqlmock.NewRows(userTestColumns))

	body := `{"email":"missing@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleVerifyEmailUnknownCode(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM verification_codes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "user_id", "created_at"}))
	mock.ExpectRollback()

	req := httptest.NewRequest(http.MethodGet, "/verify/unknown-code", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleGetAllRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleGetOne(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(userRow(3, "test@example.com", "Test", true))

	req := httptest.NewRequest(http.MethodGet, "/3", nil)
	req.Header.Set("Authorization", authHeader(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp model.UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID != 3 || resp.Email != "test@example.com" {
		t.Errorf("response = %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "argon2id") {
		t.Error("response leaks password hash")
	}
}

func TestHandleGetOneInvalidID(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/not-a-number", nil)
	req.Header.Set("Authorization", authHeader(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// Submitting protected fields through PUT must not change them: only the
// whitelisted profile fields ever reach the UPDATE statement.
func TestHandleUpdateStripsProtectedFields(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec(`UPDATE users SET first_name = \? WHERE id = \?`).
		WithArgs("Changed", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(userRow(3, "original@example.com", "Changed", true))

	body := `{"email":"evil@example.com","password":"hacked","isVerified":false,"firstName":"Changed"}`
	req := httptest.NewRequest(http.MethodPut, "/3", strings.NewReader(body))
	req.Header.Set("Authorization", authHeader(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp model.UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Email != "original@example.com" {
		t.Errorf("email changed through update path: %q", resp.Email)
	}
	if resp.FirstName != "Changed" {
		t.Errorf("firstName = %q, want Changed", resp.FirstName)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestHandleRemove(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/3", nil)
	req.Header.Set("Authorization", authHeader(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestHandleRemoveNotFound(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/99", nil)
	req.Header.Set("Authorization", authHeader(t, 1, "admin@example.com"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleMe(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(userRow(7, "me@example.com", "Me", true))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", authHeader(t, 7, "me@example.com"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp model.UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID != 7 {
		t.Errorf("response ID = %d, want 7", resp.ID)
	}
}

func TestHandleResetPasswordUnknownEmail(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WillReturnRows(sqlmock.NewRows(userTestColumns))

	body := `{"email":"missing@example.com","frontBaseUrl":"https://app.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/reset_password", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleResetPasswordAccepted(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WillReturnRows(userRow(3, "test@example.com", "Test", true))
	mock.ExpectExec("INSERT INTO verification_codes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	body := `{"email":"test@example.com","frontBaseUrl":"https://app.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/reset_password", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "test@example.com") {
		t.Error("reset acknowledgment should not echo the email address")
	}
}
