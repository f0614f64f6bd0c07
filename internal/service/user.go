package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/DergiSamayoa/user-verify-email/internal/crypto"
	"github.com/DergiSamayoa/user-verify-email/internal/mail"
	"github.com/DergiSamayoa/user-verify-email/internal/model"
	"github.com/DergiSamayoa/user-verify-email/internal/repository"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrBaseURLRequired    = errors.New("frontBaseUrl is required")
	ErrBaseURLNotAllowed  = errors.New("frontBaseUrl is not allowed")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCode        = errors.New("invalid or already used code")
	ErrUserNotFound       = errors.New("user not found")
)

// emailSendTimeout bounds the background email send so a slow mail provider
// cannot hold a goroutine forever.
const emailSendTimeout = 30 * time.Second

// UserService owns the account lifecycle: registration, verification, login,
// the password-reset flow and profile CRUD.
type UserService struct {
	users         *repository.UserRepository
	codes         *repository.CodeRepository
	mailer        mail.Mailer
	jwtSecret     string
	jwtExpiry     time.Duration
	frontBaseURLs []string
}

// NewUserService creates a new UserService.
func NewUserService(users *repository.UserRepository, codes *repository.CodeRepository, mailer mail.Mailer, jwtSecret string, jwtExpiry time.Duration, frontBaseURLs []string) *UserService {
	return &UserService{
		users:         users,
		codes:         codes,
		mailer:        mailer,
		jwtSecret:     jwtSecret,
		jwtExpiry:     jwtExpiry,
		frontBaseURLs: frontBaseURLs,
	}
}

// Register creates a new unverified user, stores a one-time verification code
// and sends the verification email. The email send is best-effort and never
// blocks or fails the registration.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.UserResponse, error) {
	if req.Email == "" {
		return model.UserResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.UserResponse{}, ErrPasswordRequired
	}
	if err := s.validateBaseURL(req.FrontBaseURL); err != nil {
		return model.UserResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Country:      req.Country,
		Image:        req.Image,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, err
	}

	code, err := s.issueCode(ctx, user.ID)
	if err != nil {
		return model.UserResponse{}, err
	}

	s.sendAsync("verification", user.Email, func() error {
		return s.mailer.SendVerification(user.Email, user.FirstName, req.FrontBaseURL, code)
	})

	return user.Response(), nil
}

// Login authenticates a user and issues a signed session token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.LoginResponse{}, ErrInvalidCredentials
		}
		return model.LoginResponse{}, err
	}

	if !user.IsVerified {
		return model.LoginResponse{}, ErrEmailNotVerified
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.LoginResponse{}, err
	}
	if !match {
		return model.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(crypto.UserClaims{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		IsVerified: user.IsVerified,
	}, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.LoginResponse{}, err
	}

	return model.LoginResponse{
		User:  user.Response(),
		Token: token,
	}, nil
}

// VerifyEmail consumes a verification code and marks the owning user as
// verified. Lookup, mutation and consumption run in one transaction so a
// code is redeemed at most once even under concurrent requests.
func (s *UserService) VerifyEmail(ctx context.Context, code string) (model.UserResponse, error) {
	user, err := s.consumeCode(ctx, code, func(ctx context.Context, tx *sql.Tx, user *model.User) error {
		if err := s.users.SetVerifiedTx(ctx, tx, user.ID); err != nil {
			return err
		}
		user.IsVerified = true
		return nil
	})
	if err != nil {
		return model.UserResponse{}, err
	}

	return user.Response(), nil
}

// RequestPasswordReset stores a fresh one-time code for the user and sends
// the reset email.
func (s *UserService) RequestPasswordReset(ctx context.Context, req model.ResetPasswordRequest) error {
	if req.Email == "" {
		return ErrEmailRequired
	}
	if err := s.validateBaseURL(req.FrontBaseURL); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := s.issueCode(ctx, user.ID)
	if err != nil {
		return err
	}

	s.sendAsync("password reset", user.Email, func() error {
		return s.mailer.SendPasswordReset(user.Email, req.FrontBaseURL, code)
	})

	return nil
}

// ChangePassword consumes a reset code and replaces the user's password.
// A reset cannot complete verification: the user must already be verified.
func (s *UserService) ChangePassword(ctx context.Context, code, newPassword string) (model.UserResponse, error) {
	if newPassword == "" {
		return model.UserResponse{}, ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return model.UserResponse{}, err
	}

	user, err := s.consumeCode(ctx, code, func(ctx context.Context, tx *sql.Tx, user *model.User) error {
		if !user.IsVerified {
			return ErrEmailNotVerified
		}
		return s.users.UpdatePasswordTx(ctx, tx, user.ID, hash)
	})
	if err != nil {
		return model.UserResponse{}, err
	}

	return user.Response(), nil
}

// GetAll returns all users.
func (s *UserService) GetAll(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]model.UserResponse, len(users))
	for i := range users {
		resp[i] = users[i].Response()
	}
	return resp, nil
}

// GetOne returns a single user by ID.
func (s *UserService) GetOne(ctx context.Context, id int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return user.Response(), nil
}

// Update applies a partial profile update. Email, password and verification
// status are stripped by construction of UpdateUserRequest.
func (s *UserService) Update(ctx context.Context, id int64, req model.UpdateUserRequest) (model.UserResponse, error) {
	user, err := s.users.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return user.Response(), nil
}

// Remove hard-deletes a user.
func (s *UserService) Remove(ctx context.Context, id int64) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

// issueCode generates and persists a fresh one-time code for the user.
func (s *UserService) issueCode(ctx context.Context, userID int64) (string, error) {
	code, err := crypto.NewVerificationCode()
	if err != nil {
		return "", err
	}

	vc := &model.VerificationCode{
		Code:   code,
		UserID: userID,
	}
	if err := s.codes.Create(ctx, vc); err != nil {
		return "", err
	}

	return code, nil
}

// consumeCode runs the find-code, mutate-user, delete-code sequence inside a
// single transaction. The code row is locked on read and the delete must
// affect exactly one row, so concurrent redemptions of the same code admit
// exactly one winner.
func (s *UserService) consumeCode(ctx context.Context, code string, apply func(context.Context, *sql.Tx, *model.User) error) (*model.User, error) {
	tx, err := s.codes.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	vc, err := s.codes.GetByCodeTx(ctx, tx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	user, err := s.users.GetByIDTx(ctx, tx, vc.UserID)
	if err != nil {
		// The owning user was deleted after the code was issued.
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if err := apply(ctx, tx, user); err != nil {
		return nil, err
	}

	if err := s.codes.DeleteTx(ctx, tx, vc.ID); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return user, nil
}

// sendAsync fires an email send in the background so a slow mail provider
// never stalls the request path. Failures are logged, not surfaced.
func (s *UserService) sendAsync(kind, email string, send func() error) {
	go func() {
		done := make(chan error, 1)
		go func() { done <- send() }()

		select {
		case err := <-done:
			if err != nil {
				slog.Error("sending "+kind+" email failed", "email", email, "error", err)
			}
		case <-time.After(emailSendTimeout):
			slog.Error("sending "+kind+" email timed out", "email", email)
		}
	}()
}

// validateBaseURL checks the caller-supplied frontend base URL against the
// configured allowlist. With no allowlist configured, any absolute http(s)
// URL is accepted.
func (s *UserService) validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return ErrBaseURLRequired
	}

	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrBaseURLNotAllowed
	}

	if len(s.frontBaseURLs) == 0 {
		return nil
	}
	for _, allowed := range s.frontBaseURLs {
		if baseURL == allowed {
			return nil
		}
	}

	return ErrBaseURLNotAllowed
}
