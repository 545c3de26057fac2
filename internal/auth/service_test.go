package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterAndLogin(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT provider FROM users`).
		WithArgs("user@example.com").
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "user@example.com", "User One", pgxmock.AnyArg(), "password", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	account, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Name:     "User One",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.ID == "" || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected account and tokens")
	}

	passwordHash := account.PasswordHash

	mock.ExpectQuery(`SELECT id, email, name, password_hash, provider, created_at`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "password_hash", "provider", "created_at"}).
			AddRow(account.ID, account.Email, account.Name, passwordHash, "password", account.CreatedAt))

	mock.ExpectExec(`UPDATE users SET last_active`).
		WithArgs(account.ID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), account.ID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	_, loginTokens, err := svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginTokens.AccessToken == "" || loginTokens.RefreshToken == "" {
		t.Fatalf("expected login tokens")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterExistingAccounts(t *testing.T) {
	cases := []struct {
		provider string
		want     error
	}{
		{"google", ErrRegisteredWithGoogle},
		{"password", ErrRegisteredWithPassword},
		{"github", ErrEmailInUse},
	}

	for _, tc := range cases {
		mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
		if err != nil {
			t.Fatalf("mock pool: %v", err)
		}

		mock.ExpectQuery(`SELECT provider FROM users`).
			WithArgs("user@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"provider"}).AddRow(tc.provider))

		svc := NewService("test-secret", mock)
		_, _, err = svc.Register(context.Background(), RegisterRequest{Email: "user@example.com", Name: "User", Password: "pass"})
		if !errors.Is(err, tc.want) {
			t.Fatalf("provider %s: expected %v, got %v", tc.provider, tc.want, err)
		}
		mock.Close()
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewService("test-secret", nil)
	_, _, err := svc.Register(context.Background(), RegisterRequest{Email: "", Name: "u", Password: "p"})
	if err == nil {
		t.Fatalf("expected error for missing email")
	}
}

func TestRegisterProviderLookupError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT provider FROM users`).
		WithArgs("user@example.com").
		WillReturnError(pgErr)

	svc := NewService("test-secret", mock)
	_, _, err = svc.Register(context.Background(), RegisterRequest{Email: "user@example.com", Name: "User", Password: "pass"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, email, name, password_hash, provider, created_at`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService("test-secret", mock)
	_, _, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "pass"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)

	mock.ExpectQuery(`SELECT id, email, name, password_hash, provider, created_at`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "password_hash", "provider", "created_at"}).
			AddRow("user-1", "user@example.com", "user", string(hash), "password", time.Now().Unix()))

	svc := NewService("test-secret", mock)
	_, _, err = svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestValidateRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	tokens, err := svc.GenerateTokens(context.Background(), "user-1", "User One")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(5*time.Minute)))

	sess, err := svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if sess.UserID != "user-1" || sess.Username != "User One" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestValidateRefreshTokenExpired(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-2", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	tokens, err := svc.GenerateTokens(context.Background(), "user-2", "user")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-2", time.Now().Add(-time.Minute)))

	_, err = svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	if err == nil {
		t.Fatalf("expected expired token error")
	}
}

func TestValidateRefreshTokenLookupError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService("test-secret", mock)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-3", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tokens, err := svc.GenerateTokens(context.Background(), "user-3", "user")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnError(pgErr)

	_, err = svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestGenerateTokensSaveRefreshError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgErr)

	svc := NewService("test-secret", mock)
	_, err = svc.GenerateTokens(context.Background(), "user-1", "user")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateAccessToken(t *testing.T) {
	svc := NewService("test-secret", nil)

	token, err := svc.signToken("user-1", "User One", accessTokenTTL)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	sess, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if sess.UserID != "user-1" || sess.Username != "User One" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, err := svc.ValidateAccessToken("invalid-token"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	token, err := NewService("other-secret", nil).signToken("user-1", "user", accessTokenTTL)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	svc := NewService("test-secret", nil)
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

var pgErr = errors.New("db error")
