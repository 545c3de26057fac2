package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prtkgoswami/gears-connect/internal/db"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

// Register creates the account together with its empty profile document:
// zeroed statistics, empty vehicle and event id lists. A profile exists
// from the first successful authentication onward.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Account, TokenResponse, error) {
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return Account{}, TokenResponse{}, errors.New("email, name, password required")
	}

	var provider string
	err := s.db.QueryRow(ctx, `
		SELECT provider FROM users WHERE email = $1
	`, req.Email).Scan(&provider)
	if err == nil {
		switch provider {
		case "google":
			return Account{}, TokenResponse{}, ErrRegisteredWithGoogle
		case "password":
			return Account{}, TokenResponse{}, ErrRegisteredWithPassword
		default:
			return Account{}, TokenResponse{}, ErrEmailInUse
		}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Account{}, TokenResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}

	now := time.Now().Unix()
	account := Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Provider:     "password",
		CreatedAt:    now,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, provider, created_at, last_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, account.ID, account.Email, account.Name, account.PasswordHash, account.Provider, now, now)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, account.ID, account.Name)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}
	return account, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (Account, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, name, password_hash, provider, created_at
		FROM users WHERE email = $1
	`, req.Email)

	var account Account
	if err := row.Scan(&account.ID, &account.Email, &account.Name, &account.PasswordHash, &account.Provider, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, TokenResponse{}, ErrInvalidCredentials
		}
		return Account{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return Account{}, TokenResponse{}, ErrInvalidCredentials
	}

	_, err := s.db.Exec(ctx, `UPDATE users SET last_active=$2 WHERE id=$1`, account.ID, time.Now().Unix())
	if err != nil {
		return Account{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, account.ID, account.Name)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}
	return account, tokens, nil
}

func (s *Service) GenerateTokens(ctx context.Context, userID, username string) (TokenResponse, error) {
	access, err := s.signToken(userID, username, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := s.signToken(userID, username, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return Session{}, err
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return Session{}, errors.New("refresh token invalid")
	}
	return Session{UserID: claims.UserID, Username: claims.Username}, nil
}

func (s *Service) ValidateAccessToken(token string) (Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: claims.UserID, Username: claims.Username}, nil
}

func (s *Service) signToken(userID, username string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}
