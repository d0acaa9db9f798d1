package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown username or wrong
// password. Callers get the same error for both so login attempts cannot
// probe for usernames.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// Service checks credentials against the user table and issues session
// tokens.
type Service struct {
	pool   *pgxpool.Pool
	tokens TokenService
}

// NewService creates an auth service.
func NewService(pool *pgxpool.Pool, tokens TokenService) *Service {
	return &Service{pool: pool, tokens: tokens}
}

// CreateUser stores a new user with a bcrypt password hash and returns the
// user id.
func (s *Service) CreateUser(ctx context.Context, username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.New().String()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)
	`, id, username, string(hash))
	if err != nil {
		return "", fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return id, nil
}

// Login verifies credentials and returns a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	var id, hash string
	err := s.pool.QueryRow(ctx, `
		SELECT id, password_hash FROM users WHERE username = $1
	`, username).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.Sign(id, username)
	return token, err
}

// VerifyToken validates a session token and returns the user id.
func (s *Service) VerifyToken(token string) (string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
