// Package user provides the account registry: registration with bcrypt
// password hashes and credential-checked login, backed by PostgreSQL.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login fails for any reason. It is
// deliberately generic: callers must not learn whether the email exists.
var ErrInvalidCredentials = errors.New("user: invalid email or password")

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("user: email already registered")

// User is the public account record. The password hash never leaves the store.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

const ddlUsers = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT         PRIMARY KEY,
    name          TEXT         NOT NULL,
    email         TEXT         NOT NULL UNIQUE,
    password_hash TEXT         NOT NULL,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// Store is the PostgreSQL-backed account registry. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn and ensures the users table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("user store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("user store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlUsers); err != nil {
		pool.Close()
		return nil, fmt.Errorf("user store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Register creates an account and returns it. The email is lowercased before
// storage so logins are case-insensitive. Returns [ErrEmailTaken] when the
// email is already registered.
func (s *Store) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	var errs []error
	if name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if email == "" || !strings.Contains(email, "@") {
		errs = append(errs, errors.New("email is not valid"))
	}
	if len(password) < 8 {
		errs = append(errs, errors.New("password must be at least 8 characters"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("user: register: %w", errors.Join(errs...))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}

	u := &User{
		ID:    fmt.Sprintf("user-%d", time.Now().UnixMilli()),
		Name:  name,
		Email: email,
	}

	const q = `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`

	tag, err := s.pool.Exec(ctx, q, u.ID, u.Name, u.Email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("user: register: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrEmailTaken
	}
	return u, nil
}

// Login checks credentials and returns the account. Any failure, unknown
// email or wrong password alike, yields [ErrInvalidCredentials].
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	const q = `
		SELECT id, name, email, password_hash
		FROM   users
		WHERE  email = $1`

	var (
		u    User
		hash string
	)
	err := s.pool.QueryRow(ctx, q, normalizeEmail(email)).Scan(&u.ID, &u.Name, &u.Email, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user: login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// Ping checks database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
