// Package auth manages the owner account and its API tokens.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoAccount          = errors.New("no account has been created")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrTokenRevoked       = errors.New("token issued before the last password change")
)

// MinPasswordLength is the shortest password accepted on change.
const MinPasswordLength = 8

// AccountStore loads and saves the owner account.
type AccountStore interface {
	Account(ctx context.Context) (*model.Account, error)
	SaveAccount(ctx context.Context, account *model.Account) error
}

// Bootstrap creates the owner account with a random password when none
// exists. It returns the generated password, or "" when an account was
// already present.
func Bootstrap(ctx context.Context, st AccountStore, username string) (string, error) {
	existing, err := st.Account(ctx)
	if err != nil {
		return "", fmt.Errorf("loading account: %w", err)
	}
	if existing != nil {
		return "", nil
	}

	password, err := GeneratePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	account := &model.Account{
		Username:          username,
		PasswordHash:      string(hash),
		CreatedAt:         now,
		PasswordChangedAt: now,
	}
	if err := st.SaveAccount(ctx, account); err != nil {
		return "", fmt.Errorf("creating account: %w", err)
	}
	return password, nil
}

// Login checks the credentials and returns a signed token.
func Login(ctx context.Context, st AccountStore, secret, username, password string) (string, error) {
	account, err := st.Account(ctx)
	if err != nil {
		return "", fmt.Errorf("loading account: %w", err)
	}
	if account == nil || account.Username != username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return GenerateToken(secret, account.Username, account.TokenVersion)
}

// IssueToken signs a token for the current account without a password
// check, e.g. right after ChangePassword.
func IssueToken(ctx context.Context, st AccountStore, secret string) (string, error) {
	account, err := st.Account(ctx)
	if err != nil {
		return "", fmt.Errorf("loading account: %w", err)
	}
	if account == nil {
		return "", ErrNoAccount
	}
	return GenerateToken(secret, account.Username, account.TokenVersion)
}

// ChangePassword replaces the password after checking the current one.
// Tokens issued before the change stop being accepted.
func ChangePassword(ctx context.Context, st AccountStore, current, next string) error {
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}

	account, err := st.Account(ctx)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if account == nil {
		return ErrNoAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	account.PasswordHash = string(hash)
	account.PasswordChangedAt = time.Now().UTC()
	account.TokenVersion++
	if err := st.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// CheckClaims verifies that claims belong to the current account and were
// issued after its last password change, however close together the two are.
func CheckClaims(ctx context.Context, st AccountStore, claims *Claims) error {
	account, err := st.Account(ctx)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if account == nil || account.Username != claims.Username {
		return ErrInvalidCredentials
	}
	if claims.Version != account.TokenVersion {
		return ErrTokenRevoked
	}
	return nil
}

// GeneratePassword returns a random password of the given length.
func GeneratePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
