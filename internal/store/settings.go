package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// JWTSecret returns the token signing secret, generating and storing one on
// first use. The check and the write happen under the key's lock.
func (s *Store) JWTSecret(ctx context.Context) (string, error) {
	var secret string
	err := s.locks.with(JWTSecretKey, func() error {
		existing, ok, err := s.kv.Get(ctx, JWTSecretKey)
		if err != nil {
			return fmt.Errorf("reading jwt secret: %w: %w", ErrStorageRead, err)
		}
		if ok && existing != "" {
			secret = existing
			return nil
		}

		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generating jwt secret: %w", err)
		}
		candidate := hex.EncodeToString(buf)

		if err := s.kv.Set(ctx, JWTSecretKey, candidate); err != nil {
			return fmt.Errorf("storing jwt secret: %w: %w", ErrStorageWrite, err)
		}
		secret = candidate
		return nil
	})
	return secret, err
}

// Account returns the owner account, or nil if none has been created yet.
func (s *Store) Account(ctx context.Context) (*model.Account, error) {
	var account *model.Account
	err := s.locks.with(AccountKey, func() error {
		raw, ok, err := s.kv.Get(ctx, AccountKey)
		if err != nil {
			return fmt.Errorf("reading account: %w: %w", ErrStorageRead, err)
		}
		if !ok {
			return nil
		}
		account = &model.Account{}
		if err := json.Unmarshal([]byte(raw), account); err != nil {
			return fmt.Errorf("parsing account: %w: %w", ErrStorageRead, err)
		}
		return nil
	})
	return account, err
}

// SaveAccount stores the owner account, replacing any previous one.
func (s *Store) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encoding account: %w", err)
	}
	return s.locks.with(AccountKey, func() error {
		if err := s.kv.Set(ctx, AccountKey, string(data)); err != nil {
			return fmt.Errorf("storing account: %w: %w", ErrStorageWrite, err)
		}
		return nil
	})
}
