package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

// AuthDB reads accounts from the authentication database, where each auth
// token maps to the JSON of the account it was issued for.
type AuthDB struct {
	kv KV
}

// NewAuthDB returns an account lookup over kv.
func NewAuthDB(kv KV) *AuthDB {
	return &AuthDB{kv: kv}
}

// GetAccount resolves token. A token with no account yields (nil, nil).
func (a *AuthDB) GetAccount(ctx context.Context, token string) (*domain.Account, error) {
	raw, ok, err := a.kv.Get(ctx, token)
	if err != nil || !ok {
		return nil, err
	}
	var acc domain.Account
	if err := json.Unmarshal([]byte(raw), &acc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &acc, nil
}

// AddAccount stores acc under token. A ttl <= 0 never expires.
func (a *AuthDB) AddAccount(ctx context.Context, token string, acc domain.Account, ttl time.Duration) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	return a.kv.Set(ctx, token, string(data), ttl)
}
