// Package auth resolves the per-request token carried in the URL path to the
// identity a request acts as.
//
// Two token forms are accepted:
//
//   - "<secret>.<username>": a spoofed identity for trusted callers, honoured
//     only when a shared secret is configured. No lookup happens.
//   - anything else: an opaque token resolved through the account lookup.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

// SpoofSeparator separates the shared secret from the username in a spoofed token.
const SpoofSeparator = "."

var (
	// ErrMissingToken is returned when the request carries no token.
	ErrMissingToken = errors.New("missing auth token")

	// ErrUnauthorized is returned when the token does not resolve to an account.
	ErrUnauthorized = errors.New("unauthorized")
)

// AccountLookup resolves a token to an account. A token with no account
// yields (nil, nil).
type AccountLookup interface {
	GetAccount(ctx context.Context, token string) (*domain.Account, error)
}

// Gate authenticates request tokens.
type Gate struct {
	// Accounts is the account-lookup collaborator.
	Accounts AccountLookup
	// Secret enables spoofed tokens when non-empty.
	Secret string
}

// NewGate returns a Gate over accounts. An empty secret disables spoofing.
func NewGate(accounts AccountLookup, secret string) *Gate {
	return &Gate{Accounts: accounts, Secret: secret}
}

// Authenticate resolves token to a user.
//
// Lookup failures are logged with the token and the cause, and reported to
// the caller only as ErrUnauthorized.
func (g *Gate) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	if username, ok := g.spoofed(token); ok {
		return &domain.User{Username: username, Secret: true}, nil
	}

	acc, err := g.Accounts.GetAccount(ctx, token)
	if err != nil {
		logger(ctx).Error().Err(err).Str("token", token).Msg("auth: account lookup failed")
		return nil, ErrUnauthorized
	}
	if acc == nil || acc.Username == "" {
		return nil, ErrUnauthorized
	}
	return &domain.User{Username: acc.Username, Account: acc}, nil
}

// spoofed extracts the username from a "<secret>.<username>" token.
func (g *Gate) spoofed(token string) (string, bool) {
	if g.Secret == "" {
		return "", false
	}
	prefix := g.Secret + SpoofSeparator
	if len(token) <= len(prefix) || !strings.HasPrefix(token, prefix) {
		return "", false
	}
	return token[len(prefix):], true
}

func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
