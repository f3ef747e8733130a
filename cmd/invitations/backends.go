package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-invitations-backend/internal/config"
	"github.com/tbourn/go-invitations-backend/internal/repo"
)

// Key prefixes of the roles sharing a sqlite database. Neither can occur in
// an invitation-side key since usernames never hold repo.KeySeparator.
const (
	authPrefix     = "authdb" + repo.KeySeparator
	usermetaPrefix = "usermeta" + repo.KeySeparator
)

// backends holds the key-value stores behind the three roles. usermeta is
// nil when the block check is disabled.
type backends struct {
	invitations repo.KV
	auth        repo.KV
	usermeta    repo.KV

	closers []io.Closer
}

// openBackends connects the stores selected by cfg. With sqlite all roles
// share one database, the auth and usermeta keys under their own prefixes,
// and a janitor purges expired keys until ctx is done.
func openBackends(ctx context.Context, cfg config.StoreConfig) (*backends, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		kv := repo.NewSQLiteKV(db)
		go kv.RunJanitor(ctx, cfg.JanitorInterval)
		log.Info().Str("path", cfg.DBPath).Msg("store: sqlite ready")
		return &backends{
			invitations: kv,
			auth:        repo.Namespace(kv, authPrefix),
			usermeta:    repo.Namespace(kv, usermetaPrefix),
			closers:     []io.Closer{kv},
		}, nil

	case config.BackendRedis:
		b := &backends{}
		dial := func(role, addr string) (repo.KV, error) {
			rdb, err := repo.DialRedis(ctx, addr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return nil, fmt.Errorf("dial %s redis %s: %w", role, addr, err)
			}
			kv := repo.NewRedisKV(rdb)
			b.closers = append(b.closers, kv)
			log.Info().Str("role", role).Str("addr", addr).Msg("store: redis ready")
			return kv, nil
		}

		var err error
		if b.invitations, err = dial("invitations", cfg.InvitationsAddr); err != nil {
			return nil, errors.Join(err, b.Close())
		}
		if b.auth, err = dial("auth", cfg.AuthAddr); err != nil {
			return nil, errors.Join(err, b.Close())
		}
		if cfg.UsermetaAddr == "" {
			log.Warn().Msg("store: REDIS_USERMETA_ADDR not set, block check disabled")
			return b, nil
		}
		if b.usermeta, err = dial("usermeta", cfg.UsermetaAddr); err != nil {
			return nil, errors.Join(err, b.Close())
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Close closes every opened store.
func (b *backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
