package repo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

const liveCond = "(expires_at IS NULL OR expires_at > ?)"

// SQLiteKV emulates the KV contract on top of GORM.
//
// Keys live in kv_keys (kind, string value, optional expiry) and set members
// in kv_members. Reads skip expired keys; writes purge an expired key before
// reusing it; PurgeExpired (driven by RunJanitor) reclaims the rest.
type SQLiteKV struct {
	db  *gorm.DB
	now func() time.Time
}

var _ KV = (*SQLiteKV)(nil)

// NewSQLiteKV wraps an opened and migrated database.
func NewSQLiteKV(db *gorm.DB) *SQLiteKV {
	return &SQLiteKV{db: db, now: time.Now}
}

func (s *SQLiteKV) clock() time.Time { return s.now().UTC() }

// findLive returns the unexpired row for key, or nil.
func (s *SQLiteKV) findLive(tx *gorm.DB, key string) (*domain.KVKey, error) {
	var row domain.KVKey
	res := tx.Where("key = ? AND "+liveCond, key, s.clock()).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// purge deletes keys and their members regardless of expiry.
func purge(tx *gorm.DB, keys ...string) error {
	if err := tx.Where("key IN ?", keys).Delete(&domain.KVMember{}).Error; err != nil {
		return err
	}
	return tx.Where("key IN ?", keys).Delete(&domain.KVKey{}).Error
}

// Get implements KV.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	row, err := s.findLive(s.db.WithContext(ctx), key)
	if err != nil || row == nil {
		return "", false, err
	}
	if row.Kind != domain.KindString {
		return "", false, ErrWrongType
	}
	return row.Value, true, nil
}

// MGet implements KV. Sets and missing keys both yield nil, as in Redis.
func (s *SQLiteKV) MGet(ctx context.Context, keys ...string) ([]*string, error) {
	out := make([]*string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var rows []domain.KVKey
	err := s.db.WithContext(ctx).
		Where("key IN ? AND kind = ? AND "+liveCond, keys, domain.KindString, s.clock()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]string, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r.Value
	}
	for i, k := range keys {
		if v, ok := byKey[k]; ok {
			out[i] = &v
		}
	}
	return out, nil
}

// Set implements KV.
func (s *SQLiteKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ?", key).Delete(&domain.KVMember{}).Error; err != nil {
			return err
		}
		row := domain.KVKey{
			Key:       key,
			Kind:      domain.KindString,
			Value:     value,
			ExpiresAt: expiry(s.clock(), ttl),
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
}

// Del implements KV.
func (s *SQLiteKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return purge(tx, keys...)
	})
}

// SAdd implements KV.
func (s *SQLiteKV) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.KVKey
		res := tx.Where("key = ?", key).Limit(1).Find(&row)
		if res.Error != nil {
			return res.Error
		}
		exists := res.RowsAffected > 0
		if exists && row.ExpiresAt != nil && !row.ExpiresAt.After(s.clock()) {
			if err := purge(tx, key); err != nil {
				return err
			}
			exists = false
		}
		if exists && row.Kind != domain.KindSet {
			return ErrWrongType
		}
		if !exists {
			if err := tx.Create(&domain.KVKey{Key: key, Kind: domain.KindSet}).Error; err != nil {
				return err
			}
		}

		rows := make([]domain.KVMember, 0, len(members))
		for _, m := range members {
			rows = append(rows, domain.KVMember{Key: key, Member: m})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// SRem implements KV.
func (s *SQLiteKV) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.findLive(tx, key)
		if err != nil || row == nil {
			return err
		}
		if row.Kind != domain.KindSet {
			return ErrWrongType
		}
		if err := tx.Where("key = ? AND member IN ?", key, members).Delete(&domain.KVMember{}).Error; err != nil {
			return err
		}
		var left int64
		if err := tx.Model(&domain.KVMember{}).Where("key = ?", key).Count(&left).Error; err != nil {
			return err
		}
		if left == 0 {
			return tx.Where("key = ?", key).Delete(&domain.KVKey{}).Error
		}
		return nil
	})
}

// SMembers implements KV.
func (s *SQLiteKV) SMembers(ctx context.Context, key string) ([]string, error) {
	db := s.db.WithContext(ctx)
	row, err := s.findLive(db, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return []string{}, nil
	}
	if row.Kind != domain.KindSet {
		return nil, ErrWrongType
	}
	members := []string{}
	err = db.Model(&domain.KVMember{}).Where("key = ?", key).Order("member").Pluck("member", &members).Error
	return members, err
}

// Expire implements KV.
func (s *SQLiteKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Del(ctx, key)
	}
	now := s.clock()
	return s.db.WithContext(ctx).
		Model(&domain.KVKey{}).
		Where("key = ? AND "+liveCond, key, now).
		Update("expires_at", expiry(now, ttl)).Error
}

// TTL implements KV.
func (s *SQLiteKV) TTL(ctx context.Context, key string) (time.Duration, error) {
	row, err := s.findLive(s.db.WithContext(ctx), key)
	if err != nil {
		return 0, err
	}
	switch {
	case row == nil:
		return TTLMissing, nil
	case row.ExpiresAt == nil:
		return TTLPersistent, nil
	default:
		return row.ExpiresAt.Sub(s.clock()), nil
	}
}

// PurgeExpired deletes expired keys and their members, returning how many
// keys were removed.
func (s *SQLiteKV) PurgeExpired(ctx context.Context) (int64, error) {
	var n int64
	now := s.clock()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&domain.KVKey{}).
			Select("key").
			Where("expires_at IS NOT NULL AND expires_at <= ?", now)
		if err := tx.Where("key IN (?)", expired).Delete(&domain.KVMember{}).Error; err != nil {
			return err
		}
		res := tx.Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&domain.KVKey{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// RunJanitor calls PurgeExpired every interval until ctx is done.
func (s *SQLiteKV) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("sqlite kv: purge expired keys failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("keys", n).Msg("sqlite kv: purged expired keys")
			}
		}
	}
}

// Close implements KV.
func (s *SQLiteKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
