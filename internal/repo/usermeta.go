package repo

import (
	"context"
	"strings"
)

// blockedSuffix is appended to a username to form its block-list key.
const blockedSuffix = KeySeparator + "$blocked"

// BlockedKey returns the usermeta key holding the users blocked by username.
func BlockedKey(username string) string { return username + blockedSuffix }

// UserMetaBlocks answers block-list queries from the usermeta database, where
// "<username>:$blocked" holds a comma-joined list of blocked usernames.
type UserMetaBlocks struct {
	kv KV
}

// NewUserMetaBlocks returns a block lookup over kv.
func NewUserMetaBlocks(kv KV) *UserMetaBlocks {
	return &UserMetaBlocks{kv: kv}
}

// IsBlocked reports whether to has blocked from.
func (b *UserMetaBlocks) IsBlocked(ctx context.Context, from, to string) (bool, error) {
	raw, ok, err := b.kv.Get(ctx, BlockedKey(to))
	if err != nil || !ok || raw == "" {
		return false, err
	}
	for _, name := range strings.Split(raw, ",") {
		if name == from {
			return true, nil
		}
	}
	return false, nil
}

// SetBlocked replaces the list of users blocked by username.
func (b *UserMetaBlocks) SetBlocked(ctx context.Context, username string, blocked ...string) error {
	if len(blocked) == 0 {
		return b.kv.Del(ctx, BlockedKey(username))
	}
	return b.kv.Set(ctx, BlockedKey(username), strings.Join(blocked, ","), 0)
}
