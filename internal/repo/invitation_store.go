package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

// KeySeparator joins a key to its suffix in derived keys. Usernames holding
// it could address cool-down or block-list keys, so they are rejected.
const KeySeparator = ":"

// banSuffix marks cool-down keys: "<invitation id>:ban".
const banSuffix = KeySeparator + "ban"

// BanKey returns the cool-down key for an invitation identity.
func BanKey(id string) string { return id + banSuffix }

// InvitationStore persists invitations in a KV backend.
//
// Layout:
//
//	<id>        -> JSON(Invitation)
//	<username>  -> set of invitation ids (one set per participant)
//	<id>:ban    -> "1" while a refusal cool-down is active
//
// The three writes of Save and Delete are issued concurrently and are not
// atomic; a partial failure can leave a stale index entry, which
// ForUsername reports so callers can prune it.
type InvitationStore struct {
	kv  KV
	ttl time.Duration
}

// NewInvitationStore returns a store whose Touch and Save apply ttl.
func NewInvitationStore(kv KV, ttl time.Duration) *InvitationStore {
	return &InvitationStore{kv: kv, ttl: ttl}
}

// TTL returns the expiry applied to records and index sets.
func (s *InvitationStore) TTL() time.Duration { return s.ttl }

// Save indexes inv under both participants and writes its record.
func (s *InvitationStore) Save(ctx context.Context, inv domain.Invitation) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	var g errgroup.Group
	g.Go(func() error { return s.kv.SAdd(ctx, inv.From, inv.ID) })
	g.Go(func() error { return s.kv.SAdd(ctx, inv.To, inv.ID) })
	g.Go(func() error { return s.kv.Set(ctx, inv.ID, string(data), s.ttl) })
	return g.Wait()
}

// Delete removes inv from both participants' indexes and drops its record.
func (s *InvitationStore) Delete(ctx context.Context, inv domain.Invitation) error {
	var g errgroup.Group
	g.Go(func() error { return s.kv.SRem(ctx, inv.From, inv.ID) })
	g.Go(func() error { return s.kv.SRem(ctx, inv.To, inv.ID) })
	g.Go(func() error { return s.kv.Del(ctx, inv.ID) })
	return g.Wait()
}

// Get loads one invitation, or returns ErrNotFound.
func (s *InvitationStore) Get(ctx context.Context, id string) (*domain.Invitation, error) {
	raw, ok, err := s.kv.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return decodeInvitation(id, raw)
}

// ForUsername returns the invitations username participates in, together
// with the ids whose records no longer exist (expired or deleted).
func (s *InvitationStore) ForUsername(ctx context.Context, username string) ([]domain.Invitation, []string, error) {
	ids, err := s.kv.SMembers(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return []domain.Invitation{}, nil, nil
	}
	raws, err := s.kv.MGet(ctx, ids...)
	if err != nil {
		return nil, nil, err
	}

	list := make([]domain.Invitation, 0, len(ids))
	var stale []string
	for i, raw := range raws {
		if raw == nil {
			stale = append(stale, ids[i])
			continue
		}
		inv, err := decodeInvitation(ids[i], *raw)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, *inv)
	}
	return list, stale, nil
}

// Prune removes ids from username's index.
func (s *InvitationStore) Prune(ctx context.Context, username string, ids ...string) error {
	return s.kv.SRem(ctx, username, ids...)
}

// Touch refreshes the expiry of each key. Every key is attempted.
func (s *InvitationStore) Touch(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.kv.Expire(ctx, k, s.ttl); err != nil {
			errs = append(errs, fmt.Errorf("expire %q: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Ban arms the refusal cool-down for an invitation identity.
func (s *InvitationStore) Ban(ctx context.Context, id string, d time.Duration) error {
	return s.kv.Set(ctx, BanKey(id), "1", d)
}

// IsBanned reports whether the cool-down for an invitation identity is active.
func (s *InvitationStore) IsBanned(ctx context.Context, id string) (bool, error) {
	v, ok, err := s.kv.Get(ctx, BanKey(id))
	if err != nil {
		return false, err
	}
	return ok && v != "", nil
}

func decodeInvitation(id, raw string) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := json.Unmarshal([]byte(raw), &inv); err != nil {
		return nil, fmt.Errorf("decode invitation %q: %w", id, err)
	}
	if inv.ID == "" {
		inv.ID = id
	}
	return &inv, nil
}
