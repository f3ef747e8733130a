package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-invitations-backend/internal/domain"
	"github.com/tbourn/go-invitations-backend/internal/repo"
)

// DefaultBanDuration is the refusal cool-down used when none is configured.
const DefaultBanDuration = 6 * time.Hour

var tracer = otel.Tracer("github.com/tbourn/go-invitations-backend/internal/services")

// InvitationStore defines the persistence contract required by
// InvitationService. Get reports a missing invitation with repo.ErrNotFound.
type InvitationStore interface {
	// Save indexes inv under both participants and writes its record.
	Save(ctx context.Context, inv domain.Invitation) error
	// Delete removes inv's index entries and record.
	Delete(ctx context.Context, inv domain.Invitation) error
	// Get loads one invitation by id.
	Get(ctx context.Context, id string) (*domain.Invitation, error)
	// ForUsername returns the user's invitations and any stale index ids.
	ForUsername(ctx context.Context, username string) ([]domain.Invitation, []string, error)
	// Prune drops ids from the user's index.
	Prune(ctx context.Context, username string, ids ...string) error
	// Touch refreshes the expiry of the given keys.
	Touch(ctx context.Context, keys ...string) error
	// Ban arms the cool-down for an invitation id.
	Ban(ctx context.Context, id string, d time.Duration) error
	// IsBanned reports whether the cool-down for an invitation id is active.
	IsBanned(ctx context.Context, id string) (bool, error)
}

// BlockChecker reports whether to has blocked from.
type BlockChecker interface {
	IsBlocked(ctx context.Context, from, to string) (bool, error)
}

// Dispatcher delivers notifications.
type Dispatcher interface {
	Send(ctx context.Context, n domain.Notification) error
}

// TaskRunner runs side effects off the request path.
type TaskRunner interface {
	Go(ctx context.Context, name string, fn func(context.Context) error)
}

// CreateInput is the client-supplied part of a new invitation.
type CreateInput struct {
	To     string
	GameID string
	Type   string
}

// CreateResult is the outcome of Create. TooMany is set when the refusal
// cool-down suppressed the write; Invitation then holds the candidate that
// was not stored.
type CreateResult struct {
	Invitation domain.Invitation
	TooMany    bool
}

// InvitationService orchestrates the invitation lifecycle.
type InvitationService struct {
	// Store persists invitations.
	Store InvitationStore
	// Blocks is consulted before create; nil disables the check.
	Blocks BlockChecker
	// Notifier receives invitation-created/deleted notifications.
	Notifier Dispatcher
	// Tasks runs notifications, pruning and expiry refresh.
	Tasks TaskRunner

	// ServiceID is the "from" of every notification.
	ServiceID string
	// BanDuration is the cool-down armed by a refusal.
	BanDuration time.Duration
}

// NewInvitationService wires the engine. A nil blocks disables the block
// check; a non-positive ban falls back to DefaultBanDuration.
func NewInvitationService(store InvitationStore, blocks BlockChecker, notifier Dispatcher, tasks TaskRunner, serviceID string, ban time.Duration) *InvitationService {
	if ban <= 0 {
		ban = DefaultBanDuration
	}
	return &InvitationService{
		Store:       store,
		Blocks:      blocks,
		Notifier:    notifier,
		Tasks:       tasks,
		ServiceID:   serviceID,
		BanDuration: ban,
	}
}

// Create sends an invitation from username.
//
// Errors: ErrInvalidContent for missing fields or a participant containing
// repo.KeySeparator, ErrBlocked when the recipient blocked the sender,
// ErrInternal on store failure. An active cool-down is not an error: the
// result has TooMany set and nothing is written. A failed cool-down lookup
// lets the invitation through.
func (s *InvitationService) Create(ctx context.Context, username string, in CreateInput) (res *CreateResult, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Create", trace.WithAttributes(attribute.String("invitation.type", in.Type)))
	defer func() { endSpan(span, err) }()

	inv := domain.NewInvitation(username, in.To, in.GameID, in.Type)
	if !inv.Valid() || strings.Contains(inv.From, repo.KeySeparator) || strings.Contains(inv.To, repo.KeySeparator) {
		invitationsRejected.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidContent
	}

	if s.blocked(ctx, inv.From, inv.To) {
		invitationsRejected.WithLabelValues("blocked").Inc()
		return nil, ErrBlocked
	}

	l := logger(ctx).With().Str("invitation_id", inv.ID).Logger()

	banned, banErr := s.Store.IsBanned(ctx, inv.ID)
	if banErr != nil {
		l.Warn().Err(banErr).Msg("invitations: cool-down lookup failed, allowing")
		banned = false
	}
	if banned {
		invitationsRejected.WithLabelValues("cooldown").Inc()
		l.Info().Str("from", inv.From).Str("to", inv.To).Msg("invitations: cool-down active, not stored")
		s.touch(ctx, username)
		return &CreateResult{Invitation: inv, TooMany: true}, nil
	}

	if err := s.Store.Save(ctx, inv); err != nil {
		l.Error().Err(err).Msg("invitations: save failed")
		return nil, internal("save invitation", err)
	}
	invitationsCreated.WithLabelValues(inv.Type).Inc()

	s.notify(ctx, domain.InvitationCreated(s.ServiceID, inv))
	s.touch(ctx, inv.From, inv.To, inv.ID)
	return &CreateResult{Invitation: inv}, nil
}

// List returns the invitations username sends or receives. Ids whose
// records expired are dropped from the result and pruned in the background.
// The result is never nil.
func (s *InvitationService) List(ctx context.Context, username string) (_ []domain.Invitation, err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.List")
	defer func() { endSpan(span, err) }()

	list, stale, err := s.Store.ForUsername(ctx, username)
	if err != nil {
		logger(ctx).Error().Err(err).Str("username", username).Msg("invitations: list failed")
		return nil, internal("list invitations", err)
	}
	if list == nil {
		list = []domain.Invitation{}
	}

	span.SetAttributes(attribute.Int("invitations.count", len(list)), attribute.Int("invitations.stale", len(stale)))
	if len(stale) > 0 {
		s.Tasks.Go(ctx, "prune-stale", func(ctx context.Context) error {
			if err := s.Store.Prune(ctx, username, stale...); err != nil {
				return err
			}
			stalePruned.Add(float64(len(stale)))
			return nil
		})
	}
	s.touch(ctx, username)
	return list, nil
}

// Delete removes invitation id on behalf of username.
//
// The sender may only cancel; the recipient may accept or refuse. A refusal
// arms the cool-down for the invitation's identity.
//
// Errors: ErrNotFound, ErrInvalidContent (no reason), ErrForbidden
// (not a participant), ErrInvalidReason, ErrInternal.
func (s *InvitationService) Delete(ctx context.Context, username, id string, reason domain.Reason) (err error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Delete", trace.WithAttributes(
		attribute.String("invitation.id", id),
		attribute.String("invitation.reason", string(reason)),
	))
	defer func() { endSpan(span, err) }()

	if id == "" {
		return ErrInvalidContent
	}
	inv, err := s.Store.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		logger(ctx).Error().Err(err).Str("invitation_id", id).Msg("invitations: load failed")
		return internal("load invitation", err)
	}

	if reason == "" {
		return ErrInvalidContent
	}
	isSender, isRecipient := username == inv.From, username == inv.To
	if !inv.HasParticipant(username) {
		return ErrForbidden
	}
	if !reason.AllowedFor(isSender, isRecipient) {
		return ErrInvalidReason
	}

	l := logger(ctx).With().Str("invitation_id", inv.ID).Str("reason", string(reason)).Logger()
	if err := s.Store.Delete(ctx, *inv); err != nil {
		l.Error().Err(err).Msg("invitations: delete failed")
		return internal("delete invitation", err)
	}
	invitationsDeleted.WithLabelValues(string(reason)).Inc()

	if reason == domain.ReasonRefuse {
		l.Info().Str("from", inv.From).Str("to", inv.To).Msg("invitations: refused, cool-down armed")
		if err := s.Store.Ban(ctx, inv.ID, s.BanDuration); err != nil {
			l.Error().Err(err).Msg("invitations: arming cool-down failed")
		}
	}

	s.notify(ctx, domain.InvitationDeleted(s.ServiceID, *inv, reason))
	s.touch(ctx, username)
	return nil
}

// blocked runs the block check. It fails open on lookup errors.
func (s *InvitationService) blocked(ctx context.Context, from, to string) bool {
	if s.Blocks == nil || from == "" || to == "" {
		return false
	}
	blocked, err := s.Blocks.IsBlocked(ctx, from, to)
	if err != nil {
		logger(ctx).Warn().Err(err).Str("to", to).Msg("invitations: block lookup failed, allowing")
		return false
	}
	return blocked
}

func (s *InvitationService) notify(ctx context.Context, n domain.Notification) {
	if s.Notifier == nil {
		return
	}
	s.Tasks.Go(ctx, "notify", func(ctx context.Context) error {
		return s.Notifier.Send(ctx, n)
	})
}

func (s *InvitationService) touch(ctx context.Context, keys ...string) {
	s.Tasks.Go(ctx, "touch", func(ctx context.Context) error {
		return s.Store.Touch(ctx, keys...)
	})
}

// endSpan marks span failed for internal errors only; client errors are
// expected outcomes.
func endSpan(span trace.Span, err error) {
	if errors.Is(err, ErrInternal) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal")
	}
	span.End()
}

// logger returns the request-scoped logger when one is attached to ctx.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
