// Package notify delivers invitation notifications to the notifications
// service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

// MessagesPath is appended to the notifications base URL.
const MessagesPath = "/notifications/v1/messages"

// notificationsSent counts dispatch attempts by notification type and result.
var notificationsSent = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "invitations_notifications_total",
		Help: "Notifications dispatched, by type and result (ok|error).",
	},
	[]string{"type", "result"},
)

func init() {
	prometheus.MustRegister(notificationsSent)
}

// Dispatcher sends a notification.
type Dispatcher interface {
	Send(ctx context.Context, n domain.Notification) error
}

// HTTPDispatcher POSTs notifications as JSON.
type HTTPDispatcher struct {
	url    string
	secret string
	client *http.Client
}

// NewHTTPDispatcher returns a dispatcher posting to baseURL+MessagesPath.
// secret, when non-empty, is sent as the notification's secret field. A nil
// client gets a traced client with the given timeout.
func NewHTTPDispatcher(baseURL, secret string, timeout time.Duration, client *http.Client) *HTTPDispatcher {
	if client == nil {
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPDispatcher{
		url:    baseURL + MessagesPath,
		secret: secret,
		client: client,
	}
}

// Send implements Dispatcher.
func (d *HTTPDispatcher) Send(ctx context.Context, n domain.Notification) error {
	if n.Secret == "" {
		n.Secret = d.secret
	}
	l := logger(ctx).With().Str("type", n.Type).Str("to", n.To).Logger()
	l.Info().Str("invitation_id", n.Data.Invitation.ID).Msg("sending notification")

	err := d.post(ctx, n)
	if err != nil {
		notificationsSent.WithLabelValues(n.Type, "error").Inc()
		l.Error().Err(err).Msg("notification failed")
		return err
	}
	notificationsSent.WithLabelValues(n.Type, "ok").Inc()
	return nil
}

func (d *HTTPDispatcher) post(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notifications service returned %s", resp.Status)
	}
	return nil
}

// Noop drops every notification. It is used when no notifications service
// is configured.
type Noop struct{}

// Send implements Dispatcher.
func (Noop) Send(ctx context.Context, n domain.Notification) error {
	logger(ctx).Debug().Str("type", n.Type).Str("to", n.To).Msg("notifications disabled, dropping")
	return nil
}

func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
