package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

func TestHTTPDispatcher_PostsPayload(t *testing.T) {
	var (
		gotPath string
		gotCT   string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	inv := domain.NewInvitation("alice", "bob", "g1", "game/v1")
	n := domain.InvitationCreated("invitations/v1", inv)

	base := testutil.ToFloat64(notificationsSent.WithLabelValues(n.Type, "ok"))
	d := NewHTTPDispatcher(srv.URL, "s3cret", time.Second, nil)
	require.NoError(t, d.Send(context.Background(), n))

	assert.Equal(t, MessagesPath, gotPath)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "s3cret", gotBody["secret"])
	assert.Equal(t, "invitations/v1", gotBody["from"])
	assert.Equal(t, "bob", gotBody["to"])
	assert.Equal(t, domain.NotificationInvitationCreated, gotBody["type"])
	data := gotBody["data"].(map[string]any)
	assert.Equal(t, inv.ID, data["invitation"].(map[string]any)["id"])
	assert.Contains(t, gotBody, "push")
	assert.Equal(t, base+1, testutil.ToFloat64(notificationsSent.WithLabelValues(n.Type, "ok")))
}

func TestHTTPDispatcher_KeepsExplicitSecretAndOmitsEmpty(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		bodies = append(bodies, m)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	inv := domain.NewInvitation("alice", "bob", "g1", "game/v1")

	n := domain.InvitationDeleted("svc", inv, domain.ReasonAccept)
	n.Secret = "explicit"
	require.NoError(t, NewHTTPDispatcher(srv.URL, "configured", time.Second, nil).Send(context.Background(), n))
	require.NoError(t, NewHTTPDispatcher(srv.URL, "", time.Second, nil).Send(context.Background(), domain.InvitationDeleted("svc", inv, domain.ReasonAccept)))

	require.Len(t, bodies, 2)
	assert.Equal(t, "explicit", bodies[0]["secret"])
	assert.NotContains(t, bodies[1], "secret")
	assert.NotContains(t, bodies[1], "push")
}

func TestHTTPDispatcher_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := domain.InvitationDeleted("svc", domain.NewInvitation("a", "b", "g", "t"), domain.ReasonCancel)
	base := testutil.ToFloat64(notificationsSent.WithLabelValues(n.Type, "error"))

	err := NewHTTPDispatcher(srv.URL, "", time.Second, nil).Send(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, base+1, testutil.ToFloat64(notificationsSent.WithLabelValues(n.Type, "error")))
}

func TestHTTPDispatcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPDispatcher(url, "", time.Second, nil).Send(context.Background(), domain.Notification{Type: "x"})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var d Dispatcher = Noop{}
	assert.NoError(t, d.Send(context.Background(), domain.Notification{Type: "x"}))
}
