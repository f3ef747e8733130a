package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestInvitationCreated_Payload(t *testing.T) {
	inv := NewInvitation("alice", "bob", "g1", "triominos/v1")
	n := InvitationCreated("invitations/v1", inv)

	if n.From != "invitations/v1" || n.To != "bob" || n.Type != NotificationInvitationCreated {
		t.Fatalf("unexpected header fields: %+v", n)
	}
	if n.Data.Invitation != inv || n.Data.Reason != "" {
		t.Fatalf("unexpected data: %+v", n.Data)
	}
	want := &Push{
		App:              "triominos/v1",
		Title:            []string{"invitation_received_title"},
		Message:          []string{"invitation_received_message", "alice"},
		MessageArgsTypes: []string{"directory:name"},
	}
	if !reflect.DeepEqual(n.Push, want) {
		t.Fatalf("push mismatch: %+v", n.Push)
	}
}

func TestInvitationDeleted_Recipient(t *testing.T) {
	inv := NewInvitation("alice", "bob", "g1", "t")
	cases := map[Reason]string{
		ReasonCancel: "bob",
		ReasonAccept: "alice",
		ReasonRefuse: "alice",
	}
	for reason, to := range cases {
		n := InvitationDeleted("svc", inv, reason)
		if n.To != to || n.Type != NotificationInvitationDeleted || n.Data.Reason != reason || n.Push != nil {
			t.Fatalf("reason %q: unexpected notification %+v", reason, n)
		}
	}
}

func TestNotification_JSONShape(t *testing.T) {
	n := InvitationDeleted("svc", NewInvitation("alice", "bob", "g1", "t"), ReasonRefuse)
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["push"]; ok {
		t.Fatalf("deleted notification must not carry push: %s", b)
	}
	if _, ok := m["secret"]; ok {
		t.Fatalf("empty secret must be omitted: %s", b)
	}
	data := m["data"].(map[string]any)
	if data["reason"] != "refuse" {
		t.Fatalf("reason missing: %s", b)
	}
}
