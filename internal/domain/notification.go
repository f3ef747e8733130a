package domain

// Notification types emitted by the invitations service.
const (
	NotificationInvitationCreated = "invitation-created"
	NotificationInvitationDeleted = "invitation-deleted"
)

// Localization keys used in push payloads.
const (
	PushTitleInvitationReceived   = "invitation_received_title"
	PushMessageInvitationReceived = "invitation_received_message"
	PushArgTypeDirectoryName      = "directory:name"
)

// Notification is the payload handed to the notifications service.
type Notification struct {
	Secret string           `json:"secret,omitempty"`
	From   string           `json:"from"`
	To     string           `json:"to"`
	Type   string           `json:"type"`
	Data   NotificationData `json:"data"`
	Push   *Push            `json:"push,omitempty"`
}

// NotificationData carries the invitation and, on deletion, the reason.
type NotificationData struct {
	Invitation Invitation `json:"invitation"`
	Reason     Reason     `json:"reason,omitempty"`
}

// Push describes the mobile push rendering of a notification.
type Push struct {
	App              string   `json:"app"`
	Title            []string `json:"title"`
	Message          []string `json:"message"`
	MessageArgsTypes []string `json:"messageArgsTypes"`
}

// InvitationCreated builds the notification sent to the recipient of inv.
func InvitationCreated(service string, inv Invitation) Notification {
	return Notification{
		From: service,
		To:   inv.To,
		Type: NotificationInvitationCreated,
		Data: NotificationData{Invitation: inv},
		Push: &Push{
			App:              inv.Type,
			Title:            []string{PushTitleInvitationReceived},
			Message:          []string{PushMessageInvitationReceived, inv.From},
			MessageArgsTypes: []string{PushArgTypeDirectoryName},
		},
	}
}

// InvitationDeleted builds the notification for the other side of a deletion:
// the recipient when the sender cancelled, the sender otherwise.
func InvitationDeleted(service string, inv Invitation, reason Reason) Notification {
	to := inv.From
	if reason == ReasonCancel {
		to = inv.To
	}
	return Notification{
		From: service,
		To:   to,
		Type: NotificationInvitationDeleted,
		Data: NotificationData{Invitation: inv, Reason: reason},
	}
}
