package domain

// Reason explains why an invitation is being deleted.
type Reason string

const (
	// ReasonCancel is used by the sender to withdraw an invitation.
	ReasonCancel Reason = "cancel"
	// ReasonAccept is used by the recipient to accept an invitation.
	ReasonAccept Reason = "accept"
	// ReasonRefuse is used by the recipient to decline; it arms a cool-down.
	ReasonRefuse Reason = "refuse"
)

// AllowedFor reports whether a participant in the given role may delete with
// this reason: the sender may only cancel, the recipient may accept or refuse.
func (r Reason) AllowedFor(isSender, isRecipient bool) bool {
	switch r {
	case ReasonCancel:
		return isSender
	case ReasonAccept, ReasonRefuse:
		return isRecipient
	default:
		return false
	}
}
