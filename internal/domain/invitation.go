// Package domain defines the core types of the invitations service: the
// Invitation entity and its deterministic identity, the authenticated user,
// notification payloads, and the row models backing the SQLite key-value
// emulation. These types are shared across the repository, service, and HTTP
// layers.
package domain

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"slices"
	"unicode/utf16"
)

// Invitation is a proposal from one username to another to join an activity.
//
// Fields:
//   - ID: derived from (Type, {From, To}); see InvitationID.
//   - From: username of the sender.
//   - To: username of the recipient.
//   - GameID: opaque activity/session identifier.
//   - Type: invitation category (e.g. "triominos/v1").
//
// The JSON form is also the persisted record, so field names are stable.
type Invitation struct {
	ID     string `json:"id"     example:"6a9e4c3b0d1f2e8a7b5c4d3e2f1a0b9c"`
	From   string `json:"from"   example:"alice"`
	To     string `json:"to"     example:"bob"`
	GameID string `json:"gameId" example:"0123456789abcdef012345"`
	Type   string `json:"type"   example:"triominos/v1"`
}

// NewInvitation builds a candidate invitation sent by from and derives its ID.
// The result may be invalid; callers check Valid.
func NewInvitation(from, to, gameID, typ string) Invitation {
	return Invitation{
		ID:     InvitationID(typ, from, to),
		From:   from,
		To:     to,
		GameID: gameID,
		Type:   typ,
	}
}

// Valid reports whether every field is non-empty.
func (inv Invitation) Valid() bool {
	return inv.ID != "" && inv.From != "" && inv.To != "" && inv.GameID != "" && inv.Type != ""
}

// HasParticipant reports whether username is the sender or the recipient.
func (inv Invitation) HasParticipant(username string) bool {
	return username != "" && (username == inv.From || username == inv.To)
}

// identityKey is the structured form hashed by InvitationID. Field order
// matters: it must serialize as {"type":...,"users":[...]}.
type identityKey struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

// InvitationID returns the 32-char lowercase hex MD5 of
// {"type":typ,"users":[sorted a, b]}. It is symmetric in a and b, and the
// JSON array keeps ("a-b","c") and ("a","b-c") apart.
//
// Ids are shared with records written by the JavaScript service, so the
// users sort by UTF-16 code units and U+2028/U+2029 are hashed unescaped,
// as JSON.stringify emits them.
func InvitationID(typ, a, b string) string {
	users := []string{a, b}
	if utf16Less(b, a) {
		users[0], users[1] = b, a
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(identityKey{Type: typ, Users: users})

	sum := md5.Sum(rawLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))))
	return hex.EncodeToString(sum[:])
}

func utf16Less(a, b string) bool {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b))) < 0
}

// rawLineSeparators turns the \u2028 and \u2029 escapes encoding/json always
// writes back into the raw characters. Escaped backslashes are skipped so a
// literal `\u2028` in a username survives.
func rawLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' {
			out = append(out, b[i])
			continue
		}
		if i+5 < len(b) && b[i+1] == 'u' && string(b[i+2:i+5]) == "202" && (b[i+5] == '8' || b[i+5] == '9') {
			if b[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, b[i])
		if i+1 < len(b) {
			i++
			out = append(out, b[i])
		}
	}
	return out
}
