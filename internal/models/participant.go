package models

import (
	"encoding/json"
	"strings"
)

// ParticipantKind tells the two identifier namespaces apart.
type ParticipantKind uint8

const (
	// KindMember is a stable member ID issued at registration.
	KindMember ParticipantKind = iota
	// KindPendingEmail is an email placeholder for an invitee who has not registered.
	KindPendingEmail
)

// String returns a lowercase name for the kind.
func (k ParticipantKind) String() string {
	if k == KindPendingEmail {
		return "pending"
	}
	return "member"
}

// ParticipantID identifies anyone who can pay for or share an expense.
// It is a comparable value and can be used as a map key.
type ParticipantID struct {
	kind  ParticipantKind
	value string
}

// MemberID returns the identifier of a registered member.
func MemberID(id string) ParticipantID {
	return ParticipantID{kind: KindMember, value: id}
}

// PendingEmail returns the placeholder identifier of an invited email.
func PendingEmail(email string) ParticipantID {
	return ParticipantID{kind: KindPendingEmail, value: email}
}

// ParseParticipantID converts a stored identifier into a ParticipantID.
// Identifiers containing "@" are email placeholders, everything else is a
// member ID.
func ParseParticipantID(raw string) ParticipantID {
	if strings.Contains(raw, "@") {
		return PendingEmail(raw)
	}
	return MemberID(raw)
}

// ParseParticipantIDs parses every identifier in raw.
func ParseParticipantIDs(raw []string) []ParticipantID {
	ids := make([]ParticipantID, len(raw))
	for i, r := range raw {
		ids[i] = ParseParticipantID(r)
	}
	return ids
}

// Kind reports which namespace the identifier belongs to.
func (p ParticipantID) Kind() ParticipantKind { return p.kind }

// IsPending reports whether p is an email placeholder.
func (p ParticipantID) IsPending() bool { return p.kind == KindPendingEmail }

// IsZero reports whether p is the empty identifier.
func (p ParticipantID) IsZero() bool { return p.value == "" }

// String returns the raw stored form of the identifier.
func (p ParticipantID) String() string { return p.value }

// MarshalJSON encodes the identifier as a plain string.
func (p ParticipantID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// UnmarshalJSON decodes a plain string identifier.
func (p *ParticipantID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParseParticipantID(raw)
	return nil
}

// ParticipantStrings returns the raw form of every identifier.
func ParticipantStrings(ids []ParticipantID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// ContainsParticipant reports whether ids contains id.
func ContainsParticipant(ids []ParticipantID, id ParticipantID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
