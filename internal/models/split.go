package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitMode is how an expense amount is divided among participants.
type SplitMode string

const (
	// SplitEqual divides the amount evenly across Split.Participants.
	SplitEqual SplitMode = "equal"
	// SplitCustom assigns each participant an explicit share.
	SplitCustom SplitMode = "custom"
)

// Share is one participant's explicit portion of a custom split.
type Share struct {
	MemberID ParticipantID   `json:"memberId"`
	Amount   decimal.Decimal `json:"amount"`
}

// Split describes who shares an expense.
// Participants is used in equal mode, Shares in custom mode.
type Split struct {
	Mode         SplitMode
	Participants []ParticipantID
	Shares       []Share
}

// EqualSplit divides an expense evenly across ids.
func EqualSplit(ids ...ParticipantID) Split {
	return Split{Mode: SplitEqual, Participants: ids}
}

// CustomSplit assigns explicit shares.
func CustomSplit(shares ...Share) Split {
	return Split{Mode: SplitCustom, Shares: shares}
}

// ParticipantIDs returns every participant of the split in order.
func (s Split) ParticipantIDs() []ParticipantID {
	if s.Mode == SplitCustom {
		ids := make([]ParticipantID, len(s.Shares))
		for i, share := range s.Shares {
			ids[i] = share.MemberID
		}
		return ids
	}
	return append([]ParticipantID(nil), s.Participants...)
}

// Len returns the number of participants in the split.
func (s Split) Len() int {
	if s.Mode == SplitCustom {
		return len(s.Shares)
	}
	return len(s.Participants)
}

// Equal compares two splits structurally. Share amounts are compared by
// value, so 60 and 60.00 are equal.
func (s Split) Equal(other Split) bool {
	if s.Mode != other.Mode {
		return false
	}
	if s.Mode == SplitCustom {
		if len(s.Shares) != len(other.Shares) {
			return false
		}
		for i := range s.Shares {
			if s.Shares[i].MemberID != other.Shares[i].MemberID ||
				!s.Shares[i].Amount.Equal(other.Shares[i].Amount) {
				return false
			}
		}
		return true
	}
	if len(s.Participants) != len(other.Participants) {
		return false
	}
	for i := range s.Participants {
		if s.Participants[i] != other.Participants[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no backing arrays with s.
func (s Split) Clone() Split {
	out := Split{Mode: s.Mode}
	if s.Participants != nil {
		out.Participants = append([]ParticipantID(nil), s.Participants...)
	}
	if s.Shares != nil {
		out.Shares = append([]Share(nil), s.Shares...)
	}
	return out
}

// Replace returns a copy of the split with every reference to from rewritten
// to to.
func (s Split) Replace(from, to ParticipantID) Split {
	out := s.Clone()
	for i := range out.Participants {
		if out.Participants[i] == from {
			out.Participants[i] = to
		}
	}
	for i := range out.Shares {
		if out.Shares[i].MemberID == from {
			out.Shares[i].MemberID = to
		}
	}
	return out
}

// MarshalJSON encodes the split as the stored splitBy array: a list of
// identifiers in equal mode, a list of {memberId, amount} in custom mode.
func (s Split) MarshalJSON() ([]byte, error) {
	if s.Mode == SplitCustom {
		shares := s.Shares
		if shares == nil {
			shares = []Share{}
		}
		return json.Marshal(shares)
	}
	ids := s.Participants
	if ids == nil {
		ids = []ParticipantID{}
	}
	return json.Marshal(ids)
}

// decodeSplit decodes a splitBy array. When mode is empty the shape of the
// first element decides, which is how documents written before splitMode
// existed are read.
func decodeSplit(mode SplitMode, raw json.RawMessage) (Split, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if mode == "" {
			mode = SplitEqual
		}
		return Split{Mode: mode}, nil
	}

	if mode == "" {
		mode = sniffSplitMode(raw)
	}

	switch mode {
	case SplitEqual:
		var ids []ParticipantID
		if err := json.Unmarshal(raw, &ids); err != nil {
			return Split{}, fmt.Errorf("failed to decode equal split: %w", err)
		}
		return EqualSplit(ids...), nil
	case SplitCustom:
		var shares []Share
		if err := json.Unmarshal(raw, &shares); err != nil {
			return Split{}, fmt.Errorf("failed to decode custom split: %w", err)
		}
		return CustomSplit(shares...), nil
	default:
		return Split{}, fmt.Errorf("unknown split mode %q", mode)
	}
}

func sniffSplitMode(raw json.RawMessage) SplitMode {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
		return SplitEqual
	}
	first := bytes.TrimSpace(elems[0])
	if len(first) > 0 && first[0] == '{' {
		return SplitCustom
	}
	return SplitEqual
}
