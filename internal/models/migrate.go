package models

// MigrateParticipant returns a copy of the group with every reference to from
// rewritten to to. When from is a pending invitee it is dropped from
// PendingMembers and to joins Members. The bool reports whether anything
// changed, so applying the same migration twice is a detectable no-op.
func (g *Group) MigrateParticipant(from, to ParticipantID) (*Group, bool) {
	out := g.Clone()
	if from == to || from.IsZero() || to.IsZero() {
		return out, false
	}

	changed := false
	for i, e := range out.Expenses {
		rewritten := e.ReplaceParticipant(from, to)
		if !rewritten.Equal(e) {
			out.Expenses[i] = rewritten
			changed = true
		}
	}

	if out.IsPending(from) {
		out.PendingMembers = removeParticipant(out.PendingMembers, from)
		if !out.IsMember(to) {
			out.Members = append(out.Members, to)
		}
		changed = true
	}

	return out, changed
}

func removeParticipant(ids []ParticipantID, id ParticipantID) []ParticipantID {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
