package models

// Group is a group document: its membership rolls and full expense history.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Trip").
	Name string

	// Members are the currently active member IDs.
	Members []ParticipantID

	// PendingMembers are email placeholders awaiting registration.
	// Disjoint from Members.
	PendingMembers []ParticipantID

	// Expenses is the full history, including settlement records and
	// records that reference departed members.
	Expenses []Expense

	// CreatedBy is the owner's member ID.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// Version is incremented by the store on every write.
	Version int64
}

// IsMember reports whether id is an active member.
func (g *Group) IsMember(id ParticipantID) bool {
	return ContainsParticipant(g.Members, id)
}

// IsPending reports whether id is a pending invitee.
func (g *Group) IsPending(id ParticipantID) bool {
	return ContainsParticipant(g.PendingMembers, id)
}

// IsOwner reports whether userID created the group.
func (g *Group) IsOwner(userID string) bool {
	return g.CreatedBy != "" && g.CreatedBy == userID
}

// FindExpense returns the index of the expense with the given timestamp,
// or -1.
func (g *Group) FindExpense(timestamp int64) int {
	for i := range g.Expenses {
		if g.Expenses[i].Timestamp == timestamp {
			return i
		}
	}
	return -1
}

// NextTimestamp returns a timestamp that is at least now and greater than
// every timestamp already in the group.
func (g *Group) NextTimestamp(now int64) int64 {
	next := now
	for _, e := range g.Expenses {
		if e.Timestamp >= next {
			next = e.Timestamp + 1
		}
	}
	return next
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	out := *g
	out.Members = append([]ParticipantID(nil), g.Members...)
	out.PendingMembers = append([]ParticipantID(nil), g.PendingMembers...)
	out.Expenses = make([]Expense, len(g.Expenses))
	for i, e := range g.Expenses {
		e.Split = e.Split.Clone()
		out.Expenses[i] = e
	}
	return &out
}
