package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// maxMutationAttempts bounds the read-modify-write retries of one mutation.
const maxMutationAttempts = 5

// errUnchanged tells mutate the document needs no write.
var errUnchanged = errors.New("unchanged")

const groupColumns = `id, name, created_by, created_at, members, pending_members, expenses, version`

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanGroup(row rowScanner) (*models.Group, error) {
	var (
		group                      models.Group
		members, pending, expenses string
	)
	if err := row.Scan(
		&group.ID,
		&group.Name,
		&group.CreatedBy,
		&group.CreatedAt,
		&members,
		&pending,
		&expenses,
		&group.Version,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(members), &group.Members); err != nil {
		return nil, fmt.Errorf("failed to decode members of group %s: %w", group.ID, err)
	}
	if err := json.Unmarshal([]byte(pending), &group.PendingMembers); err != nil {
		return nil, fmt.Errorf("failed to decode pending members of group %s: %w", group.ID, err)
	}
	if err := json.Unmarshal([]byte(expenses), &group.Expenses); err != nil {
		return nil, fmt.Errorf("failed to decode expenses of group %s: %w", group.ID, err)
	}
	return &group, nil
}

// encodeArray writes a JSON array, never null.
func encodeArray[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type encodedGroup struct {
	members, pending, expenses string
}

func encodeGroup(group *models.Group) (encodedGroup, error) {
	var (
		enc encodedGroup
		err error
	)
	if enc.members, err = encodeArray(group.Members); err != nil {
		return enc, fmt.Errorf("failed to encode members: %w", err)
	}
	if enc.pending, err = encodeArray(group.PendingMembers); err != nil {
		return enc, fmt.Errorf("failed to encode pending members: %w", err)
	}
	if enc.expenses, err = encodeArray(group.Expenses); err != nil {
		return enc, fmt.Errorf("failed to encode expenses: %w", err)
	}
	return enc, nil
}

// CreateGroup persists a new group document.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	group.Version = 1

	enc, err := encodeGroup(group)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_by, created_at, members, pending_members, expenses, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.CreatedBy, group.CreatedAt,
		enc.members, enc.pending, enc.expenses, group.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: group %s", storage.ErrAlreadyExists, group.ID)
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group document by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

func getGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group, err := scanGroup(q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, groupID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroupsByMember returns every group that lists memberID as an active
// member, oldest first.
func (s *SQLiteStore) ListGroupsByMember(ctx context.Context, memberID string) ([]*models.Group, error) {
	return s.listGroups(ctx,
		`SELECT `+groupColumns+` FROM groups
		 WHERE EXISTS (SELECT 1 FROM json_each(groups.members) WHERE json_each.value = ?)
		 ORDER BY created_at, id`,
		memberID,
	)
}

// ListGroupsByPendingEmail returns every group that has invited email.
func (s *SQLiteStore) ListGroupsByPendingEmail(ctx context.Context, email string) ([]*models.Group, error) {
	return s.listGroups(ctx,
		`SELECT `+groupColumns+` FROM groups
		 WHERE EXISTS (SELECT 1 FROM json_each(groups.pending_members) WHERE json_each.value = ?)
		 ORDER BY created_at, id`,
		email,
	)
}

func (s *SQLiteStore) listGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup removes a group document.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
	}
	return nil
}

// mutate applies fn to a fresh copy of the group and writes it back only if
// the stored version is still the one that was read. On a mismatch the whole
// read-modify-write is retried. fn may run more than once and must derive
// everything it writes from the group it is given.
func (s *SQLiteStore) mutate(ctx context.Context, groupID string, fn func(group *models.Group) error) (*models.Group, error) {
	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		group, written, err := s.tryMutate(ctx, groupID, fn)
		if err != nil {
			return nil, err
		}
		if written {
			return group, nil
		}

		slog.Debug("Group version conflict, retrying",
			"group_id", groupID,
			"attempt", attempt,
		)
	}
	return nil, fmt.Errorf("%w: group %s", storage.ErrConflict, groupID)
}

func (s *SQLiteStore) tryMutate(ctx context.Context, groupID string, fn func(group *models.Group) error) (*models.Group, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, false, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errUnchanged) {
			return current, true, nil
		}
		return nil, false, err
	}

	swapped, err := compareAndSwap(ctx, tx, next, current.Version)
	if err != nil || !swapped {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	next.Version = current.Version + 1
	return next, true, nil
}

func compareAndSwap(ctx context.Context, q querier, group *models.Group, version int64) (bool, error) {
	enc, err := encodeGroup(group)
	if err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE groups
		 SET name = ?, members = ?, pending_members = ?, expenses = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		group.Name, enc.members, enc.pending, enc.expenses, group.ID, version,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update group: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}
	return n == 1, nil
}

// RenameGroup changes a group's display name.
func (s *SQLiteStore) RenameGroup(ctx context.Context, groupID, name string) (*models.Group, error) {
	return s.mutate(ctx, groupID, func(group *models.Group) error {
		if group.Name == name {
			return errUnchanged
		}
		group.Name = name
		return nil
	})
}

// AddMembers adds active members. It fails with storage.ErrAlreadyMember
// only when every ID was already present.
func (s *SQLiteStore) AddMembers(ctx context.Context, groupID string, memberIDs ...string) (*models.Group, error) {
	return s.mutate(ctx, groupID, func(group *models.Group) error {
		added := 0
		for _, raw := range memberIDs {
			id := models.MemberID(raw)
			if id.IsZero() || group.IsMember(id) {
				continue
			}
			group.Members = append(group.Members, id)
			added++
		}
		if added == 0 {
			return storage.ErrAlreadyMember
		}
		return nil
	})
}

// RemoveMember drops an active member. Expenses that reference them are
// kept, so their history still counts towards balances.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, memberID string) (*models.Group, error) {
	id := models.MemberID(memberID)
	return s.mutate(ctx, groupID, func(group *models.Group) error {
		if !group.IsMember(id) {
			return fmt.Errorf("%w: member %s", storage.ErrNotFound, memberID)
		}
		group.Members = without(group.Members, id)
		return nil
	})
}

// AddPendingMembers invites emails. It fails with storage.ErrAlreadyMember
// only when every email was already pending.
func (s *SQLiteStore) AddPendingMembers(ctx context.Context, groupID string, emails ...string) (*models.Group, error) {
	return s.mutate(ctx, groupID, func(group *models.Group) error {
		added := 0
		for _, email := range emails {
			id := models.PendingEmail(email)
			if id.IsZero() || group.IsPending(id) {
				continue
			}
			group.PendingMembers = append(group.PendingMembers, id)
			added++
		}
		if added == 0 {
			return storage.ErrAlreadyMember
		}
		return nil
	})
}

// RemovePendingMember withdraws an invitation.
func (s *SQLiteStore) RemovePendingMember(ctx context.Context, groupID, email string) (*models.Group, error) {
	id := models.PendingEmail(email)
	return s.mutate(ctx, groupID, func(group *models.Group) error {
		if !group.IsPending(id) {
			return fmt.Errorf("%w: pending member %s", storage.ErrNotFound, email)
		}
		group.PendingMembers = without(group.PendingMembers, id)
		return nil
	})
}

// AddExpense appends expense to the group's history. On success expense
// carries the assigned ID, Timestamp and CreatedAt.
func (s *SQLiteStore) AddExpense(ctx context.Context, groupID string, expense *models.Expense) (*models.Group, error) {
	var added models.Expense
	group, err := s.mutate(ctx, groupID, func(group *models.Group) error {
		added = *expense
		added.Split = expense.Split.Clone()
		if added.ID == "" {
			added.ID = uuid.New().String()
		}
		now := time.Now()
		if added.CreatedAt.IsZero() {
			added.CreatedAt = now
		}
		if added.Date.IsZero() {
			added.Date = now
		}
		added.Timestamp = group.NextTimestamp(now.UnixMilli())
		group.Expenses = append(group.Expenses, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	*expense = added
	return group, nil
}

// ReplaceExpense swaps the record identified by timestamp for expense,
// keeping the original ID, Timestamp and CreatedAt.
func (s *SQLiteStore) ReplaceExpense(ctx context.Context, groupID string, timestamp int64, expense *models.Expense) (*models.Group, error) {
	var replaced models.Expense
	group, err := s.mutate(ctx, groupID, func(group *models.Group) error {
		idx := group.FindExpense(timestamp)
		if idx < 0 {
			return fmt.Errorf("%w: timestamp %d", storage.ErrExpenseNotFound, timestamp)
		}
		original := group.Expenses[idx]

		replaced = *expense
		replaced.Split = expense.Split.Clone()
		replaced.ID = original.ID
		replaced.Timestamp = original.Timestamp
		replaced.CreatedAt = original.CreatedAt
		if replaced.Date.IsZero() {
			replaced.Date = original.Date
		}
		group.Expenses[idx] = replaced
		return nil
	})
	if err != nil {
		return nil, err
	}
	*expense = replaced
	return group, nil
}

// RemoveExpense deletes the record whose Timestamp equals timestamp.
func (s *SQLiteStore) RemoveExpense(ctx context.Context, groupID string, timestamp int64) (*models.Group, error) {
	return s.mutate(ctx, groupID, func(group *models.Group) error {
		idx := group.FindExpense(timestamp)
		if idx < 0 {
			return fmt.Errorf("%w: timestamp %d", storage.ErrExpenseNotFound, timestamp)
		}
		group.Expenses = append(group.Expenses[:idx], group.Expenses[idx+1:]...)
		return nil
	})
}

// ClearExpenses empties the group's expense history.
func (s *SQLiteStore) ClearExpenses(ctx context.Context, groupID string) (*models.Group, error) {
	return s.mutate(ctx, groupID, func(group *models.Group) error {
		if len(group.Expenses) == 0 {
			return errUnchanged
		}
		group.Expenses = nil
		return nil
	})
}

// MigratePendingMember rewrites every reference to email as memberID inside
// one atomic update.
func (s *SQLiteStore) MigratePendingMember(ctx context.Context, groupID, email, memberID string) (bool, error) {
	changed := false
	_, err := s.mutate(ctx, groupID, func(group *models.Group) error {
		migrated, ok := group.MigrateParticipant(models.PendingEmail(email), models.MemberID(memberID))
		changed = ok
		if !ok {
			return errUnchanged
		}
		*group = *migrated
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func without(ids []models.ParticipantID, id models.ParticipantID) []models.ParticipantID {
	out := make([]models.ParticipantID, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
