// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a group or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExpenseNotFound is returned when no expense has the given timestamp.
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrConflict is returned when a group kept changing underneath a
	// mutation and the retries ran out.
	ErrConflict = errors.New("group was modified concurrently")
	// ErrAlreadyMember is returned when adding an identifier that is already
	// an active or pending member.
	ErrAlreadyMember = errors.New("already a member")
	// ErrAlreadyExists is returned when a unique key is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// GroupStore persists group documents. Every mutation is applied atomically
// to one group; readers see either the old or the new document.
type GroupStore interface {
	// CreateGroup persists a new group. ID and CreatedAt are filled in when
	// empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns a snapshot of one group document.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember returns every group whose members include memberID.
	ListGroupsByMember(ctx context.Context, memberID string) ([]*models.Group, error)

	// ListGroupsByPendingEmail returns every group that has invited email.
	ListGroupsByPendingEmail(ctx context.Context, email string) ([]*models.Group, error)

	RenameGroup(ctx context.Context, groupID, name string) (*models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMembers adds active members, skipping ones already present. An
	// added ID is removed from the pending list if it was there.
	AddMembers(ctx context.Context, groupID string, memberIDs ...string) (*models.Group, error)
	RemoveMember(ctx context.Context, groupID, memberID string) (*models.Group, error)

	// AddPendingMembers invites emails, skipping ones already pending.
	AddPendingMembers(ctx context.Context, groupID string, emails ...string) (*models.Group, error)
	RemovePendingMember(ctx context.Context, groupID, email string) (*models.Group, error)

	// AddExpense appends an expense, assigning ID and a Timestamp that is
	// unique within the group.
	AddExpense(ctx context.Context, groupID string, expense *models.Expense) (*models.Group, error)

	// ReplaceExpense swaps the record whose Timestamp equals timestamp for
	// expense. The original Timestamp and ID are kept.
	ReplaceExpense(ctx context.Context, groupID string, timestamp int64, expense *models.Expense) (*models.Group, error)

	// RemoveExpense deletes the record whose Timestamp equals timestamp.
	RemoveExpense(ctx context.Context, groupID string, timestamp int64) (*models.Group, error)

	// ClearExpenses replaces the expense history with an empty one.
	ClearExpenses(ctx context.Context, groupID string) (*models.Group, error)

	// ListSettlements returns the settlement records of a group, newest
	// first.
	ListSettlements(ctx context.Context, groupID string) ([]models.Expense, error)

	// MigratePendingMember rewrites every reference to email in the group to
	// memberID and moves the invitee to the active members. It reports
	// whether the document changed.
	MigratePendingMember(ctx context.Context, groupID, email, memberID string) (bool, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	UpdateDisplayName(ctx context.Context, id, displayName string) (*models.User, error)

	// UpdatePasswordHash replaces the stored bcrypt hash.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// Store is the full persistence layer.
type Store interface {
	GroupStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}
