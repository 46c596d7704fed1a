// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - Group: a group document with active members, pending email invitees and
//     the full expense history
//   - Expense: a single expense (or settlement record) with its Split
//   - Split: how an expense is divided, either equally or by explicit shares
//   - ParticipantID: a member ID or a pending email placeholder
//   - User: a registered account, used for display-name resolution
//
// # Participant identifiers
//
// Participants are referenced by ParticipantID, a tagged union of a stable
// member ID and an email placeholder for people who were invited but have not
// registered yet. Legacy documents store both as plain strings; the
// "contains @" rule that tells them apart is applied only by
// ParseParticipantID and the JSON decoders.
//
// # Design Principles
//
//  1. Expenses reference participants by ID, never by pointer
//  2. Expense.Timestamp is the stable key for edit and delete
//  3. Derived data (balances, suggestions) is never stored on these types
package models
