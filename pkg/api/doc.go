// Package api defines the RPC surface of splitledger: request and response
// messages, procedure names, the JSON codec they travel in, and typed
// clients.
//
// Messages are plain Go structs. Amounts are decimals encoded as JSON
// strings ("12.50") so no precision is lost on the wire.
//
// # Services
//
//   - AuthService: Register, Login, Logout, GetCurrentUser, UpdateProfile
//   - GroupService: CreateGroup, GetGroup, ListGroups, RenameGroup,
//     DeleteGroup, AddMember, RemoveMember, RemovePendingMember, ListMembers
//   - ExpenseService: AddExpense, UpdateExpense, DeleteExpense,
//     ClearExpenses, ListExpenses, RecordSettlement, ListSettlements
//   - BalanceService: GetGroupBalances, GetSummary
//
// Every procedure except Register and Login expects an
// "Authorization: Bearer <token>" header.
package api
