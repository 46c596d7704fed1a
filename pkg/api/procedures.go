package api

const (
	AuthServiceName    = "splitledger.v1.AuthService"
	GroupServiceName   = "splitledger.v1.GroupService"
	ExpenseServiceName = "splitledger.v1.ExpenseService"
	BalanceServiceName = "splitledger.v1.BalanceService"
)

// AuthService procedures.
const (
	AuthRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthLogoutProcedure         = "/" + AuthServiceName + "/Logout"
	AuthGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
	AuthUpdateProfileProcedure  = "/" + AuthServiceName + "/UpdateProfile"
	AuthChangePasswordProcedure = "/" + AuthServiceName + "/ChangePassword"
)

// GroupService procedures.
const (
	GroupCreateProcedure              = "/" + GroupServiceName + "/CreateGroup"
	GroupGetProcedure                 = "/" + GroupServiceName + "/GetGroup"
	GroupListProcedure                = "/" + GroupServiceName + "/ListGroups"
	GroupRenameProcedure              = "/" + GroupServiceName + "/RenameGroup"
	GroupDeleteProcedure              = "/" + GroupServiceName + "/DeleteGroup"
	GroupAddMemberProcedure           = "/" + GroupServiceName + "/AddMember"
	GroupRemoveMemberProcedure        = "/" + GroupServiceName + "/RemoveMember"
	GroupRemovePendingMemberProcedure = "/" + GroupServiceName + "/RemovePendingMember"
	GroupListMembersProcedure         = "/" + GroupServiceName + "/ListMembers"
)

// ExpenseService procedures.
const (
	ExpenseAddProcedure              = "/" + ExpenseServiceName + "/AddExpense"
	ExpenseUpdateProcedure           = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseDeleteProcedure           = "/" + ExpenseServiceName + "/DeleteExpense"
	ExpenseClearProcedure            = "/" + ExpenseServiceName + "/ClearExpenses"
	ExpenseListProcedure             = "/" + ExpenseServiceName + "/ListExpenses"
	ExpenseRecordSettlementProcedure = "/" + ExpenseServiceName + "/RecordSettlement"
	ExpenseListSettlementsProcedure  = "/" + ExpenseServiceName + "/ListSettlements"
)

// BalanceService procedures.
const (
	BalanceGetGroupBalancesProcedure = "/" + BalanceServiceName + "/GetGroupBalances"
	BalanceGetSummaryProcedure       = "/" + BalanceServiceName + "/GetSummary"
)
