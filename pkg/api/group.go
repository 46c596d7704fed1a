package api

import "github.com/shopspring/decimal"

// Member roles reported by ListMembers.
const (
	RoleAdmin   = "admin"
	RoleMember  = "member"
	RolePending = "pending"
)

type Group struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Members        []string        `json:"members"`
	PendingMembers []string        `json:"pendingMembers"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      int64           `json:"createdAt"`
	ExpenseCount   int             `json:"expenseCount"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
}

type Member struct {
	// ID is the member ID, or the email of a pending invitee.
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
	// MemberEmails are added like AddMember: registered users join,
	// everyone else is invited.
	MemberEmails []string `json:"memberEmails,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type RenameGroupRequest struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

type RenameGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
	// Pending is true when the email had no account and was invited.
	Pending bool `json:"pending"`
}

type RemoveMemberRequest struct {
	GroupID  string `json:"groupId"`
	MemberID string `json:"memberId"`
}

type RemoveMemberResponse struct{}

type RemovePendingMemberRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email"`
}

type RemovePendingMemberResponse struct{}

type ListMembersRequest struct {
	GroupID string `json:"groupId"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}
