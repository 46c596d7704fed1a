package api

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
	// MigratedGroups is how many groups had invited the email and now list
	// the new account as a member.
	MigratedGroups int `json:"migratedGroups"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

// ChangePasswordRequest replaces the caller's password. NewPassword and
// ConfirmPassword must match.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangePasswordResponse struct{}

// UpdateProfileResponse carries a fresh token because the old one holds the
// previous display name.
type UpdateProfileResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
