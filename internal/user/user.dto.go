package user

import "ecoQuestAPI/internal/progress"

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type UpdateProfileRequest struct {
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type AddFriendRequest struct {
	FriendID string `json:"friendId"`
}

// ProfileResponse is what GET /user returns: the account plus its
// gamification state, refreshed on every fetch.
type ProfileResponse struct {
	User     *User                  `json:"user"`
	Progress *progress.UserProgress `json:"progress"`
}
