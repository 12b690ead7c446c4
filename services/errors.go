package services

import "errors"

// Sentinel errors handlers translate to HTTP status codes. Anything not
// wrapping one of these is a storage failure and maps to 500.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInsufficientSeeds  = errors.New("not enough seeds")
	ErrSelfFriendship     = errors.New("cannot add yourself as a friend")
)
