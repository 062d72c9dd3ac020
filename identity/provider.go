package identity

import (
	"context"
	"errors"
)

// Author is the public slice of an identity-provider user attached to
// posts and comments at read time. It is never persisted locally.
type Author struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"fullname"`
	ProfileImageURL string `json:"profile_image_url"`
}

// ErrUserNotFound is returned when a lookup matches no provider user.
var ErrUserNotFound = errors.New("identity: user not found")

// MaxBatchSize is the largest id batch the provider accepts per call.
const MaxBatchSize = 100

// Provider resolves user profiles from the hosted identity service.
type Provider interface {
	// GetUsers fetches profiles for the given user ids in one batched call.
	// Ids absent on the provider side are silently omitted from the result;
	// callers decide whether that is an error.
	GetUsers(ctx context.Context, ids []string) ([]Author, error)

	// GetUserByUsername fetches a single profile by username.
	// Returns ErrUserNotFound when no user matches.
	GetUserByUsername(ctx context.Context, username string) (*Author, error)
}
