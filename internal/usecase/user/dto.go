package user

import (
	"time"

	domain "users-api/internal/domain/user"
)

// CreateUserRequest represents the request payload for creating a new user.
// Only presence is checked; length and uniqueness are enforced by the database.
type CreateUserRequest struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// UpdateUserRequest represents a partial update. Nil fields keep their stored value.
type UpdateUserRequest struct {
	ID    int64
	Name  *string
	Email *string
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

func fromDomain(u *domain.User) *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
