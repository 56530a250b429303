package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID        int64     // ID is the unique identifier assigned by the database
	Name      string    // Name is the full name of the user
	Email     string    // Email is the unique email address of the user
	CreatedAt time.Time // CreatedAt is set once by the database at insertion
}

// Patch carries a partial update. A nil field keeps the stored value.
type Patch struct {
	Name  *string
	Email *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil
}
