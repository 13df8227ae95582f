package models

import "time"

// User is the persisted account row. PasswordHash is a PHC-encoded argon2id
// string and must never leave the server.
type User struct {
	ID           string
	Email        string
	Username     string
	FirstName    *string
	LastName     *string
	PasswordHash string
	Confirmed    bool
	Blocked      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile is the public projection of a User returned by the API.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile strips credential material from u.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ProfileUpdate carries a partial profile change; nil fields stay unchanged.
type ProfileUpdate struct {
	Username  *string `json:"username" binding:"omitempty,min=3"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// Empty reports whether the update would change nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Username == nil && p.FirstName == nil && p.LastName == nil
}
