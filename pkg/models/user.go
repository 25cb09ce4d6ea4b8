package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a PurrPal account. PasswordHash is a bcrypt hash and is never serialized.
type User struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Email        string    `db:"email"         json:"email"`
	Username     string    `db:"username"      json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     *string   `db:"full_name"     json:"full_name"`
	Role         *string   `db:"role"          json:"role"`
	Location     *string   `db:"location"      json:"location"`
	Bio          *string   `db:"bio"           json:"bio"`
	AvatarURL    *string   `db:"avatar_url"    json:"avatar_url"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// ProfileUpdate carries the user-editable profile fields.
type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	Location *string `json:"location"`
	Bio      *string `json:"bio"`
}
