package models

import (
	"time"
)

// User maps the users table after the contact-field migration. The table is
// created and evolved by the migrations package, not by AutoMigrate.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  *string   `gorm:"type:varchar(100)" json:"username"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Name      *string   `gorm:"type:varchar(100)" json:"name"`
	Password  string    `json:"-"`
	Role      string    `gorm:"type:varchar(32)" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserResponse represents the user data returned in API responses
type UserResponse struct {
	ID        uint    `json:"id"`
	Username  *string `json:"username,omitempty"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// DisplayName falls back to the legacy username, then the email, when no name is set
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// ToResponse converts a User model to a UserResponse
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.DisplayName(),
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(DateTimeLayout),
		UpdatedAt: u.UpdatedAt.Format(DateTimeLayout),
	}
}
