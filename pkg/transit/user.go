package transit

import (
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleDriver    UserRole = "DRIVER"
	UserRolePassenger UserRole = "PASSENGER"
	UserRoleAdmin     UserRole = "ADMIN"
)

func ParseUserRole(role string) UserRole {
	return UserRole(strings.ToUpper(strings.TrimSpace(role)))
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && ParseUserRole(string(u.Role)) == UserRoleAdmin
}

type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User   User       `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

type ProfileUpdate struct {
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}
