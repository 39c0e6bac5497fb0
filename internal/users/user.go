package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	ProfileImage string    `json:"profileImage"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sanitized returns a copy safe to hand out of the credential store.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

// Profile is the minimal view returned after register/login.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (u *User) Profile() Profile {
	return Profile{
		Name:   u.Name,
		Avatar: u.Avatar,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
