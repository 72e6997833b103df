package domain

import (
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	FirstName    string    `json:"firstName" bson:"first_name"`
	LastName     string    `json:"lastName" bson:"last_name"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *RegisterRequest) Validate() error {
	var v ValidationError
	if r.Email == "" {
		v.Add("email", "email is required")
	} else if !isValidEmail(r.Email) {
		v.Add("email", "invalid email format")
	}
	if r.Password == "" {
		v.Add("password", "password is required")
	} else if len(r.Password) < 4 {
		v.Add("password", "password must be at least 4 characters")
	}
	if r.FirstName == "" {
		v.Add("firstName", "first name is required")
	}
	if r.LastName == "" {
		v.Add("lastName", "last name is required")
	}
	return v.OrNil()
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	var v ValidationError
	if r.Email == "" {
		v.Add("email", "email is required")
	} else if !isValidEmail(r.Email) {
		v.Add("email", "invalid email format")
	}
	if r.Password == "" {
		v.Add("password", "password is required")
	}
	return v.OrNil()
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
