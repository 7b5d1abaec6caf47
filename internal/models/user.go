package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "restaurant_owner"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk" json:"id"`
	LoginID      string    `bun:"login_id,unique,notnull" json:"userId"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	Name         string    `bun:"name,notnull" json:"name"`
	Phone        string    `bun:"phone" json:"phone,omitempty"`
	Role         Role      `bun:"role,notnull" json:"role"`
	VenueID      *int64    `bun:"venue_id" json:"restaurantId,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type SignupRequest struct {
	LoginID  string `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type OwnerSignupRequest struct {
	SignupRequest
	VenueName string `json:"restaurantName"`
	Capacity  int    `json:"capacity"`
	Address   string `json:"address"`
	ImageURL  string `json:"imageUrl"`
}

type ProfilePatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}
