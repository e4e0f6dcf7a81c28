package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	Role         Role          `bson:"role" json:"role"`
	Department   string        `bson:"department,omitempty" json:"department,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserSummary is the subset of a user joined into attendance listings.
type UserSummary struct {
	ID         bson.ObjectID `json:"_id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Department string        `json:"department,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Department: u.Department}
}
