package models

import (
	"time"
)

// User is the stored account document. Goals and their tasks are embedded.
type User struct {
	ID            string    `firestore:"id" bson:"_id" json:"id"`
	Name          string    `firestore:"name" bson:"name" json:"name"`
	Email         string    `firestore:"email" bson:"email" json:"email"`
	PasswordHash  string    `firestore:"password" bson:"password" json:"-"`
	About         string    `firestore:"about" bson:"about" json:"about"`
	Goals         []Goal    `firestore:"goals" bson:"goals" json:"goals"`
	EmailVerified bool      `firestore:"emailVerified" bson:"emailVerified" json:"emailVerified"`
	LineUserID    string    `firestore:"lineUserId,omitempty" bson:"lineUserId,omitempty" json:"-"`
	CreatedAt     time.Time `firestore:"createdAt" bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" bson:"updatedAt" json:"updatedAt"`

	// GoalNames mirrors Goals[*].GoalName so document stores can filter on it.
	GoalNames []string `firestore:"goalNames" bson:"goalNames" json:"-"`
	// Version is bumped on every write and used for compare-and-swap updates.
	Version int64 `firestore:"version" bson:"version" json:"-"`
}

// DefaultAbout is stored for accounts that never filled in their profile.
const DefaultAbout = " "

// PublicUser is the shape of a user that leaves the service.
type PublicUser struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	About         string    `json:"about"`
	Goals         []Goal    `json:"goals"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Public strips credentials and linked chat identities.
func (u *User) Public() PublicUser {
	goals := u.Goals
	if goals == nil {
		goals = []Goal{}
	}
	return PublicUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		About:         u.About,
		Goals:         goals,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// Clone returns a deep copy so stores never share goal slices with callers.
func (u *User) Clone() *User {
	c := *u
	if u.Goals != nil {
		c.Goals = make([]Goal, len(u.Goals))
		for i, g := range u.Goals {
			c.Goals[i] = g.Clone()
		}
	}
	if u.GoalNames != nil {
		c.GoalNames = append([]string(nil), u.GoalNames...)
	}
	return &c
}

// RegisterInput is the body of a sign-up request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,nonblank,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=100"`
}

// LoginInput is the body of a sign-in request.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput is a partial profile update; nil fields are left alone.
type ProfileInput struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,nonblank,max=50"`
	About      *string `json:"about,omitempty" validate:"omitempty,max=2000"`
	LineUserID *string `json:"lineUserId,omitempty" validate:"omitempty,max=64"`
}

// PasswordInput is the body of a password change.
type PasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=100"`
}
