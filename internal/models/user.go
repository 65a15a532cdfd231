package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/desertthunder/customify/internal/shared"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// User represents a registered account with a bcrypt password hash.
//
// Fields are unexported; persistence code uses the accessor methods.
type User struct {
	id           string
	sequence     int
	username     string
	email        string
	passwordHash string
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewUser creates a User with the given sequence, username, email, and password hash.
// The ID is assigned by the repository on Create.
func NewUser(sequence int, username, email, passwordHash string) *User {
	now := time.Now()
	return &User{
		sequence:     sequence,
		username:     username,
		email:        email,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) Username() string      { return u.username }
func (u *User) Email() string         { return u.email }
func (u *User) PasswordHash() string  { return u.passwordHash }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)               { u.id = id }
func (u *User) SetCreatedAt(t time.Time)      { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)      { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)     { u.deletedAt = t }
func (u *User) SetPasswordHash(hash string)   { u.passwordHash = hash }

// Validate checks that the user carries a username, a well-formed email, and a password hash.
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if u.email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrInvalidInput)
	}
	if !emailPattern.MatchString(u.email) {
		return fmt.Errorf("%w: invalid email format: %s", shared.ErrInvalidInput, u.email)
	}
	if u.passwordHash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrInvalidInput)
	}
	return nil
}
