package model

import (
	"time"

	"subsavvy/internal/domain"
)

// User is the local profile of an externally authenticated user.
type User struct {
	ID             string
	Email          string
	TelegramChatID int64
	CreatedAt      time.Time
}

func NewUser(id, email string) (*User, error) {
	if id == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{ID: id, Email: email, CreatedAt: time.Now().UTC()}, nil
}

func (u *User) IsZero() bool        { return u == nil || u.ID == "" }
func (u *User) CanBeNotified() bool { return u != nil && u.TelegramChatID != 0 }

// TelegramLink is a pending chat binding. The user sends "/start <Code>"
// to the bot before ExpiresAt.
type TelegramLink struct {
	Code      string
	ExpiresAt time.Time
}
