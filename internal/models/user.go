package models

import "time"

// User represents a learner account
type User struct {
	ID               int64     `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	Email            string    `db:"email" json:"email,omitempty"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	IsAdmin          bool      `db:"is_admin" json:"is_admin"`
	TelegramChatID   *int64    `db:"telegram_chat_id" json:"-"`
	TotalTimeMinutes int       `db:"total_time_minutes" json:"total_time_minutes"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Session represents an authenticated session
type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
