package cache

import "time"

// Summary is a backend summary as seen by one signed-in user.
type Summary struct {
	UserID    string
	ID        string
	Title     string
	Summary   string
	URL       string
	CreatedAt string
	FetchedAt time.Time
}

// Session is the persisted sign-in state.
type Session struct {
	UserID       string    `json:"uid"`
	Email        string    `json:"email"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
