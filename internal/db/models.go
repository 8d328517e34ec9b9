package db

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ActivityRecord is one completed capability invocation, as observed by the
// activity recorder.
type ActivityRecord struct {
	ID         string `json:"id"`
	UserToken  string `json:"user_token"`
	Capability string `json:"capability"`
	Args       string `json:"args"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	SiteURL    string `json:"site_url,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ChatMessage is one persisted turn of a user's orchestrator conversation.
type ChatMessage struct {
	ID        string `json:"id"`
	UserToken string `json:"user_token"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Fixed-width nanoseconds keep lexicographic order chronological; RFC3339Nano
// trims trailing zeros and breaks ORDER BY on the string column.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = nowUTC()
	}
	return ts.UTC().Format(timestampLayout)
}
