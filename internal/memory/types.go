package memory

import (
	"context"
	"time"
)

// Record stores one completed conversational turn for later inspection.
type Record struct {
	ID           string    `json:"id"`
	UserText     string    `json:"user_text"`
	ResponseText string    `json:"response_text"`
	Intent       string    `json:"intent"`
	Action       string    `json:"action"`
	Category     string    `json:"category,omitempty"`
	Query        string    `json:"query,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists and retrieves the turn log.
type Store interface {
	SaveTurn(ctx context.Context, record Record) error
	RecentTurns(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
