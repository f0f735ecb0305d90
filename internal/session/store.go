package session

import (
	"context"
	"errors"
	"time"

	"imgchat/internal/models"
)

// ErrNotFound is returned when no transcript is stored for a session id.
var ErrNotFound = errors.New("session not found")

// Store keeps one transcript per browser session.
type Store interface {
	Get(ctx context.Context, id string) (*models.Transcript, error)
	Put(ctx context.Context, id string, t *models.Transcript, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
