package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"imgchat/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	CookieName          = "session_id"
	sessionIDContextKey = "session_id"
	idBytes             = 32
)

// Manager binds browsers to transcripts through the session cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
}

// NewManager constructs a manager. A non-positive ttl falls back to 24h.
func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, ttl: ttl, secure: secure}
}

// Middleware ensures every request carries a valid session id and stores it in the context.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(CookieName)
		if err != nil || !validID(id) {
			id, err = generateID()
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}
		// Refresh the cookie so its lifetime tracks the stored transcript.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, id, int(m.ttl.Seconds()), "/", "", m.secure, true)
		c.Set(sessionIDContextKey, id)
		c.Next()
	}
}

// IDFromContext retrieves the session id captured by the middleware.
func IDFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(sessionIDContextKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

// Load returns the transcript for id, or an empty one when nothing is stored.
func (m *Manager) Load(ctx context.Context, id string) (*models.Transcript, error) {
	t, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.NewTranscript(), nil
		}
		return nil, err
	}
	if t.Entries == nil {
		t.Entries = []models.ChatEntry{}
	}
	return t, nil
}

// Save persists the transcript and refreshes its expiry.
func (m *Manager) Save(ctx context.Context, id string, t *models.Transcript) error {
	if id == "" {
		return errors.New("session id required")
	}
	if t == nil {
		t = models.NewTranscript()
	}
	if err := m.store.Put(ctx, id, t, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func generateID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func validID(id string) bool {
	if len(id) != idBytes*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
