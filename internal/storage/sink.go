package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"imgchat/internal/logger"
	"imgchat/internal/models"
)

// Sink persists one TranslationRecord per gateway call.
type Sink struct {
	db     *sql.DB
	insert string
}

func NewSink(db *sql.DB, driver string) *Sink {
	return &Sink{
		db: db,
		insert: fmt.Sprintf(`INSERT INTO translationstexts (file_name, response_text) VALUES (%s, %s)`,
			placeholder(driver, 1), placeholder(driver, 2)),
	}
}

func placeholder(driver string, n int) string {
	if strings.EqualFold(driver, "postgres") {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Insert writes the record.
func (s *Sink) Insert(ctx context.Context, rec models.TranslationRecord) error {
	if s == nil || s.db == nil {
		return errors.New("database not initialized")
	}
	if rec.FileName == "" {
		return errors.New("file_name is required")
	}
	if _, err := s.db.ExecContext(ctx, s.insert, rec.FileName, rec.ResponseText); err != nil {
		return fmt.Errorf("insert translation: %w", err)
	}
	return nil
}

// Record is Insert without a failure path: errors are logged and dropped, and
// the write is not cancelled when the request that triggered it goes away.
func (s *Sink) Record(ctx context.Context, rec models.TranslationRecord) {
	if err := s.Insert(context.WithoutCancel(ctx), rec); err != nil {
		logger.WithFields(map[string]interface{}{
			"file_name": rec.FileName,
		}).Errorf("database error: %v", err)
	}
}
