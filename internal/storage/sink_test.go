package storage

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"imgchat/internal/config"
	"imgchat/internal/logger"
	"imgchat/internal/models"
)

func openTestDB(t *testing.T) (*sql.DB, config.DatabaseConfig) {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "db", "translations.db"),
	}
	if err := Migrate(cfg); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, cfg
}

func TestMigrateIsRepeatable(t *testing.T) {
	_, cfg := openTestDB(t)
	if err := Migrate(cfg); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSinkInsert(t *testing.T) {
	db, cfg := openTestDB(t)
	sink := NewSink(db, cfg.DriverName())

	rec := models.TranslationRecord{FileName: "7f3c.png", ResponseText: "Hello\nWorld"}
	if err := sink.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	var fileName, text string
	if err := db.QueryRow(`SELECT file_name, response_text FROM translationstexts`).Scan(&fileName, &text); err != nil {
		t.Fatalf("query row: %v", err)
	}
	if fileName != rec.FileName || text != rec.ResponseText {
		t.Fatalf("unexpected row: %q %q", fileName, text)
	}
}

func TestSinkRecordSurvivesCancelledContext(t *testing.T) {
	db, cfg := openTestDB(t)
	sink := NewSink(db, cfg.DriverName())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Record(ctx, models.TranslationRecord{FileName: "a.png", ResponseText: "Error calling API: boom"})

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM translationstexts`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestSinkRecordSwallowsFailure(t *testing.T) {
	var buf bytes.Buffer
	if err := logger.InitWithOutput("info", "text", &buf); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	db, cfg := openTestDB(t)
	sink := NewSink(db, cfg.DriverName())
	db.Close()

	if err := sink.Insert(context.Background(), models.TranslationRecord{FileName: "a.png"}); err == nil {
		t.Fatalf("expected insert error on closed db")
	}
	sink.Record(context.Background(), models.TranslationRecord{FileName: "a.png"})
	if !bytes.Contains(buf.Bytes(), []byte("database error")) {
		t.Fatalf("expected logged failure, got %q", buf.String())
	}
}

func TestPlaceholders(t *testing.T) {
	pg := NewSink(nil, "postgres")
	if pg.insert != `INSERT INTO translationstexts (file_name, response_text) VALUES ($1, $2)` {
		t.Fatalf("postgres insert: %s", pg.insert)
	}
	my := NewSink(nil, "mysql")
	if my.insert != `INSERT INTO translationstexts (file_name, response_text) VALUES (?, ?)` {
		t.Fatalf("mysql insert: %s", my.insert)
	}
	if err := pg.Insert(context.Background(), models.TranslationRecord{FileName: "x"}); err == nil {
		t.Fatalf("expected error without db")
	}
}
