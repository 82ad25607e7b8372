package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrTagNotFound is returned when no tag exists for a key.
var ErrTagNotFound = errors.New("tag not found")

// TagRepository stores free-form annotations keyed by attachment key,
// independent of the decision store, plus an append-only audit log of
// review actions.
type TagRepository interface {
	SaveTag(key string, body []byte) error
	GetTag(key string) ([]byte, error)
	RecordAction(key, action string) error
	Close() error
}

type tagRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTagRepository opens the sqlite-backed tag store, creating the schema
// if needed.
func NewTagRepository(path string, logger *zap.Logger) (TagRepository, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag database: %w", err)
	}

	repo := &tagRepository{db: db, logger: logger}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate tag database: %w", err)
	}

	logger.Info("Tag repository initialized", zap.String("db_path", path))
	return repo, nil
}

func (r *tagRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tags (
		attachment_key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		attachment_key TEXT NOT NULL,
		action TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_key ON actions(attachment_key);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveTag stores the body verbatim; last write wins.
func (r *tagRepository) SaveTag(key string, body []byte) error {
	query := `
		INSERT INTO tags (attachment_key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(attachment_key) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, key, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}
	return nil
}

// GetTag returns the stored body for key.
func (r *tagRepository) GetTag(key string) ([]byte, error) {
	var body string
	err := r.db.Get(&body, `SELECT body FROM tags WHERE attachment_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return []byte(body), nil
}

// RecordAction appends one audit row for a reviewer verdict.
func (r *tagRepository) RecordAction(key, action string) error {
	query := `INSERT INTO actions (id, attachment_key, action, created_at) VALUES (?, ?, ?, ?)`

	if _, err := r.db.Exec(query, uuid.NewString(), key, action, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *tagRepository) Close() error {
	return r.db.Close()
}
