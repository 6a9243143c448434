package cardstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"github.com/sotc/backend/internal/domain"
)

// SQLiteStore persists cards in a SQLite database and purges expired cards
// on a cron schedule.
type SQLiteStore struct {
	db   *sql.DB
	ttl  time.Duration
	cron *cron.Cron
	now  func() time.Time
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path          string
	TTL           time.Duration // zero keeps cards forever
	PurgeSchedule string        // standard 5-field cron spec; empty disables purging
}

// NewSQLiteStore opens (and migrates) the card database
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// one connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, ttl: cfg.TTL, now: time.Now}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if cfg.PurgeSchedule != "" && cfg.TTL > 0 {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		store.cron = cron.New(cron.WithParser(parser))
		if _, err := store.cron.AddFunc(cfg.PurgeSchedule, store.runPurge); err != nil {
			db.Close()
			return nil, fmt.Errorf("invalid purge schedule %q: %w", cfg.PurgeSchedule, err)
		}
		store.cron.Start()
	}

	return store, nil
}

func (s *SQLiteStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		created DATETIME NOT NULL,
		expires_at DATETIME,
		analysis TEXT NOT NULL,
		photo TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cards_expires_at ON cards(expires_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Get retrieves a card by id
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.SavedCard, error) {
	var (
		card     domain.SavedCard
		analysis string
		expires  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created, expires_at, analysis, photo FROM cards WHERE id = ?`, id,
	).Scan(&card.ID, &card.Created, &expires, &analysis, &card.PhotoBase64)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if expires.Valid && s.now().After(expires.Time) {
		return nil, domain.ErrCardNotFound
	}
	if err := json.Unmarshal([]byte(analysis), &card.Analysis); err != nil {
		return nil, fmt.Errorf("failed to decode card analysis: %w", err)
	}
	return &card, nil
}

// Save inserts or replaces a card
func (s *SQLiteStore) Save(ctx context.Context, card *domain.SavedCard) error {
	analysis, err := json.Marshal(card.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode card analysis: %w", err)
	}

	var expires sql.NullTime
	if s.ttl > 0 {
		expires = sql.NullTime{Time: s.now().Add(s.ttl).UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cards (id, created, expires_at, analysis, photo) VALUES (?, ?, ?, ?, ?)`,
		card.ID, card.Created.UTC(), expires, string(analysis), card.PhotoBase64,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}
	return nil
}

// Exists checks whether a live card is stored under id
func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cards WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		id, s.now().UTC(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check card: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired deletes expired cards and returns how many were removed
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cards WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cards: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) runPurge() {
	n, err := s.PurgeExpired(context.Background())
	if err != nil {
		log.Printf("[CARDS] Purge failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[CARDS] Purged %d expired cards", n)
	}
}

// Close stops the purge job and closes the database
func (s *SQLiteStore) Close() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	return s.db.Close()
}
