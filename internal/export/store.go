package export

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ultra2207/BotLooter/internal/looter"
)

// HistoryEntry is one recorded loot attempt.
type HistoryEntry struct {
	Login      string
	Outcome    string
	Message    string
	ItemCount  int
	RecordedAt time.Time
}

// ResultStore records every loot attempt in a SQLite database so past runs
// can be inspected after the console output is gone.
type ResultStore struct {
	db *sql.DB
}

// NewResultStore opens (creating if needed) the history database.
func NewResultStore(dbPath string) (*ResultStore, error) {
	// WAL and a busy timeout keep concurrent subscriber writes from
	// tripping over each other.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS loot_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		login TEXT NOT NULL,
		outcome TEXT NOT NULL,
		message TEXT NOT NULL,
		item_count INTEGER NOT NULL,
		recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_loot_results_login ON loot_results(login);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &ResultStore{db: db}, nil
}

// Record implements looter.Subscriber.
func (s *ResultStore) Record(login string, result looter.LootResult) error {
	_, err := s.db.Exec(
		`INSERT INTO loot_results (login, outcome, message, item_count) VALUES (?, ?, ?, ?)`,
		login, result.Outcome.String(), result.Message, result.LootedItemCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record loot result: %w", err)
	}
	return nil
}

// History returns the recorded attempts for one login, newest first.
func (s *ResultStore) History(login string) ([]HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT login, outcome, message, item_count, recorded_at
		 FROM loot_results WHERE login = ? ORDER BY id DESC`,
		login,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.Login, &entry.Outcome, &entry.Message,
			&entry.ItemCount, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}
