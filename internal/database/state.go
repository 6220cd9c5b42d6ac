package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrStateNotFound = errors.New("state not found")

// TouchProfile records a profile and refreshes its last_seen timestamp.
func TouchProfile(db *sql.DB, profileID string) error {
	query := `
		INSERT INTO profiles (id) VALUES (?)
		ON CONFLICT(id) DO UPDATE SET last_seen = CURRENT_TIMESTAMP
	`
	if _, err := db.Exec(query, profileID); err != nil {
		return fmt.Errorf("failed to touch profile: %w", err)
	}
	return nil
}

func SaveState(db *sql.DB, profileID, key string, value []byte) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO profiles (id) VALUES (?)
		ON CONFLICT(id) DO UPDATE SET last_seen = CURRENT_TIMESTAMP
	`, profileID)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO profile_state (profile_id, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(profile_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, profileID, key, value)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return tx.Commit()
}

func LoadState(db *sql.DB, profileID, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRow(
		"SELECT value FROM profile_state WHERE profile_id = ? AND key = ?",
		profileID, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return value, nil
}

func DeleteState(db *sql.DB, profileID, key string) error {
	_, err := db.Exec("DELETE FROM profile_state WHERE profile_id = ? AND key = ?", profileID, key)
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// CleanupStaleProfiles drops profiles not seen within maxAge together with
// their state rows.
func CleanupStaleProfiles(db *sql.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format("2006-01-02 15:04:05")
	result, err := db.Exec("DELETE FROM profiles WHERE last_seen < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup profiles: %w", err)
	}
	return result.RowsAffected()
}
