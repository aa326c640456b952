package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	ThemeKey   = "theme"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// OpenCodexDB opens (creating if needed) the preferences database at path.
func OpenCodexDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

// GetPreference returns ok=false when key was never set.
func GetPreference(db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func SetPreference(db *sql.DB, key, value string) error {
	_, err := db.Exec(
		`INSERT INTO preferences(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().Unix(),
	)
	return err
}

// LoadTheme reports whether the stored theme is dark, falling back to
// fallbackDark when nothing valid is stored.
func LoadTheme(db *sql.DB, fallbackDark bool) (bool, error) {
	value, ok, err := GetPreference(db, ThemeKey)
	if err != nil || !ok {
		return fallbackDark, err
	}
	switch value {
	case ThemeDark:
		return true, nil
	case ThemeLight:
		return false, nil
	}
	return fallbackDark, nil
}

func SaveTheme(db *sql.DB, dark bool) error {
	value := ThemeLight
	if dark {
		value = ThemeDark
	}
	return SetPreference(db, ThemeKey, value)
}
