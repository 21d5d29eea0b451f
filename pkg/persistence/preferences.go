package persistence

import (
	"database/sql"
	"errors"
)

// Preference keys used by the console.
const (
	PrefTreeExpanded = "tree.expanded"
	PrefTTLUnit      = "ttl.unit"
	PrefInstanceID   = "instance.id"
)

// InstanceID returns the id this console announces itself with, generating
// and storing one on first use.
func (s *Store) InstanceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO preferences (key, value) VALUES (?, ?)`,
		PrefInstanceID, s.newID(),
	); err != nil {
		return "", err
	}
	var id string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, PrefInstanceID).Scan(&id)
	return id, err
}

// SetPreference stores a preference value.
func (s *Store) SetPreference(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Preference returns a preference value and whether it is set.
func (s *Store) Preference(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Preferences returns all preferences.
func (s *Store) Preferences() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT key, value FROM preferences`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		prefs[k] = v
	}
	return prefs, rows.Err()
}

// DeletePreference removes a preference.
func (s *Store) DeletePreference(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	return err
}
