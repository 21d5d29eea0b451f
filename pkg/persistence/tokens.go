package persistence

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/vault"
)

// vaultCheck is sealed on vault creation to recognize the passphrase.
var vaultCheck = []byte("hubconsole")

const vaultCheckID = "vault-check"

// SavedToken is an API token kept by the console. The secret is only
// available through OpenToken.
type SavedToken struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	HubURL    string     `json:"hubUrl,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Unlock returns the vault of this store. The first call creates the vault
// with a new salt; later calls fail with ErrWrongPassphrase when passphrase
// does not match.
func (s *Store) Unlock(passphrase string, params vault.Params) (*vault.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var salt, check []byte
	err := s.db.QueryRow(`SELECT salt, check_value FROM vault WHERE id = 1`).Scan(&salt, &check)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.createVault(passphrase, params)
	case err != nil:
		return nil, err
	}

	v, err := vault.New(passphrase, salt, params)
	if err != nil {
		return nil, err
	}
	plain, err := v.Open(vaultCheckID, check)
	if err != nil || !bytes.Equal(plain, vaultCheck) {
		return nil, ErrWrongPassphrase
	}
	return v, nil
}

func (s *Store) createVault(passphrase string, params vault.Params) (*vault.Vault, error) {
	salt, err := vault.NewSalt()
	if err != nil {
		return nil, err
	}
	v, err := vault.New(passphrase, salt, params)
	if err != nil {
		return nil, err
	}
	check, err := v.Seal(vaultCheckID, vaultCheck)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`INSERT INTO vault (id, salt, check_value) VALUES (1, ?, ?)`, salt, check); err != nil {
		return nil, fmt.Errorf("failed to store vault: %w", err)
	}
	return v, nil
}

// SaveToken seals secret with v and stores it. An empty ID is generated.
func (s *Store) SaveToken(v *vault.Vault, t *SavedToken, secret string) error {
	if t.Name == "" {
		return errors.New("token name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	sealed, err := v.Seal(t.ID, []byte(secret))
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO tokens (id, name, hub_url, sealed, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, hub_url = excluded.hub_url, sealed = excluded.sealed,
			expires_at = excluded.expires_at
	`, t.ID, t.Name, t.HubURL, sealed, t.CreatedAt, t.ExpiresAt)
	return err
}

// ListTokens returns the saved tokens without secrets, newest first.
func (s *Store) ListTokens() ([]SavedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, hub_url, created_at, expires_at
		FROM tokens
		ORDER BY created_at DESC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]SavedToken, 0)
	for rows.Next() {
		var t SavedToken
		var expiresAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.Name, &t.HubURL, &t.CreatedAt, &expiresAt); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			t.ExpiresAt = &expiresAt.Time
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// OpenToken returns the secret of a saved token.
func (s *Store) OpenToken(v *vault.Vault, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sealed []byte
	err := s.db.QueryRow(`SELECT sealed FROM tokens WHERE id = ?`, id).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	secret, err := v.Open(id, sealed)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// DeleteToken removes a saved token.
func (s *Store) DeleteToken(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return affected(s.db.Exec(`DELETE FROM tokens WHERE id = ?`, id))
}
