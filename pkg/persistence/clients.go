package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// AddClient registers a remote client. An empty ID is generated; AddedAt
// and UpdatedAt are set to now.
func (s *Store) AddClient(c *model.RemoteClient) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.Status == "" {
		c.Status = model.ClientStatusUnknown
	}
	now := time.Now().UTC()
	c.AddedAt, c.UpdatedAt = now, now

	_, err := s.db.Exec(`
		INSERT INTO remote_clients (id, name, url, auth_mode, status, version, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.URL, c.AuthMode, c.Status, c.Version, c.AddedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateURL, c.URL)
	}
	return err
}

const clientColumns = `id, name, url, auth_mode, status, version, added_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (*model.RemoteClient, error) {
	var c model.RemoteClient
	if err := row.Scan(&c.ID, &c.Name, &c.URL, &c.AuthMode, &c.Status, &c.Version, &c.AddedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClient retrieves a remote client by ID.
func (s *Store) GetClient(id string) (*model.RemoteClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := scanClient(s.db.QueryRow(`SELECT `+clientColumns+` FROM remote_clients WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListClients returns all remote clients ordered by name.
func (s *Store) ListClients() ([]model.RemoteClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + clientColumns + ` FROM remote_clients ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]model.RemoteClient, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// UpdateClientStatus records the reachability of a client and, when
// non-empty, the version it reported.
func (s *Store) UpdateClientStatus(id string, status model.ClientStatus, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return affected(s.db.Exec(`
		UPDATE remote_clients
		SET status = ?, version = CASE WHEN ? = '' THEN version ELSE ? END, updated_at = ?
		WHERE id = ?
	`, status, version, version, time.Now().UTC(), id))
}

// DeleteClient removes a remote client.
func (s *Store) DeleteClient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return affected(s.db.Exec(`DELETE FROM remote_clients WHERE id = ?`, id))
}
