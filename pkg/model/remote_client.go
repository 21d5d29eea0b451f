package model

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Remote client errors.
var (
	ErrClientName = errors.New("remote client name is required")
	ErrClientURL  = errors.New("remote client URL must be absolute http(s)")
)

// AuthMode is how the console authenticates to a remote client.
type AuthMode string

const (
	AuthPreSharedKey AuthMode = "PRE_SHARED_KEY"
	AuthX509         AuthMode = "X509"
)

// ClientStatus is the reachability of a remote client instance.
type ClientStatus string

const (
	ClientStatusUnknown     ClientStatus = "UNKNOWN"
	ClientStatusReachable   ClientStatus = "REACHABLE"
	ClientStatusUnreachable ClientStatus = "UNREACHABLE"
)

// RemoteClient is a client application instance registered in the console.
type RemoteClient struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	URL       string       `json:"url"`
	AuthMode  AuthMode     `json:"authMode"`
	Status    ClientStatus `json:"status"`
	Version   string       `json:"version,omitempty"`
	AddedAt   time.Time    `json:"addedAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Validate checks the fields a user enters.
func (c *RemoteClient) Validate() error {
	if c.Name == "" {
		return ErrClientName
	}
	u, err := url.Parse(c.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrClientURL, c.URL)
	}
	switch c.AuthMode {
	case AuthPreSharedKey, AuthX509, "":
	default:
		return fmt.Errorf("unknown auth mode: %s", c.AuthMode)
	}
	return nil
}
