package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// Service parameters.
const (
	// ServiceType is the DNS-SD service type of remote client instances.
	ServiceType = "_hubclient._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the HTTPS port client instances listen on.
	DefaultPort = 50080

	// BrowseTimeout is the default duration of a one-shot browse.
	BrowseTimeout = 5 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyID      = "id"
	TXTKeyName    = "name"
	TXTKeyVersion = "ver"
	TXTKeyAuth    = "auth"
)

// TXT values of the auth key.
const (
	authPSK  = "psk"
	authX509 = "x509"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrNotFound            = errors.New("service not found")
	ErrNotAdvertising      = errors.New("not advertising")
)

// ClientInfo is what an instance advertises.
type ClientInfo struct {
	ID       string
	Name     string
	Version  string
	AuthMode model.AuthMode

	// Port defaults to DefaultPort.
	Port uint16
}

// ClientService is a discovered instance.
type ClientService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	ID       string
	Name     string
	Version  string
	AuthMode model.AuthMode
}

// URL returns the HTTPS address of the instance, preferring the first
// resolved address over the host name.
func (s *ClientService) URL() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return "https://" + net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// RemoteClient converts the service into a console registration.
func (s *ClientService) RemoteClient() model.RemoteClient {
	name := s.Name
	if name == "" {
		name = s.InstanceName
	}
	return model.RemoteClient{
		ID:       s.ID,
		Name:     name,
		URL:      s.URL(),
		AuthMode: s.AuthMode,
		Status:   model.ClientStatusReachable,
		Version:  s.Version,
	}
}
