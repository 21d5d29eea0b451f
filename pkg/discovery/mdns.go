package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser announces a remote client instance.
type Advertiser interface {
	Advertise(ctx context.Context, info *ClientInfo) error
	Stop() error
}

// Browser finds remote client instances.
type Browser interface {
	// Browse streams instances as they appear and disappear. Both channels
	// are closed when ctx is done.
	Browse(ctx context.Context) (added, removed <-chan *ClientService, err error)

	// Find returns the instance with the given id.
	Find(ctx context.Context, id string) (*ClientService, error)
}

// AdvertiserConfig configures advertising.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface. Empty
	// means all interfaces.
	Interface string

	// TTL of the announced records. Zero uses the zeroconf default.
	TTL time.Duration
}

// BrowserConfig configures browsing.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	Interface string

	// BrowseTimeout bounds Find when ctx has no deadline.
	BrowseTimeout time.Duration
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{BrowseTimeout: BrowseTimeout}
}

func selectInterfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// MDNSAdvertiser implements Advertiser using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// Advertise starts announcing info, replacing an earlier announcement.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *ClientInfo) error {
	if info.ID == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}
	name := instanceName(info)
	if err := ValidateInstanceName(name); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}
	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		name,
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeClientTXT(info)),
		selectInterfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", ServiceType, err)
	}
	a.server = server
	return nil
}

// Stop withdraws the announcement.
func (a *MDNSAdvertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}
	a.server.Shutdown()
	a.server = nil
	return nil
}

// MDNSBrowser implements Browser using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse searches for remote client instances. Services are aggregated by
// instance name: addresses from multiple interfaces are combined into a
// single entry, and a service is removed with its last address.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *ClientService, <-chan *ClientService, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	gone := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := selectInterfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	added, removed := run(ctx, entries, gone)

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, gone, opts...)
	}()
	return added, removed, nil
}

// run aggregates zeroconf results into added and removed services.
func run(ctx context.Context, entries, gone <-chan *zeroconf.ServiceEntry) (<-chan *ClientService, <-chan *ClientService) {
	added := make(chan *ClientService)
	removed := make(chan *ClientService)

	go func() {
		defer close(added)
		defer close(removed)

		agg := newAggregator()
		emit := func(ch chan<- *ClientService, svc *ClientService) bool {
			if svc == nil {
				return true
			}
			select {
			case ch <- svc:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if !emit(added, agg.add(fromZeroconf(entry))) {
					return
				}
			case entry, ok := <-gone:
				if !ok {
					gone = nil
					continue
				}
				if !emit(removed, agg.remove(fromZeroconf(entry))) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return added, removed
}

// Find browses until the instance with id shows up.
func (b *MDNSBrowser) Find(ctx context.Context, id string) (*ClientService, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok && b.config.BrowseTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.config.BrowseTimeout)
		defer cancel()
	}

	added, removed, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case svc, ok := <-added:
			if !ok {
				return nil, ErrNotFound
			}
			if svc.ID == id {
				return svc, nil
			}
		case _, ok := <-removed:
			if !ok {
				removed = nil
			}
		}
	}
}

// Ensure the zeroconf implementations satisfy the interfaces.
var (
	_ Advertiser = (*MDNSAdvertiser)(nil)
	_ Browser    = (*MDNSBrowser)(nil)
)
