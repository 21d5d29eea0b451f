package discovery

import (
	"github.com/enbility/zeroconf/v3"
)

// ServiceEntry is a resolved mDNS service instance as seen on one
// interface.
type ServiceEntry struct {
	Instance string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

func fromZeroconf(entry *zeroconf.ServiceEntry) ServiceEntry {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return ServiceEntry{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     uint16(entry.Port),
		Text:     entry.Text,
		Addrs:    addrs,
	}
}

// ToClientService converts a ServiceEntry to a ClientService.
func (e *ServiceEntry) ToClientService() (*ClientService, error) {
	info, err := DecodeClientTXT(StringsToTXTRecords(e.Text))
	if err != nil {
		return nil, err
	}
	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	return &ClientService{
		InstanceName: e.Instance,
		Host:         e.Host,
		Port:         port,
		Addresses:    append([]string(nil), e.Addrs...),
		ID:           info.ID,
		Name:         info.Name,
		Version:      info.Version,
		AuthMode:     info.AuthMode,
	}, nil
}

// aggregator tracks services by instance name across interfaces.
type aggregator struct {
	services map[string]*ClientService
}

func newAggregator() *aggregator {
	return &aggregator{services: make(map[string]*ClientService)}
}

// add records entry and returns the service when it was not known before.
// Entries with invalid TXT records are ignored.
func (a *aggregator) add(entry ServiceEntry) *ClientService {
	svc, err := entry.ToClientService()
	if err != nil {
		return nil
	}
	if existing, found := a.services[svc.InstanceName]; found {
		existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
		return nil
	}
	a.services[svc.InstanceName] = svc
	return svc
}

// remove drops the addresses of entry and returns the service when none
// remain.
func (a *aggregator) remove(entry ServiceEntry) *ClientService {
	existing, found := a.services[entry.Instance]
	if !found {
		return nil
	}
	existing.Addresses = removeAddresses(existing.Addresses, entry.Addrs)
	if len(existing.Addresses) > 0 {
		return nil
	}
	delete(a.services, entry.Instance)
	return existing
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses filters gone out of addresses.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, addr := range gone {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
