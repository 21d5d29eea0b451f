package model

import "strings"

// ConnectionStatus is the device connection state reported by the hub.
type ConnectionStatus string

const (
	ConnectionOnline  ConnectionStatus = "ONLINE"
	ConnectionOffline ConnectionStatus = "OFFLINE"
)

// String returns a lower-case status label.
func (s ConnectionStatus) String() string {
	switch s {
	case ConnectionOnline:
		return "online"
	case ConnectionOffline, "":
		return "offline"
	default:
		return strings.ToLower(string(s))
	}
}

// TwinSyncState is the state of the device twin synchronization.
type TwinSyncState string

const (
	TwinSyncDisabled  TwinSyncState = "DISABLED"
	TwinSyncOutOfSync TwinSyncState = "OUT_OF_SYNC"
	TwinSyncSyncing   TwinSyncState = "SYNCING"
	TwinSyncInSync    TwinSyncState = "IN_SYNC"
)

// String returns a human-readable state.
func (s TwinSyncState) String() string {
	switch s {
	case TwinSyncDisabled:
		return "disabled"
	case TwinSyncOutOfSync:
		return "out of sync"
	case TwinSyncSyncing:
		return "syncing"
	case TwinSyncInSync:
		return "in sync"
	default:
		return "unknown"
	}
}

// LocalizedString is a value tagged with a language.
type LocalizedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// Connection describes how and whether the device is connected.
type Connection struct {
	Status           ConnectionStatus `json:"status"`
	Protocol         string           `json:"protocol,omitempty"`
	OnlineValidUntil NanoTime         `json:"onlineValidUntil,omitempty"`
	LocalEndpoints   []string         `json:"localEndpoints,omitempty"`
}

// TwinSynchronization describes the device twin state.
type TwinSynchronization struct {
	State TwinSyncState `json:"state"`
}

// DeviceMetadata is the hub-maintained metadata of a device.
type DeviceMetadata struct {
	Connection          Connection          `json:"connection"`
	TwinSynchronization TwinSynchronization `json:"twinSynchronization"`
	TwinEnabled         bool                `json:"twinEnabled"`
}

// Device is a device registered in the hub.
type Device struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Types                 []string          `json:"types,omitempty"`
	ManufacturerName      []LocalizedString `json:"manufacturerName,omitempty"`
	ModelNumber           string            `json:"modelNumber,omitempty"`
	ProtocolIndependentID string            `json:"protocolIndependentId,omitempty"`
	Metadata              DeviceMetadata    `json:"metadata"`
}

// Online reports whether the hub considers the device connected.
func (d *Device) Online() bool {
	return d.Metadata.Connection.Status == ConnectionOnline
}

// Manufacturer returns the manufacturer name for the language, falling back
// to the first available value.
func (d *Device) Manufacturer(language string) string {
	for _, m := range d.ManufacturerName {
		if strings.EqualFold(m.Language, language) {
			return m.Value
		}
	}
	if len(d.ManufacturerName) > 0 {
		return d.ManufacturerName[0].Value
	}
	return ""
}
