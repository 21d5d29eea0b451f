package model

import "slices"

// EndpointInformation is a network endpoint a resource is reachable on.
type EndpointInformation struct {
	Endpoint string `json:"endpoint"`
	Priority int64  `json:"priority,omitempty"`
}

// Policy carries the OCF link policy bitmask.
type Policy struct {
	BitFlags int32 `json:"bitFlags"`
}

// Policy bits.
const (
	PolicyDiscoverable int32 = 1 << 0
	PolicyObservable   int32 = 1 << 1
)

// ResourceLink is a flat record exposing a device capability at an href.
// Identity is the href within one device's resource set.
type ResourceLink struct {
	Href                  string                `json:"href"`
	DeviceID              string                `json:"deviceId,omitempty"`
	ResourceTypes         []string              `json:"resourceTypes,omitempty"`
	Interfaces            []string              `json:"interfaces,omitempty"`
	Anchor                string                `json:"anchor,omitempty"`
	Title                 string                `json:"title,omitempty"`
	SupportedContentTypes []string              `json:"supportedContentTypes,omitempty"`
	EndpointInformations  []EndpointInformation `json:"endpointInformations,omitempty"`
	Policy                *Policy               `json:"policy,omitempty"`
	ValidUntil            NanoTime              `json:"validUntil,omitempty"`
}

// Merge returns l overlaid with every non-empty field of o, so o wins on
// collisions and fields o leaves unset are kept from l.
func (l ResourceLink) Merge(o ResourceLink) ResourceLink {
	if o.Href != "" {
		l.Href = o.Href
	}
	if o.DeviceID != "" {
		l.DeviceID = o.DeviceID
	}
	if o.ResourceTypes != nil {
		l.ResourceTypes = o.ResourceTypes
	}
	if o.Interfaces != nil {
		l.Interfaces = o.Interfaces
	}
	if o.Anchor != "" {
		l.Anchor = o.Anchor
	}
	if o.Title != "" {
		l.Title = o.Title
	}
	if o.SupportedContentTypes != nil {
		l.SupportedContentTypes = o.SupportedContentTypes
	}
	if o.EndpointInformations != nil {
		l.EndpointInformations = o.EndpointInformations
	}
	if o.Policy != nil {
		l.Policy = o.Policy
	}
	if o.ValidUntil != 0 {
		l.ValidUntil = o.ValidUntil
	}
	return l
}

// Clone returns a copy of l that shares no slices or pointers with it.
func (l ResourceLink) Clone() ResourceLink {
	l.ResourceTypes = slices.Clone(l.ResourceTypes)
	l.Interfaces = slices.Clone(l.Interfaces)
	l.SupportedContentTypes = slices.Clone(l.SupportedContentTypes)
	l.EndpointInformations = slices.Clone(l.EndpointInformations)
	if l.Policy != nil {
		p := *l.Policy
		l.Policy = &p
	}
	return l
}

// Observable reports whether the link policy allows observation.
func (l *ResourceLink) Observable() bool {
	return l.Policy != nil && l.Policy.BitFlags&PolicyObservable != 0
}

// HasType reports whether the link declares the resource type.
func (l *ResourceLink) HasType(resourceType string) bool {
	for _, rt := range l.ResourceTypes {
		if rt == resourceType {
			return true
		}
	}
	return false
}

// ResourceID identifies a resource across devices.
type ResourceID struct {
	DeviceID string `json:"deviceId"`
	Href     string `json:"href"`
}

// String returns "deviceID/href".
func (r ResourceID) String() string {
	return r.DeviceID + r.Href
}

// AuditContext records who issued a command.
type AuditContext struct {
	UserID        string `json:"userId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	Owner         string `json:"owner,omitempty"`
}

// Resource is the content of a resource as returned by the hub.
type Resource struct {
	ResourceID   ResourceID   `json:"resourceId"`
	Types        []string     `json:"types,omitempty"`
	Status       string       `json:"status,omitempty"`
	ContentType  string       `json:"contentType,omitempty"`
	Content      any          `json:"content"`
	AuditContext AuditContext `json:"auditContext,omitempty"`
}

// PendingCommandKind names the kind of command waiting for a device.
type PendingCommandKind string

const (
	PendingResourceCreate   PendingCommandKind = "resourceCreatePending"
	PendingResourceRetrieve PendingCommandKind = "resourceRetrievePending"
	PendingResourceUpdate   PendingCommandKind = "resourceUpdatePending"
	PendingResourceDelete   PendingCommandKind = "resourceDeletePending"
	PendingMetadataUpdate   PendingCommandKind = "deviceMetadataUpdatePending"
)

// String returns a short label.
func (k PendingCommandKind) String() string {
	switch k {
	case PendingResourceCreate:
		return "create"
	case PendingResourceRetrieve:
		return "retrieve"
	case PendingResourceUpdate:
		return "update"
	case PendingResourceDelete:
		return "delete"
	case PendingMetadataUpdate:
		return "metadata"
	default:
		return string(k)
	}
}

// PendingCommand is a command the hub holds until the device is reachable
// or the command expires.
type PendingCommand struct {
	Kind          PendingCommandKind `json:"kind"`
	ResourceID    ResourceID         `json:"resourceId"`
	CorrelationID string             `json:"correlationId"`
	ValidUntil    NanoTime           `json:"validUntil,omitempty"`
}
