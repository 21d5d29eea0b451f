package log

import (
	"strings"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// Event is one captured exchange with the hub. CBOR encoding uses integer
// keys for compactness.
type Event struct {
	// Timestamp is when the request was sent (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RequestID uniquely identifies the exchange (UUID).
	RequestID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Service is the hub component that was called.
	Service Service `cbor:"4,keyasint"`

	// Method is the HTTP method, empty for stream events.
	Method string `cbor:"5,keyasint,omitempty"`

	// Path is the request path without the query.
	Path string `cbor:"6,keyasint,omitempty"`

	// DeviceID is set for device scoped calls.
	DeviceID string `cbor:"7,keyasint,omitempty"`

	// CorrelationID is the command correlation ID, if any.
	CorrelationID string `cbor:"8,keyasint,omitempty"`

	// Status is the HTTP status code (0 if no response arrived).
	Status int `cbor:"9,keyasint,omitempty"`

	// Duration from request to last response byte.
	Duration time.Duration `cbor:"10,keyasint,omitempty"`

	// Outcome classifies the result for the user.
	Outcome model.Outcome `cbor:"11,keyasint"`

	// Error is the error message of failed exchanges.
	Error string `cbor:"12,keyasint,omitempty"`

	// Detail carries the state name or event type of stream events.
	Detail string `cbor:"13,keyasint,omitempty"`
}

// Category classifies an event.
type Category uint8

const (
	// CategoryRequest is a REST request and its response.
	CategoryRequest Category = 0
	// CategoryNotification is an event received on the event stream.
	CategoryNotification Category = 1
	// CategoryState is a state change of the event stream connection.
	CategoryState Category = 2
	// CategoryError is an error outside a request.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRequest:
		return "REQUEST"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Service identifies a hub component.
type Service uint8

const (
	ServiceGateway Service = iota
	ServiceTokens
	ServiceCertificates
	ServiceProvisioning
	ServiceEvents
)

// String returns the service name.
func (s Service) String() string {
	switch s {
	case ServiceGateway:
		return "GATEWAY"
	case ServiceTokens:
		return "TOKENS"
	case ServiceCertificates:
		return "CERTIFICATES"
	case ServiceProvisioning:
		return "PROVISIONING"
	case ServiceEvents:
		return "EVENTS"
	default:
		return "UNKNOWN"
	}
}

// ServiceForPath maps a request path to the hub component serving it.
func ServiceForPath(path string) Service {
	switch {
	case strings.HasPrefix(path, "/m2m-oauth-server/"):
		return ServiceTokens
	case strings.HasPrefix(path, "/certificate-authority/"):
		return ServiceCertificates
	case strings.HasPrefix(path, "/api/v1/ws/"):
		return ServiceEvents
	case strings.HasPrefix(path, "/api/v1/enrollment-groups"),
		strings.HasPrefix(path, "/api/v1/hubs"),
		strings.HasPrefix(path, "/api/v1/provisioning-records"):
		return ServiceProvisioning
	default:
		return ServiceGateway
	}
}
