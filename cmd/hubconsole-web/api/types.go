// Package api implements the JSON handlers of hubconsole-web.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

// Hub is the part of the hub client the web API uses.
type Hub interface {
	ListDevices(ctx context.Context, ids ...string) ([]model.Device, error)
	GetResourceTree(ctx context.Context, deviceID string) ([]*restree.Node, error)
	GetResource(ctx context.Context, deviceID, href string, twin bool) (*model.Resource, error)
	UpdateResource(ctx context.Context, deviceID, href string, value any, t ttl.TTL) (*model.Resource, error)
}

// ClientStore persists remote clients.
type ClientStore interface {
	AddClient(c *model.RemoteClient) error
	ListClients() ([]model.RemoteClient, error)
	DeleteClient(id string) error
}

// Preferences persists UI preferences.
type Preferences interface {
	Preference(key string) (string, bool, error)
	SetPreference(key, value string) error
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DeviceListResponse is the response for listing devices.
type DeviceListResponse struct {
	Devices []model.Device `json:"devices"`
	Total   int            `json:"total"`
}

// TreeResponse is the resource tree of a device.
type TreeResponse struct {
	DeviceID  string          `json:"deviceId"`
	Nodes     []*restree.Node `json:"nodes"`
	Resources int             `json:"resources"`
}

// UpdateResponse is the answer to a resource update. A scheduled update
// carries the correlation ID to cancel it with.
type UpdateResponse struct {
	Outcome       string          `json:"outcome"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Resource      *model.Resource `json:"resource,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// ClientListResponse is the response for listing remote clients.
type ClientListResponse struct {
	Clients []model.RemoteClient `json:"clients"`
	Total   int                  `json:"total"`
}

// ClientRequest registers a remote client.
type ClientRequest struct {
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	AuthMode model.AuthMode `json:"authMode,omitempty"`
}

// TTLResponse describes a time-to-live.
type TTLResponse struct {
	Nanoseconds int64   `json:"nanoseconds"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Display     string  `json:"display"`
	Infinite    bool    `json:"infinite"`
	Query       string  `json:"timeToLive"`
}

// writeJSONResponse writes a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSONResponse(w, status, ErrorResponse{Error: message, Details: details})
}

// hubStatus maps a hub error to the status answered to the browser.
func hubStatus(err error) int {
	switch {
	case errors.Is(err, hub.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hub.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, hub.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, hub.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, hub.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, hub.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
