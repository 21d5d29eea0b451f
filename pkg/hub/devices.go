package hub

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// ErrNoIDs is returned by bulk deletes called without IDs.
var ErrNoIDs = errors.New("at least one ID is required")

func devicePath(deviceID string, rest ...string) []string {
	return append([]string{"api", "v1", "devices", deviceID}, rest...)
}

func idQuery(key string, ids []string) url.Values {
	q := url.Values{}
	for _, id := range ids {
		q.Add(key, id)
	}
	return q
}

// ListDevices lists registered devices, optionally restricted to ids.
func (c *Client) ListDevices(ctx context.Context, ids ...string) ([]model.Device, error) {
	return list[model.Device](ctx, c, &request{
		method: http.MethodGet,
		path:   []string{"api", "v1", "devices"},
		query:  idQuery("deviceIdFilter", ids),
	})
}

// GetDevice returns one device.
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	var d model.Device
	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     devicePath(deviceID),
		deviceID: deviceID,
	}, decodeJSON(&d))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDevices removes devices from the hub and returns the IDs the hub
// deleted.
func (c *Client) DeleteDevices(ctx context.Context, ids ...string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	r := &request{
		method: http.MethodDelete,
		path:   []string{"api", "v1", "devices"},
		query:  idQuery("deviceIdFilter", ids),
	}
	if len(ids) == 1 {
		r.deviceID = ids[0]
	}
	var resp struct {
		DeviceIDs []string `json:"deviceIds"`
	}
	if err := c.do(ctx, r, decodeJSON(&resp)); err != nil {
		return nil, err
	}
	if resp.DeviceIDs == nil {
		resp.DeviceIDs = []string{}
	}
	return resp.DeviceIDs, nil
}

// SetTwinSynchronization enables or disables the device twin.
func (c *Client) SetTwinSynchronization(ctx context.Context, deviceID string, enabled bool) error {
	r := &request{
		method:        http.MethodPut,
		path:          devicePath(deviceID, "metadata"),
		body:          map[string]bool{"twinEnabled": enabled},
		deviceID:      deviceID,
		correlationID: c.newID(),
	}
	return c.do(ctx, r, nil)
}
