package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hubconsole/hubconsole-go/pkg/content"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

// hrefPath appends the segments of href to prefix.
func hrefPath(prefix []string, href string) []string {
	return append(prefix, restree.ParseHref(href)...)
}

type linksItem struct {
	DeviceID  string               `json:"deviceId"`
	Resources []model.ResourceLink `json:"resources"`
}

// ListResourceLinks returns the resource links the device published.
func (c *Client) ListResourceLinks(ctx context.Context, deviceID string) ([]model.ResourceLink, error) {
	items, err := list[linksItem](ctx, c, &request{
		method:   http.MethodGet,
		path:     devicePath(deviceID, "resource-links"),
		deviceID: deviceID,
	})
	if err != nil {
		return nil, err
	}
	links := make([]model.ResourceLink, 0)
	for _, item := range items {
		for _, l := range item.Resources {
			if l.DeviceID == "" {
				l.DeviceID = item.DeviceID
			}
			links = append(links, l)
		}
	}
	return links, nil
}

// GetResourceTree returns the device resource links as a tree.
func (c *Client) GetResourceTree(ctx context.Context, deviceID string) ([]*restree.Node, error) {
	links, err := c.ListResourceLinks(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return restree.Build(links), nil
}

// resourceData is the "data" member of resource responses.
type resourceData struct {
	ResourceID   model.ResourceID   `json:"resourceId"`
	Content      json.RawMessage    `json:"content"`
	Status       string             `json:"status"`
	AuditContext model.AuditContext `json:"auditContext"`
}

type resourceResponse struct {
	Types []string      `json:"types"`
	Data  *resourceData `json:"data"`
}

func (r *resourceResponse) resource(deviceID, href string) (*model.Resource, error) {
	res := &model.Resource{
		ResourceID:  model.ResourceID{DeviceID: deviceID, Href: href},
		Types:       r.Types,
		ContentType: content.ContentTypeJSON,
	}
	if r.Data == nil {
		return res, nil
	}
	if r.Data.ResourceID.Href != "" {
		res.ResourceID = r.Data.ResourceID
	}
	res.Status = r.Data.Status
	res.AuditContext = r.Data.AuditContext

	v, err := content.Decode(content.ContentTypeJSON, r.Data.Content)
	if err != nil {
		return nil, err
	}
	if v, err = content.Unwrap(v); err != nil {
		return nil, fmt.Errorf("resource content: %w", err)
	}
	res.Content = v
	return res, nil
}

// GetResource reads a resource. With twin set the hub answers from the
// device twin instead of asking the device.
func (c *Client) GetResource(ctx context.Context, deviceID, href string, twin bool) (*model.Resource, error) {
	var resp resourceResponse
	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     hrefPath(devicePath(deviceID, "resources"), href),
		query:    url.Values{"twin": {strconv.FormatBool(twin)}},
		deviceID: deviceID,
	}, decodeJSON(&resp))
	if err != nil {
		return nil, err
	}
	return resp.resource(deviceID, href)
}

// UpdateResource sends value to the resource.
func (c *Client) UpdateResource(ctx context.Context, deviceID, href string, value any, t ttl.TTL) (*model.Resource, error) {
	return c.resourceCommand(ctx, http.MethodPut, devicePath(deviceID, "resources"), deviceID, href, value, t)
}

// CreateResource creates a resource below the collection at href.
func (c *Client) CreateResource(ctx context.Context, deviceID, href string, value any, t ttl.TTL) (*model.Resource, error) {
	return c.resourceCommand(ctx, http.MethodPost, devicePath(deviceID, "resource-links"), deviceID, href, value, t)
}

// DeleteResource deletes the resource at href.
func (c *Client) DeleteResource(ctx context.Context, deviceID, href string, t ttl.TTL) (*model.Resource, error) {
	return c.resourceCommand(ctx, http.MethodDelete, devicePath(deviceID, "resource-links"), deviceID, href, nil, t)
}

func (c *Client) resourceCommand(ctx context.Context, method string, prefix []string, deviceID, href string, value any, t ttl.TTL) (*model.Resource, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	r := c.command(&request{
		method:   method,
		path:     hrefPath(prefix, href),
		body:     value,
		deviceID: deviceID,
	}, t)

	var resp resourceResponse
	if err := c.do(ctx, r, decodeJSON(&resp)); err != nil {
		return nil, &CommandError{CorrelationID: r.correlationID, Err: err}
	}
	res, err := resp.resource(deviceID, href)
	if err != nil {
		return nil, err
	}
	if res.AuditContext.CorrelationID == "" {
		res.AuditContext.CorrelationID = r.correlationID
	}
	return res, nil
}

type pendingEntry struct {
	ResourceID   model.ResourceID   `json:"resourceId"`
	DeviceID     string             `json:"deviceId"`
	AuditContext model.AuditContext `json:"auditContext"`
	ValidUntil   model.NanoTime     `json:"validUntil"`
}

type pendingItem map[model.PendingCommandKind]pendingEntry

// ListPendingCommands returns the commands the hub holds for the device.
func (c *Client) ListPendingCommands(ctx context.Context, deviceID string) ([]model.PendingCommand, error) {
	items, err := list[pendingItem](ctx, c, &request{
		method:   http.MethodGet,
		path:     []string{"api", "v1", "pending-commands"},
		query:    url.Values{"deviceIdFilter": {deviceID}},
		deviceID: deviceID,
	})
	if err != nil {
		return nil, err
	}
	cmds := make([]model.PendingCommand, 0, len(items))
	for _, item := range items {
		for kind, e := range item {
			id := e.ResourceID
			if id.DeviceID == "" {
				id.DeviceID = e.DeviceID
			}
			cmds = append(cmds, model.PendingCommand{
				Kind:          kind,
				ResourceID:    id,
				CorrelationID: e.AuditContext.CorrelationID,
				ValidUntil:    e.ValidUntil,
			})
		}
	}
	return cmds, nil
}

// CancelPendingCommands cancels pending commands of the device. Without
// correlation IDs every pending command is cancelled. It returns the
// cancelled correlation IDs.
func (c *Client) CancelPendingCommands(ctx context.Context, deviceID string, correlationIDs ...string) ([]string, error) {
	var resp struct {
		CorrelationIDs []string `json:"correlationIds"`
	}
	err := c.do(ctx, &request{
		method:   http.MethodDelete,
		path:     devicePath(deviceID, "pending-commands"),
		query:    idQuery("correlationIdFilter", correlationIDs),
		deviceID: deviceID,
	}, decodeJSON(&resp))
	if err != nil {
		return nil, err
	}
	if resp.CorrelationIDs == nil {
		resp.CorrelationIDs = []string{}
	}
	return resp.CorrelationIDs, nil
}
