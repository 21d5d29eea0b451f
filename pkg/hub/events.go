package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hubconsole/hubconsole-go/pkg/content"
	"github.com/hubconsole/hubconsole-go/pkg/log"
	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// EventType classifies a stream event.
type EventType string

const (
	EventConnected           EventType = "CONNECTED"
	EventDisconnected        EventType = "DISCONNECTED"
	EventDeviceOnline        EventType = "DEVICE_ONLINE"
	EventDeviceOffline       EventType = "DEVICE_OFFLINE"
	EventTwinUpdated         EventType = "TWIN_UPDATED"
	EventDeviceRegistered    EventType = "DEVICE_REGISTERED"
	EventDeviceUnregistered  EventType = "DEVICE_UNREGISTERED"
	EventResourceChanged     EventType = "RESOURCE_CHANGED"
	EventResourcePublished   EventType = "RESOURCE_PUBLISHED"
	EventResourceUnpublished EventType = "RESOURCE_UNPUBLISHED"
)

// Event is a decoded event stream message, or a connection state change
// (EventConnected, EventDisconnected).
type Event struct {
	Type     EventType
	DeviceID string
	Href     string

	// Hrefs lists unpublished resources.
	Hrefs []string

	// Links lists published resources.
	Links []model.ResourceLink

	// Content is the new resource content of EventResourceChanged.
	Content any

	// Metadata is set for device metadata events.
	Metadata *model.DeviceMetadata

	// Err and Retry describe why and for how long the stream is down.
	Err   error
	Retry time.Duration
}

// Hub event filter names.
var subscribedEvents = []string{
	"REGISTERED",
	"UNREGISTERED",
	"DEVICE_METADATA_UPDATED",
	"RESOURCE_PUBLISHED",
	"RESOURCE_UNPUBLISHED",
	"RESOURCE_CHANGED",
}

type subscription struct {
	CreateSubscription struct {
		EventFilter    []string `json:"eventFilter"`
		DeviceIDFilter []string `json:"deviceIdFilter,omitempty"`
	} `json:"createSubscription"`
	CorrelationID string `json:"correlationId"`
}

type wireEvent struct {
	SubscriptionID        string `json:"subscriptionId"`
	DeviceMetadataUpdated *struct {
		DeviceID            string                     `json:"deviceId"`
		Connection          *model.Connection          `json:"connection"`
		TwinSynchronization *model.TwinSynchronization `json:"twinSynchronization"`
		TwinEnabled         bool                       `json:"twinEnabled"`
	} `json:"deviceMetadataUpdated"`
	DeviceRegistered *struct {
		DeviceIDs []string `json:"deviceIds"`
	} `json:"deviceRegistered"`
	DeviceUnregistered *struct {
		DeviceIDs []string `json:"deviceIds"`
	} `json:"deviceUnregistered"`
	ResourcePublished *struct {
		DeviceID  string               `json:"deviceId"`
		Resources []model.ResourceLink `json:"resources"`
	} `json:"resourcePublished"`
	ResourceUnpublished *struct {
		DeviceID string   `json:"deviceId"`
		Hrefs    []string `json:"hrefs"`
	} `json:"resourceUnpublished"`
	ResourceChanged *struct {
		ResourceID model.ResourceID `json:"resourceId"`
		Content    json.RawMessage  `json:"content"`
	} `json:"resourceChanged"`
}

type wireMessage struct {
	Result *wireEvent `json:"result"`
	Error  *errorBody `json:"error"`
}

// parseEvents decodes one stream message. A message about several devices
// yields one event per device.
func parseEvents(data []byte) ([]Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if msg.Error != nil {
		return nil, msg.Error.apiError(http.StatusOK)
	}
	ev := msg.Result
	if ev == nil {
		return nil, nil
	}

	switch {
	case ev.DeviceMetadataUpdated != nil:
		u := ev.DeviceMetadataUpdated
		md := &model.DeviceMetadata{TwinEnabled: u.TwinEnabled}
		typ := EventTwinUpdated
		if u.TwinSynchronization != nil {
			md.TwinSynchronization = *u.TwinSynchronization
		}
		if u.Connection != nil {
			md.Connection = *u.Connection
			typ = EventDeviceOffline
			if u.Connection.Status == model.ConnectionOnline {
				typ = EventDeviceOnline
			}
		}
		return []Event{{Type: typ, DeviceID: u.DeviceID, Metadata: md}}, nil
	case ev.DeviceRegistered != nil:
		return perDevice(EventDeviceRegistered, ev.DeviceRegistered.DeviceIDs), nil
	case ev.DeviceUnregistered != nil:
		return perDevice(EventDeviceUnregistered, ev.DeviceUnregistered.DeviceIDs), nil
	case ev.ResourcePublished != nil:
		p := ev.ResourcePublished
		return []Event{{Type: EventResourcePublished, DeviceID: p.DeviceID, Links: p.Resources}}, nil
	case ev.ResourceUnpublished != nil:
		u := ev.ResourceUnpublished
		return []Event{{Type: EventResourceUnpublished, DeviceID: u.DeviceID, Hrefs: u.Hrefs}}, nil
	case ev.ResourceChanged != nil:
		ch := ev.ResourceChanged
		v, err := content.Decode(content.ContentTypeJSON, ch.Content)
		if err != nil {
			return nil, err
		}
		if v, err = content.Unwrap(v); err != nil {
			return nil, err
		}
		return []Event{{
			Type:     EventResourceChanged,
			DeviceID: ch.ResourceID.DeviceID,
			Href:     ch.ResourceID.Href,
			Content:  v,
		}}, nil
	}
	return nil, nil
}

func perDevice(typ EventType, ids []string) []Event {
	events := make([]Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, Event{Type: typ, DeviceID: id})
	}
	return events
}

func (c *Client) eventsURL() string {
	u := c.endpoint(&request{path: []string{"api", "v1", "ws", "events"}})
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}

// Watch streams hub events to handler until ctx is cancelled. An empty
// deviceID watches every device. The stream is re-established with
// exponential backoff; handler sees EventConnected and EventDisconnected
// for every transition. Watch returns ctx.Err() on cancellation, or the
// error when the hub rejects the credentials.
func (c *Client) Watch(ctx context.Context, deviceID string, handler func(Event)) error {
	b := NewBackoff(c.reconnect)
	for {
		connected, err := c.watchOnce(ctx, deviceID, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrPermissionDenied) {
			c.logState(deviceID, "CLOSED", err)
			return err
		}
		if connected {
			b.Reset()
		}

		delay := b.Next()
		c.logState(deviceID, "DISCONNECTED", err)
		handler(Event{Type: EventDisconnected, DeviceID: deviceID, Err: err, Retry: delay})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// watchOnce runs one connection. It reports whether the subscription was
// established before the connection ended.
func (c *Client) watchOnce(ctx context.Context, deviceID string, handler func(Event)) (bool, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.timeout,
		TLSClientConfig:  c.tlsConfig,
	}
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := dialer.DialContext(ctx, c.eventsURL(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return false, readError(resp)
		}
		return false, fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	var sub subscription
	sub.CreateSubscription.EventFilter = subscribedEvents
	if deviceID != "" {
		sub.CreateSubscription.DeviceIDFilter = []string{deviceID}
	}
	sub.CorrelationID = c.newID()
	if err := conn.WriteJSON(sub); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	c.logState(deviceID, "CONNECTED", nil)
	handler(Event{Type: EventConnected, DeviceID: deviceID})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read event stream: %w", err)
		}
		events, err := parseEvents(data)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return true, err
			}
			c.logger.Log(log.Event{
				Timestamp: time.Now(),
				RequestID: c.newID(),
				Category:  log.CategoryError,
				Service:   log.ServiceEvents,
				DeviceID:  deviceID,
				Outcome:   model.OutcomeFailed,
				Error:     err.Error(),
			})
			continue
		}
		for _, ev := range events {
			c.logger.Log(log.Event{
				Timestamp: time.Now(),
				RequestID: c.newID(),
				Category:  log.CategoryNotification,
				Service:   log.ServiceEvents,
				DeviceID:  ev.DeviceID,
				Detail:    string(ev.Type),
			})
			handler(ev)
		}
	}
}

func (c *Client) logState(deviceID, state string, err error) {
	event := log.Event{
		Timestamp: time.Now(),
		RequestID: c.newID(),
		Category:  log.CategoryState,
		Service:   log.ServiceEvents,
		DeviceID:  deviceID,
		Detail:    state,
	}
	if err != nil {
		event.Error = err.Error()
		event.Outcome = model.OutcomeFailed
	}
	c.logger.Log(event)
}
