package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hubconsole/hubconsole-go/cmd/hubconsole-web/api"
	"github.com/hubconsole/hubconsole-go/pkg/discovery"
	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

type fakeHub struct {
	lastTwin bool
	lastTTL  ttl.TTL
	updated  any
}

func (f *fakeHub) ListDevices(_ context.Context, ids ...string) ([]model.Device, error) {
	devices := []model.Device{
		{ID: "dev-1", Name: "Lamp"},
		{ID: "dev-2", Name: "Thermostat"},
	}
	if len(ids) == 0 {
		return devices, nil
	}
	var out []model.Device
	for _, d := range devices {
		for _, id := range ids {
			if d.ID == id {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (f *fakeHub) GetResourceTree(_ context.Context, deviceID string) ([]*restree.Node, error) {
	if deviceID != "dev-1" {
		return nil, &hub.APIError{Status: http.StatusNotFound, Code: 5, Message: "device not found"}
	}
	return restree.Build([]model.ResourceLink{
		{Href: "/light/1", DeviceID: deviceID},
		{Href: "/light/2", DeviceID: deviceID},
		{Href: "/oic/d", DeviceID: deviceID},
	}), nil
}

func (f *fakeHub) GetResource(_ context.Context, deviceID, href string, twin bool) (*model.Resource, error) {
	f.lastTwin = twin
	if href != "/light/1" {
		return nil, &hub.APIError{Status: http.StatusNotFound, Code: 5}
	}
	return &model.Resource{
		ResourceID: model.ResourceID{DeviceID: deviceID, Href: href},
		Content:    map[string]any{"state": true},
	}, nil
}

func (f *fakeHub) UpdateResource(_ context.Context, deviceID, href string, value any, t ttl.TTL) (*model.Resource, error) {
	f.lastTTL = t
	f.updated = value
	if href == "/offline" {
		return nil, &hub.CommandError{
			CorrelationID: "corr-1",
			Err:           &hub.APIError{Status: http.StatusGatewayTimeout, Code: 4},
		}
	}
	return &model.Resource{
		ResourceID: model.ResourceID{DeviceID: deviceID, Href: href},
		Content:    value,
	}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeHub) {
	t.Helper()

	store, err := persistence.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	h := &fakeHub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(ServerConfig{Version: "1.0.0-test", HubURL: "https://hub.test"}, h, store, logger)
	t.Cleanup(func() { srv.Close() })
	return srv, h
}

func serve(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var resp map[string]string
	decode(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %q", resp["status"])
	}
	if resp["version"] != "1.0.0-test" {
		t.Errorf("Expected version '1.0.0-test', got %q", resp["version"])
	}
	if resp["hub"] != "https://hub.test" {
		t.Errorf("Expected hub URL, got %q", resp["hub"])
	}
}

func TestHealthEndpointMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, http.MethodPost, "/api/v1/health", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestMethodMismatchOnEveryRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodDelete, "/api/v1/devices"},
		{http.MethodPost, "/api/v1/devices/dev-1/tree"},
		{http.MethodDelete, "/api/v1/devices/dev-1/resources/light/1"},
		{http.MethodPut, "/api/v1/clients"},
		{http.MethodGet, "/api/v1/clients/c1"},
		{http.MethodPost, "/api/v1/ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := serve(srv, tt.method, tt.target, "")
			if w.Code != http.StatusMethodNotAllowed {
				t.Fatalf("Expected status 405, got %d: %s", w.Code, w.Body.String())
			}
			var resp api.ErrorResponse
			decode(t, w, &resp)
			if resp.Error != "Method not allowed" {
				t.Errorf("Unexpected error %q", resp.Error)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, http.MethodGet, "/api/v1/nothing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
	var resp api.ErrorResponse
	decode(t, w, &resp)
	if resp.Error == "" {
		t.Error("Expected an error message")
	}
}

func TestDevicesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, http.MethodGet, "/api/v1/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp api.DeviceListResponse
	decode(t, w, &resp)
	if resp.Total != 2 || len(resp.Devices) != 2 {
		t.Errorf("Expected 2 devices, got %d", resp.Total)
	}

	w = serve(srv, http.MethodGet, "/api/v1/devices?id=dev-2&id=unknown", "")
	decode(t, w, &resp)
	if resp.Total != 1 || resp.Devices[0].ID != "dev-2" {
		t.Errorf("Expected only dev-2, got %+v", resp.Devices)
	}

	w = serve(srv, http.MethodGet, "/api/v1/devices?id=unknown", "")
	if !strings.Contains(w.Body.String(), `"devices":[]`) {
		t.Errorf("Expected an empty device array, got %s", w.Body.String())
	}
}

func TestTreeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, http.MethodGet, "/api/v1/devices/dev-1/tree", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp api.TreeResponse
	decode(t, w, &resp)
	if resp.DeviceID != "dev-1" {
		t.Errorf("Expected dev-1, got %q", resp.DeviceID)
	}
	if resp.Resources != 3 {
		t.Errorf("Expected 3 resources, got %d", resp.Resources)
	}
	if len(resp.Nodes) != 2 || resp.Nodes[0].Href != "/light/" || len(resp.Nodes[0].SubRows) != 2 {
		t.Errorf("Unexpected tree: %s", w.Body.String())
	}

	w = serve(srv, http.MethodGet, "/api/v1/devices/dev-9/tree", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for an unknown device, got %d", w.Code)
	}
}

func TestResourceEndpoint(t *testing.T) {
	srv, h := newTestServer(t)

	w := serve(srv, http.MethodGet, "/api/v1/devices/dev-1/resources/light/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var res model.Resource
	decode(t, w, &res)
	if res.ResourceID.Href != "/light/1" {
		t.Errorf("Expected href /light/1, got %q", res.ResourceID.Href)
	}
	if !h.lastTwin {
		t.Error("Expected a twin read by default")
	}

	serve(srv, http.MethodGet, "/api/v1/devices/dev-1/resources/light/1?twin=false", "")
	if h.lastTwin {
		t.Error("Expected a live read with twin=false")
	}

	w = serve(srv, http.MethodGet, "/api/v1/devices/dev-1/resources/light/1?twin=maybe", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an invalid twin parameter, got %d", w.Code)
	}

	w = serve(srv, http.MethodGet, "/api/v1/devices/dev-1/resources/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpdateResourceEndpoint(t *testing.T) {
	srv, h := newTestServer(t)

	w := serve(srv, http.MethodPut, "/api/v1/devices/dev-1/resources/light/1?ttl=10s", `{"state":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.UpdateResponse
	decode(t, w, &resp)
	if resp.Outcome != "OK" {
		t.Errorf("Expected outcome OK, got %q", resp.Outcome)
	}
	if h.lastTTL.String() != "10 s" {
		t.Errorf("Expected ttl 10 s, got %s", h.lastTTL)
	}
	if m, ok := h.updated.(map[string]any); !ok || m["state"] != false {
		t.Errorf("Unexpected update value %#v", h.updated)
	}
}

func TestUpdateResourceScheduled(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, http.MethodPut, "/api/v1/devices/dev-1/resources/offline", `{"state":true}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.UpdateResponse
	decode(t, w, &resp)
	if resp.Outcome != "SCHEDULED" {
		t.Errorf("Expected outcome SCHEDULED, got %q", resp.Outcome)
	}
	if resp.CorrelationID != "corr-1" {
		t.Errorf("Expected correlation ID corr-1, got %q", resp.CorrelationID)
	}
}

func TestUpdateResourceBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"invalid body", "/api/v1/devices/dev-1/resources/light/1", `{"state":`},
		{"invalid ttl", "/api/v1/devices/dev-1/resources/light/1?ttl=soon", `{}`},
		{"ttl below minimum", "/api/v1/devices/dev-1/resources/light/1?ttl=5ms", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, http.MethodPut, tt.target, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestUpdateResourceBodyTooLarge(t *testing.T) {
	srv, h := newTestServer(t)

	body := `"` + strings.Repeat("x", 1<<20) + `"`
	w := serve(srv, http.MethodPut, "/api/v1/devices/dev-1/resources/light/1", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected status 413, got %d", w.Code)
	}
	if h.updated != nil {
		t.Errorf("Expected no update, got %#v", h.updated)
	}
}

func TestClientsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv, http.MethodPost, "/api/v1/clients",
		`{"name":"Lab","url":"https://lab.local:8443","authMode":"X509"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created model.RemoteClient
	decode(t, w, &created)
	if created.ID == "" || created.Status != model.ClientStatusUnknown {
		t.Errorf("Unexpected client %+v", created)
	}

	w = serve(srv, http.MethodPost, "/api/v1/clients", `{"name":"Again","url":"https://lab.local:8443"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a duplicate URL, got %d", w.Code)
	}

	w = serve(srv, http.MethodPost, "/api/v1/clients", `{"name":"","url":"https://other.local"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a name, got %d", w.Code)
	}

	w = serve(srv, http.MethodGet, "/api/v1/clients", "")
	var list api.ClientListResponse
	decode(t, w, &list)
	if list.Total != 1 || list.Clients[0].Name != "Lab" {
		t.Errorf("Unexpected client list %+v", list)
	}

	w = serve(srv, http.MethodDelete, "/api/v1/clients/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	w = serve(srv, http.MethodDelete, "/api/v1/clients/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestTTLEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		query    string
		wantNS   int64
		wantUnit string
		wantVal  float64
	}{
		{"with unit suffix", "value=1.5s", 1_500_000_000, "s", 1.5},
		{"explicit unit", "value=500&unit=ms", 500_000_000, "ms", 500},
		{"remembered unit", "value=250", 250_000_000, "ms", 250},
		{"minutes", "value=90&unit=s", 90_000_000_000, "m", 1.5},
		{"infinite", "value=" + url.QueryEscape("∞"), 0, "∞", 0},
		{"zero", "value=0", 0, "∞", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, http.MethodGet, "/api/v1/ttl?"+tt.query, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp api.TTLResponse
			decode(t, w, &resp)
			if resp.Nanoseconds != tt.wantNS {
				t.Errorf("Expected %d ns, got %d", tt.wantNS, resp.Nanoseconds)
			}
			if resp.Unit != tt.wantUnit {
				t.Errorf("Expected unit %q, got %q", tt.wantUnit, resp.Unit)
			}
			if resp.Value != tt.wantVal {
				t.Errorf("Expected value %v, got %v", tt.wantVal, resp.Value)
			}
			if resp.Infinite != (tt.wantNS == 0) {
				t.Errorf("Unexpected infinite flag %v", resp.Infinite)
			}
		})
	}
}

func TestTTLEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, q := range []string{"", "value=", "value=50ms", "value=-1s", "value=10&unit=weeks", "value=later"} {
		w := serve(srv, http.MethodGet, "/api/v1/ttl?"+q, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%q: expected status 400, got %d", q, w.Code)
		}
	}
}

type failingPrefs struct{}

func (failingPrefs) Preference(string) (string, bool, error) { return "", false, nil }

func (failingPrefs) SetPreference(string, string) error { return errors.New("disk full") }

func TestTTLEndpointLogsPreferenceFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ttlAPI := api.NewTTLAPI(failingPrefs{}, logger)

	w := httptest.NewRecorder()
	ttlAPI.HandleConvert(w, httptest.NewRequest(http.MethodGet, "/api/v1/ttl?value=2&unit=s", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Errorf("Expected the store error to be logged, got %q", logs.String())
	}
}

type fakeAdvertiser struct {
	infos   []*discovery.ClientInfo
	stopped int
}

func (a *fakeAdvertiser) Advertise(_ context.Context, info *discovery.ClientInfo) error {
	a.infos = append(a.infos, info)
	return nil
}

func (a *fakeAdvertiser) Stop() error {
	a.stopped++
	return nil
}

func TestAnnounce(t *testing.T) {
	store, err := persistence.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := ServerConfig{Port: 9000, Version: "1.2.3", Name: "lab console"}
	srv := NewServer(cfg, &fakeHub{}, store, logger)
	defer srv.Close()

	adv := &fakeAdvertiser{}
	if err := srv.Announce(context.Background(), adv); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	if len(adv.infos) != 1 {
		t.Fatalf("Expected one announcement, got %d", len(adv.infos))
	}
	info := adv.infos[0]
	if info.ID == "" || info.Name != "lab console" || info.Version != "1.2.3" || info.Port != 9000 {
		t.Errorf("Unexpected announcement %+v", info)
	}

	// The id survives a second announcement from the same store.
	if err := srv.Announce(context.Background(), adv); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	if adv.infos[1].ID != info.ID {
		t.Errorf("Expected stable id %q, got %q", info.ID, adv.infos[1].ID)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if adv.stopped != 1 {
		t.Errorf("Expected the announcement to be stopped once, got %d", adv.stopped)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Second shutdown failed: %v", err)
	}
	if adv.stopped != 1 {
		t.Errorf("Expected no second stop, got %d", adv.stopped)
	}
}
