package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hubconsole/hubconsole-go/pkg/hub"
	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

// maxUpdateBody bounds the JSON body of a resource update.
const maxUpdateBody = 1 << 20

// DevicesAPI handles device and resource endpoints.
type DevicesAPI struct {
	hub     Hub
	timeout time.Duration
}

// NewDevicesAPI creates a new devices API handler. A zero timeout uses
// hub.DefaultTimeout.
func NewDevicesAPI(h Hub, timeout time.Duration) *DevicesAPI {
	if timeout <= 0 {
		timeout = hub.DefaultTimeout
	}
	return &DevicesAPI{hub: h, timeout: timeout}
}

func (d *DevicesAPI) context(req *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(req.Context(), d.timeout)
}

// HandleList handles GET /api/v1/devices. Repeated id parameters select
// devices.
func (d *DevicesAPI) HandleList(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := d.context(req)
	defer cancel()

	devices, err := d.hub.ListDevices(ctx, req.URL.Query()["id"]...)
	if err != nil {
		writeJSONError(w, hubStatus(err), "Failed to list devices", err.Error())
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}

	writeJSONResponse(w, http.StatusOK, DeviceListResponse{Devices: devices, Total: len(devices)})
}

// HandleTree handles GET /api/v1/devices/{deviceId}/tree.
func (d *DevicesAPI) HandleTree(w http.ResponseWriter, req *http.Request) {
	deviceID := mux.Vars(req)["deviceId"]

	ctx, cancel := d.context(req)
	defer cancel()

	nodes, err := d.hub.GetResourceTree(ctx, deviceID)
	if err != nil {
		writeJSONError(w, hubStatus(err), "Failed to load resources", err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, TreeResponse{
		DeviceID:  deviceID,
		Nodes:     nodes,
		Resources: restree.Count(nodes),
	})
}

// resourceHref returns the href of a resource route, with its leading
// slash.
func resourceHref(req *http.Request) string {
	return "/" + strings.TrimPrefix(mux.Vars(req)["href"], "/")
}

// HandleGetResource handles GET /api/v1/devices/{deviceId}/resources/{href}.
// twin=false reads the device instead of the twin.
func (d *DevicesAPI) HandleGetResource(w http.ResponseWriter, req *http.Request) {
	deviceID := mux.Vars(req)["deviceId"]
	href := resourceHref(req)

	twin := true
	if v := req.URL.Query().Get("twin"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid twin parameter", err.Error())
			return
		}
		twin = b
	}

	ctx, cancel := d.context(req)
	defer cancel()

	res, err := d.hub.GetResource(ctx, deviceID, href, twin)
	if err != nil {
		writeJSONError(w, hubStatus(err), "Failed to read resource", err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, res)
}

// HandleUpdateResource handles PUT /api/v1/devices/{deviceId}/resources/{href}.
// The body is the new content; ttl gives the command time-to-live.
func (d *DevicesAPI) HandleUpdateResource(w http.ResponseWriter, req *http.Request) {
	deviceID := mux.Vars(req)["deviceId"]
	href := resourceHref(req)

	var t ttl.TTL
	if v := req.URL.Query().Get("ttl"); v != "" {
		parsed, err := ttl.Parse(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid ttl parameter", err.Error())
			return
		}
		t = parsed
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxUpdateBody+1))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Failed to read request body", err.Error())
		return
	}
	if len(body) > maxUpdateBody {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large",
			fmt.Sprintf("limit is %d bytes", maxUpdateBody))
		return
	}
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	// The client bounds commands by their time-to-live.
	res, err := d.hub.UpdateResource(req.Context(), deviceID, href, value, t)
	outcome := hub.Classify(err)
	resp := UpdateResponse{Outcome: outcome.String(), Resource: res}

	switch outcome {
	case model.OutcomeOK:
		writeJSONResponse(w, http.StatusOK, resp)
	case model.OutcomeScheduled:
		resp.CorrelationID = hub.CorrelationID(err)
		resp.Error = err.Error()
		writeJSONResponse(w, http.StatusAccepted, resp)
	default:
		resp.Error = err.Error()
		writeJSONResponse(w, hubStatus(err), resp)
	}
}
