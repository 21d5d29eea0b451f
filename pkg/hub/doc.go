// Package hub is a client for the HTTP gateway of a device-management hub.
//
// The gateway fronts several hub services, each under its own prefix:
//
//	/api/v1/devices, /api/v1/pending-commands    device registry and commands
//	/api/v1/ws/events                            event stream (WebSocket)
//	/m2m-oauth-server/...                        API token server
//	/certificate-authority/...                   certificate authority
//	/api/v1/enrollment-groups, /hubs, ...        provisioning service
//
// The provisioning service may live at a different address; see
// Config.ProvisioningURL.
//
// # Responses
//
// List calls answer with a stream of JSON objects, one per item, each
// wrapped as {"result": {...}}. An object carrying {"error": {...}} ends
// the stream. Errors use the gateway error body {code, message, details}
// and are returned as *APIError.
//
// # Commands
//
// Resource updates, creates and deletes are commands: the hub forwards
// them to the device and waits up to the command time-to-live for the
// answer. When the device does not answer in time the hub keeps the
// command pending and the call fails with a deadline error. Classify maps
// that case to model.OutcomeScheduled so callers can tell it from a real
// failure.
//
// Every command carries a fresh correlation ID, which is how pending
// commands are listed and cancelled later.
package hub
