package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/persistence"
)

// ClientsAPI handles remote client endpoints.
type ClientsAPI struct {
	store ClientStore
}

// NewClientsAPI creates a new clients API handler.
func NewClientsAPI(store ClientStore) *ClientsAPI {
	return &ClientsAPI{store: store}
}

// HandleList handles GET /api/v1/clients.
func (c *ClientsAPI) HandleList(w http.ResponseWriter, req *http.Request) {
	clients, err := c.store.ListClients()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to list clients", err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, ClientListResponse{Clients: clients, Total: len(clients)})
}

// HandleCreate handles POST /api/v1/clients.
func (c *ClientsAPI) HandleCreate(w http.ResponseWriter, req *http.Request) {
	var body ClientRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	client := &model.RemoteClient{
		Name:     body.Name,
		URL:      body.URL,
		AuthMode: body.AuthMode,
	}
	if err := client.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid client", err.Error())
		return
	}

	if err := c.store.AddClient(client); err != nil {
		if errors.Is(err, persistence.ErrDuplicateURL) {
			writeJSONError(w, http.StatusConflict, "Client already registered", err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Failed to add client", err.Error())
		return
	}

	writeJSONResponse(w, http.StatusCreated, client)
}

// HandleDelete handles DELETE /api/v1/clients/{id}.
func (c *ClientsAPI) HandleDelete(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	if err := c.store.DeleteClient(id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "Client not found", id)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete client", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
