package hub

import (
	"context"
	"errors"
	"net/http"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// Provisioning validation errors.
var (
	ErrGroupName   = errors.New("enrollment group name is required")
	ErrGroupHubs   = errors.New("enrollment group needs at least one hub")
	ErrGroupChain  = errors.New("enrollment group needs an attestation certificate chain")
	ErrHubName     = errors.New("linked hub name is required")
	ErrHubGateways = errors.New("linked hub needs at least one gateway")
)

func provisioningPath(collection string) []string {
	return []string{"api", "v1", collection}
}

// ListEnrollmentGroups lists enrollment groups, optionally restricted to ids.
func (c *Client) ListEnrollmentGroups(ctx context.Context, ids ...string) ([]model.EnrollmentGroup, error) {
	return list[model.EnrollmentGroup](ctx, c, &request{
		method:       http.MethodGet,
		provisioning: true,
		path:         provisioningPath("enrollment-groups"),
		query:        idQuery("idFilter", ids),
	})
}

// CreateEnrollmentGroup creates an enrollment group.
func (c *Client) CreateEnrollmentGroup(ctx context.Context, g model.EnrollmentGroup) (*model.EnrollmentGroup, error) {
	switch {
	case g.Name == "":
		return nil, ErrGroupName
	case len(g.HubIDs) == 0:
		return nil, ErrGroupHubs
	case g.AttestationMechanism.X509 == nil || g.AttestationMechanism.X509.CertificateChain == "":
		return nil, ErrGroupChain
	}
	var created model.EnrollmentGroup
	err := c.do(ctx, &request{
		method:       http.MethodPost,
		provisioning: true,
		path:         provisioningPath("enrollment-groups"),
		body:         g,
	}, decodeJSON(&created))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteEnrollmentGroups deletes enrollment groups.
func (c *Client) DeleteEnrollmentGroups(ctx context.Context, ids ...string) (int64, error) {
	return c.deleteByID(ctx, &request{provisioning: true, path: provisioningPath("enrollment-groups")}, ids)
}

// ListLinkedHubs lists hubs devices can be provisioned into.
func (c *Client) ListLinkedHubs(ctx context.Context, ids ...string) ([]model.LinkedHub, error) {
	return list[model.LinkedHub](ctx, c, &request{
		method:       http.MethodGet,
		provisioning: true,
		path:         provisioningPath("hubs"),
		query:        idQuery("idFilter", ids),
	})
}

// CreateLinkedHub links a hub to the provisioning service.
func (c *Client) CreateLinkedHub(ctx context.Context, h model.LinkedHub) (*model.LinkedHub, error) {
	switch {
	case h.Name == "":
		return nil, ErrHubName
	case len(h.Gateways) == 0:
		return nil, ErrHubGateways
	}
	var created model.LinkedHub
	err := c.do(ctx, &request{
		method:       http.MethodPost,
		provisioning: true,
		path:         provisioningPath("hubs"),
		body:         h,
	}, decodeJSON(&created))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteLinkedHubs unlinks hubs.
func (c *Client) DeleteLinkedHubs(ctx context.Context, ids ...string) (int64, error) {
	return c.deleteByID(ctx, &request{provisioning: true, path: provisioningPath("hubs")}, ids)
}

// ListProvisioningRecords lists device provisioning records.
func (c *Client) ListProvisioningRecords(ctx context.Context, ids ...string) ([]model.ProvisioningRecord, error) {
	return list[model.ProvisioningRecord](ctx, c, &request{
		method:       http.MethodGet,
		provisioning: true,
		path:         provisioningPath("provisioning-records"),
		query:        idQuery("idFilter", ids),
	})
}

// DeleteProvisioningRecords deletes provisioning records.
func (c *Client) DeleteProvisioningRecords(ctx context.Context, ids ...string) (int64, error) {
	return c.deleteByID(ctx, &request{provisioning: true, path: provisioningPath("provisioning-records")}, ids)
}
