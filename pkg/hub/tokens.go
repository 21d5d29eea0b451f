package hub

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// ErrTokenName is returned when creating a token without a name.
var ErrTokenName = errors.New("token name is required")

// Grant and assertion types of the token endpoint.
const (
	grantClientCredentials = "client_credentials"
	assertionJWTBearer     = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
)

func tokensPath(rest ...string) []string {
	return append([]string{"m2m-oauth-server", "api", "v1", "tokens"}, rest...)
}

// ListTokens lists API tokens of the caller.
func (c *Client) ListTokens(ctx context.Context, includeBlacklisted bool) ([]model.Token, error) {
	q := url.Values{}
	if includeBlacklisted {
		q.Set("includeBlacklisted", "true")
	}
	return list[model.Token](ctx, c, &request{
		method: http.MethodGet,
		path:   tokensPath(),
		query:  q,
	})
}

// TokenRequest describes a new API token.
type TokenRequest struct {
	Name string

	// Expiration is the absolute expiry. The zero time requests a token
	// that never expires, if the server allows it.
	Expiration time.Time

	// ClientID is the OAuth client of the token server.
	ClientID string

	// ClientSecret authenticates ClientID. Without it the client's own
	// bearer token is used as the client assertion.
	ClientSecret string

	Scope []string
}

type tokenBody struct {
	GrantType           string   `json:"grant_type"`
	ClientID            string   `json:"client_id,omitempty"`
	ClientSecret        string   `json:"client_secret,omitempty"`
	ClientAssertionType string   `json:"client_assertion_type,omitempty"`
	ClientAssertion     string   `json:"client_assertion,omitempty"`
	TokenName           string   `json:"token_name"`
	Expiration          int64    `json:"expiration,omitempty"`
	Scope               []string `json:"scope,omitempty"`
}

// CreateToken issues a new API token. The returned secret is not
// retrievable later.
func (c *Client) CreateToken(ctx context.Context, req TokenRequest) (*model.CreatedToken, error) {
	if req.Name == "" {
		return nil, ErrTokenName
	}
	body := tokenBody{
		GrantType:    grantClientCredentials,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		TokenName:    req.Name,
		Scope:        req.Scope,
	}
	if req.ClientSecret == "" && c.token != "" {
		body.ClientAssertionType = assertionJWTBearer
		body.ClientAssertion = c.token
	}
	if !req.Expiration.IsZero() {
		body.Expiration = req.Expiration.Unix()
	}

	var created model.CreatedToken
	err := c.do(ctx, &request{
		method: http.MethodPost,
		path:   []string{"m2m-oauth-server", "oauth", "token"},
		body:   body,
	}, decodeJSON(&created))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// BlacklistTokens revokes tokens and returns how many were blacklisted.
func (c *Client) BlacklistTokens(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	var resp struct {
		BlacklistedCount model.Count `json:"blacklistedCount"`
		DeletedCount     model.Count `json:"deletedCount"`
	}
	err := c.do(ctx, &request{
		method: http.MethodDelete,
		path:   tokensPath(),
		body:   map[string][]string{"idFilter": ids},
	}, decodeJSON(&resp))
	if err != nil {
		return 0, err
	}
	return int64(resp.BlacklistedCount), nil
}
