package hub

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hubconsole/hubconsole-go/pkg/log"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

// Client configuration errors.
var (
	ErrNoBaseURL = errors.New("hub base URL is required")
	ErrBaseURL   = errors.New("hub base URL must be absolute http(s)")
)

// DefaultTimeout bounds calls that are not commands.
const DefaultTimeout = 10 * time.Second

// commandGrace is added to a command time-to-live so the hub reports the
// deadline before the client gives up.
const commandGrace = 2 * time.Second

// CorrelationIDHeader carries the command correlation ID.
const CorrelationIDHeader = "Correlation-ID"

// Config configures a Client.
type Config struct {
	// BaseURL is the HTTP gateway address, e.g. https://hub.example.com.
	BaseURL string

	// ProvisioningURL is the provisioning service address. Empty uses
	// BaseURL.
	ProvisioningURL string

	// Token is the bearer token sent with every request.
	Token string

	// HTTPClient is used for requests. Nil uses a client built from
	// InsecureSkipVerify.
	HTTPClient *http.Client

	// Timeout bounds each call. Zero uses DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS verification of the hub.
	InsecureSkipVerify bool

	// Logger receives an exchange event per call.
	Logger log.Logger

	// Reconnect configures event stream reconnection.
	Reconnect BackoffConfig

	// UserAgent is sent with every request.
	UserAgent string
}

// Client talks to the hub gateway. It is safe for concurrent use.
type Client struct {
	base         *url.URL
	provisioning *url.URL
	token        string
	http         *http.Client
	tlsConfig    *tls.Config
	timeout      time.Duration
	logger       log.Logger
	reconnect    BackoffConfig
	userAgent    string
	newID        func() string
}

// New validates cfg and creates a Client.
func New(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	provisioning := base
	if cfg.ProvisioningURL != "" {
		if provisioning, err = parseBaseURL(cfg.ProvisioningURL); err != nil {
			return nil, fmt.Errorf("provisioning: %w", err)
		}
	}

	var tlsConfig *tls.Config
	if cfg.InsecureSkipVerify {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		httpClient = &http.Client{Transport: transport}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "hubconsole"
	}

	return &Client{
		base:         base,
		provisioning: provisioning,
		token:        cfg.Token,
		http:         httpClient,
		tlsConfig:    tlsConfig,
		timeout:      timeout,
		logger:       log.OrNoop(cfg.Logger),
		reconnect:    cfg.Reconnect,
		userAgent:    userAgent,
		newID:        uuid.NewString,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoBaseURL
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, raw)
	}
	return u, nil
}

// BaseURL returns the gateway address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// request describes one gateway call.
type request struct {
	method        string
	provisioning  bool
	path          []string
	query         url.Values
	body          any
	deviceID      string
	correlationID string
	ttl           ttl.TTL
}

func (c *Client) endpoint(r *request) *url.URL {
	base := c.base
	if r.provisioning {
		base = c.provisioning
	}
	escaped := make([]string, len(r.path))
	for i, p := range r.path {
		escaped[i] = url.PathEscape(p)
	}
	raw := strings.TrimRight(base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")

	u := *base
	u.Path, _ = url.PathUnescape(raw)
	u.RawPath = raw
	u.RawQuery = ""
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	return &u
}

// command marks r as a device command: it gets a correlation ID and the
// time-to-live query parameter.
func (c *Client) command(r *request, t ttl.TTL) *request {
	r.correlationID = c.newID()
	r.ttl = t
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set("timeToLive", t.Query())
	return r
}

func (c *Client) callTimeout(r *request) time.Duration {
	timeout := c.timeout
	if r.correlationID != "" && !r.ttl.Infinite() {
		if t := r.ttl.Duration() + commandGrace; t > timeout {
			timeout = t
		}
	}
	return timeout
}

// do performs r and hands a successful body to decode. Every call is
// logged as one exchange event, including failures.
func (c *Client) do(ctx context.Context, r *request, decode func(io.Reader) error) (err error) {
	u := c.endpoint(r)
	start := time.Now()
	event := log.Event{
		Timestamp:     start,
		RequestID:     c.newID(),
		Category:      log.CategoryRequest,
		Service:       log.ServiceForPath(u.Path),
		Method:        r.method,
		Path:          u.Path,
		DeviceID:      r.deviceID,
		CorrelationID: r.correlationID,
	}
	defer func() {
		event.Duration = time.Since(start)
		event.Outcome = Classify(err)
		if err != nil {
			event.Error = err.Error()
		}
		c.logger.Log(event)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout(r))
	defer cancel()

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if r.correlationID != "" {
		req.Header.Set(CorrelationIDHeader, r.correlationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, u.Path, err)
	}
	defer resp.Body.Close()
	event.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if decode == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decode(resp.Body); err != nil {
		return fmt.Errorf("%s %s: %w", r.method, u.Path, err)
	}
	return nil
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || (body.Code == 0 && body.Message == "") {
		msg := strings.TrimSpace(string(data))
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	return body.apiError(resp.StatusCode)
}

// decodeJSON returns a decode func for a single JSON object.
func decodeJSON(out any) func(io.Reader) error {
	return func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}
