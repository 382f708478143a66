package peer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "wfap/pkg/domain-errors"
)

// responseBodyLimit caps how much of a peer response we read; a misbehaving
// bank must not exhaust our memory.
const responseBodyLimit = 1 << 20

// HTTPConnection talks WFAP to one bank over HTTP, authenticating with a
// short-lived HS256 bearer token minted per request.
type HTTPConnection struct {
	name     string
	endpoint string
	issuer   string
	secret   []byte
	client   *http.Client
	clock    func() time.Time
}

// HTTPOption configures an HTTPConnection.
type HTTPOption func(*HTTPConnection)

// WithHTTPClient replaces the underlying client, e.g. for tests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPConnection) { c.client = client }
}

// WithClock overrides the token timestamp source.
func WithClock(clock func() time.Time) HTTPOption {
	return func(c *HTTPConnection) { c.clock = clock }
}

// NewHTTPConnection builds a connection to the named bank. The secret is the
// shared peer credential used to mint bearer tokens; issuer identifies the
// calling agent in the token's iss claim.
func NewHTTPConnection(name, endpoint, issuer string, secret []byte, opts ...HTTPOption) *HTTPConnection {
	c := &HTTPConnection{
		name:     name,
		endpoint: endpoint,
		issuer:   issuer,
		secret:   secret,
		client:   &http.Client{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the configured bank name.
func (c *HTTPConnection) Name() string { return c.name }

// Send posts the signed request body and returns the peer's response body.
// Deadline and cancellation come from ctx; timeouts surface as
// CodeCommunication wrapping context.DeadlineExceeded so the orchestrator
// can classify them.
func (c *HTTPConnection) Send(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeCommunication, "building peer request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.mintToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeCommunication, fmt.Sprintf("sending to peer %q", c.name), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeCommunication, fmt.Sprintf("reading response from peer %q", c.name), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeCommunication,
			fmt.Sprintf("peer %q replied %d", c.name, resp.StatusCode))
	}
	return payload, nil
}

func (c *HTTPConnection) mintToken() (string, error) {
	now := c.clock()
	claims := jwt.MapClaims{
		"iss": c.issuer,
		"aud": c.name,
		"iat": now.Unix(),
		"exp": now.Add(2 * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "minting peer token", err)
	}
	return token, nil
}
