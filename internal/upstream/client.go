package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrAuthExpired means the bearer credential was rejected and could not be
// refreshed. The authenticated flow it interrupts must end in
// re-authentication; it is never swallowed.
var ErrAuthExpired = errors.New("authentication expired")

// Credential is the caller's bearer token pair, carried on the request
// context. Refresh may be empty, in which case a rejected access token cannot
// be recovered.
type Credential struct {
	Access  string
	Refresh string
}

type credentialKey struct{}

func WithCredential(ctx context.Context, c *Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

func CredentialFrom(ctx context.Context) *Credential {
	c, _ := ctx.Value(credentialKey{}).(*Credential)
	return c
}

// Config points the clients at the shop backend that owns products, coupons,
// orders and authentication.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Clients bundles the typed clients for the external services.
type Clients struct {
	Catalog *CatalogClient
	Coupons *CouponClient
	Orders  *OrderClient
	Auth    *AuthClient
}

func NewClients(cfg Config, logger *zap.SugaredLogger) *Clients {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	t := &transport{
		base:   cfg.BaseURL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
	auth := &AuthClient{t: t}
	t.auth = auth

	return &Clients{
		Catalog: &CatalogClient{t: t},
		Coupons: &CouponClient{t: t},
		Orders:  &OrderClient{t: t},
		Auth:    auth,
	}
}

type transport struct {
	base   string
	client *http.Client
	auth   *AuthClient
	logger *zap.SugaredLogger
}

// roundTrip sends one request and returns the response status and body.
// Authenticated requests attach the caller's bearer token; on the first 401
// the credential is refreshed once and the request retried once. A second 401,
// or a failed refresh, is ErrAuthExpired.
func (t *transport) roundTrip(ctx context.Context, method, path string, payload any, headers map[string]string, authed bool) (int, []byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
	}

	var cred *Credential
	if authed {
		cred = CredentialFrom(ctx)
		if cred == nil || cred.Access == "" {
			return 0, nil, ErrAuthExpired
		}
	}

	status, respBody, err := t.send(ctx, method, path, body, headers, cred)
	if err != nil {
		return 0, nil, err
	}

	if status == http.StatusUnauthorized && authed {
		if cred.Refresh == "" {
			return 0, nil, ErrAuthExpired
		}
		access, err := t.auth.RefreshToken(ctx, cred.Refresh)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %s", ErrAuthExpired, err)
		}
		cred.Access = access
		t.logger.Infow("credential refreshed, retrying once", "path", path)

		status, respBody, err = t.send(ctx, method, path, body, headers, cred)
		if err != nil {
			return 0, nil, err
		}
		if status == http.StatusUnauthorized {
			return 0, nil, ErrAuthExpired
		}
	}

	return status, respBody, nil
}

func (t *transport) send(ctx context.Context, method, path string, body []byte, headers map[string]string, cred *Credential) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.base+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if cred != nil {
		req.Header.Set("Authorization", "Bearer "+cred.Access)
	}

	res, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	return res.StatusCode, respBody, nil
}

// errorBody is the shop backend's error envelope.
type errorBody struct {
	Error string   `json:"error"`
	Items []string `json:"items"`
}

func decodeError(body []byte) errorBody {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	return eb
}
