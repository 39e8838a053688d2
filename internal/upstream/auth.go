package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthClient talks to the auth service. The engine treats the issued
// credential as opaque; all it does is refresh it and read the shipping
// profile attached to the account.
type AuthClient struct {
	t *transport
}

// ShippingProfile is the account's delivery data. Checkout requires every
// tagged field to be present.
type ShippingProfile struct {
	Phone        string `json:"phone" validate:"required"`
	NationalID   string `json:"dni" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	City         string `json:"city" validate:"required"`
	Province     string `json:"province" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country,omitempty"`
}

// RefreshToken exchanges the refresh token for a new access token. It goes
// straight through the raw HTTP client: refreshing must not itself trigger a
// refresh.
func (a *AuthClient) RefreshToken(ctx context.Context, refresh string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.t.base+"/auth/token/refresh/", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh token: status %d", res.StatusCode)
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("refresh token: decode: %w", err)
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh token: empty access token")
	}
	return out.Access, nil
}

// ShippingProfile fetches the caller's profile from the auth service.
func (a *AuthClient) ShippingProfile(ctx context.Context) (*ShippingProfile, error) {
	status, body, err := a.t.roundTrip(ctx, http.MethodGet, "/auth/profile/", nil, nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch shipping profile: status %d", status)
	}

	var p ShippingProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("fetch shipping profile: decode: %w", err)
	}
	return &p, nil
}
