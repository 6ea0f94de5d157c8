package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// FederatedIdentity is the claim set returned by the external verification
// oracle for an opaque token.
type FederatedIdentity struct {
	Email       string
	DisplayName string
}

// FederationVerifier maps an opaque external token to a verified identity.
// Any failure is opaque to the caller; retrying with the same input will not
// help.
type FederationVerifier interface {
	Verify(ctx context.Context, token string) (*FederatedIdentity, error)
}

type googleVerifier struct {
	endpoint string
	client   *http.Client
}

// NewGoogleVerifier verifies Google ID tokens against the tokeninfo
// endpoint. An empty endpoint selects the public Google one.
func NewGoogleVerifier(endpoint string) FederationVerifier {
	if endpoint == "" {
		endpoint = defaultTokenInfoURL
	}
	return &googleVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *googleVerifier) Verify(ctx context.Context, token string) (*FederatedIdentity, error) {
	if token == "" {
		return nil, errors.New("empty federated token")
	}

	reqURL := v.endpoint + "?id_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo rejected token: status %d", resp.StatusCode)
	}

	var payload struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}
	if payload.Email == "" {
		return nil, errors.New("tokeninfo response carries no email")
	}

	return &FederatedIdentity{Email: payload.Email, DisplayName: payload.Name}, nil
}
