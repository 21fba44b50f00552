package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"auction-stream/internal/domain"
)

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// TokenVerifier validates a Google ID-token credential against the
// tokeninfo endpoint and checks the audience.
type TokenVerifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

func NewTokenVerifier(clientID string) *TokenVerifier {
	return &TokenVerifier{
		clientID: clientID,
		endpoint: tokenInfoURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (v *TokenVerifier) Verify(ctx context.Context, credential string) (*domain.GoogleClaims, error) {
	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var body struct {
		Aud     string `json:"aud"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if body.Aud != v.clientID {
		return nil, fmt.Errorf("credential audience mismatch")
	}
	if body.Sub == "" {
		return nil, fmt.Errorf("credential missing subject")
	}

	return &domain.GoogleClaims{
		Subject: body.Sub,
		Email:   body.Email,
		Name:    body.Name,
		Picture: body.Picture,
	}, nil
}
