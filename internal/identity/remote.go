package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pct1089547896/games-marketplace-sub000/pkg/httpclient"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/middleware"
)

type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// RemoteVerifier asks the identity provider to resolve a token. Calls go
// through a circuit breaker so a failing provider fails fast.
type RemoteVerifier struct {
	client doer
	url    string
}

func NewRemoteVerifier(client *httpclient.BreakerClient, url string) *RemoteVerifier {
	return &RemoteVerifier{client: client, url: url}
}

type remoteIdentity struct {
	Data struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	} `json:"data"`
}

// Verify sends the token as a bearer credential to the configured URL.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*middleware.Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "identity provider")
	}

	var body remoteIdentity
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if body.Data.UserID == "" {
		return nil, fmt.Errorf("identity response has no user_id")
	}
	return &middleware.Claims{UserID: body.Data.UserID, Email: body.Data.Email, Role: body.Data.Role}, nil
}
