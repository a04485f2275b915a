// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"
)

// KeycloakClient verifies access tokens against a Keycloak realm using token introspection.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// TokenInfo holds the information returned by the token introspection endpoint.
type TokenInfo struct {
	Active    bool     `json:"active"`
	Scope     string   `json:"scope,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	Username  string   `json:"username,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Exp       int64    `json:"exp,omitempty"`
	Sub       string   `json:"sub,omitempty"`
	Iss       string   `json:"iss,omitempty"`
	Role      string   `json:"role,omitempty"` // custom mapper, wins over realm roles
	Aud       audience `json:"aud,omitempty"`

	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// audience accepts both the string and array forms of "aud".
type audience []string

func (a *audience) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = audience{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ValidateToken checks if an access token is valid and active.
func (k *KeycloakClient) ValidateToken(ctx context.Context, token string) (*TokenInfo, error) {
	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("token_type_hint", "access_token")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("failed to create introspection request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("keycloak introspection", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		if k.isTransientHTTPError(resp.StatusCode) {
			return nil, errors.NewStoreUnavailableError("keycloak introspection", cause)
		}
		return nil, errors.NewUnauthenticatedError(fmt.Sprintf("introspection rejected: %v", cause))
	}

	var tokenInfo TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("failed to decode token introspection response: %w", err))
	}

	if !tokenInfo.Active {
		return nil, errors.NewUnauthenticatedError("token is not active")
	}

	return &tokenInfo, nil
}

// Verify implements Verifier.
func (k *KeycloakClient) Verify(ctx context.Context, token string) (models.TokenClaims, error) {
	if token == "" {
		return models.TokenClaims{}, errors.NewUnauthenticatedError("missing bearer token")
	}

	info, err := k.ValidateToken(ctx, token)
	if err != nil {
		return models.TokenClaims{}, err
	}

	identity := info.Sub
	if identity == "" {
		identity = info.Username
	}
	if identity == "" {
		return models.TokenClaims{}, errors.NewUnauthenticatedError("token has no subject")
	}

	return models.TokenClaims{
		Identity:  identity,
		Role:      portalRole(info),
		ExpiresAt: info.Exp,
	}, nil
}

// portalRole picks the most privileged portal role present on the token.
func portalRole(info *TokenInfo) string {
	if info.Role != "" {
		return info.Role
	}
	best := ""
	rank := map[string]int{
		string(models.RoleApplicant): 1,
		string(models.RoleMentor):    2,
		string(models.RoleAdmin):     3,
	}
	for _, r := range info.RealmAccess.Roles {
		if rank[r] > rank[best] {
			best = r
		}
	}
	return best
}

// isTransientHTTPError returns true if the HTTP status code indicates a potentially transient error.
func (k *KeycloakClient) isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
