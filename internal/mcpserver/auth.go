package mcpserver

import (
	"crypto/subtle"
	"fmt"
	"os"
	"time"
)

// Environment toggles for the optional API-key gate. These are the only
// environment variables the server reads.
const (
	// AuthEnabledEnv enables the gate when set to "true" or "1".
	AuthEnabledEnv = "NETSCOUT_AUTH_ENABLED"

	// APIKeyEnv carries the shared secret.
	APIKeyEnv = "NETSCOUT_API_KEY"

	// authMetaKey is the request metadata key carrying the client's key.
	authMetaKey = "api_key"

	// minKeyLength is the recommended secret length; shorter keys are
	// accepted with a warning at setup.
	minKeyLength = 32
)

// Authenticator validates incoming requests against a configured secret.
type Authenticator struct {
	enabled bool
	apiKey  string
}

// NewAuthenticatorFromEnv builds the authenticator from the documented
// environment toggles. Enabling auth without a key is a configuration
// error.
func NewAuthenticatorFromEnv() (*Authenticator, error) {
	enabled := os.Getenv(AuthEnabledEnv) == "true" || os.Getenv(AuthEnabledEnv) == "1"
	key := os.Getenv(APIKeyEnv)

	if enabled && key == "" {
		return nil, fmt.Errorf("mcpserver: %s is required when %s is enabled", APIKeyEnv, AuthEnabledEnv)
	}
	return &Authenticator{enabled: enabled, apiKey: key}, nil
}

// NewAuthenticator builds an explicit authenticator; an empty key disables
// the gate.
func NewAuthenticator(apiKey string) *Authenticator {
	return &Authenticator{enabled: apiKey != "", apiKey: apiKey}
}

// Enabled reports whether the gate is active.
func (a *Authenticator) Enabled() bool {
	return a.enabled
}

// KeyTooShort reports whether the configured secret is below the
// recommended length.
func (a *Authenticator) KeyTooShort() bool {
	return a.enabled && len(a.apiKey) < minKeyLength
}

// Authenticate checks the metadata map of an incoming request. Comparison
// is constant-time. Returns (true, "") when the gate is disabled or the key
// matches; otherwise (false, reason).
func (a *Authenticator) Authenticate(meta map[string]any) (bool, string) {
	if !a.enabled {
		return true, ""
	}

	provided, _ := meta[authMetaKey].(string)
	if provided == "" {
		return false, fmt.Sprintf("missing authentication metadata: %s", authMetaKey)
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(a.apiKey)) != 1 {
		return false, "invalid API key"
	}
	return true, ""
}

// AuthErrorBody renders the structured authentication_failed response body.
func AuthErrorBody(reason string) string {
	return fmt.Sprintf(`{"error":"authentication_failed","message":%q,"timestamp":%q,"requires_auth":true}`,
		reason, time.Now().Format(time.RFC3339))
}
