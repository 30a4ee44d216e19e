package identity

import (
	"context"
	"fmt"
	"os"
)

// defaultTenant is the tenant the dev-token provider resolves to. A
// single-tenant dev loop is all the spec asks of non-production auth
// (spec §6.3).
const defaultTenant = "default"

// DevTokenProvider authenticates a single configurable literal token to the
// "default" tenant (spec §6.3). It refuses to start in production,
// mirroring the teacher's own header-extraction auth (pkg/api/auth.go):
// simple, single-purpose, no framework, no external IdP round-trip.
type DevTokenProvider struct {
	token string
}

// NewDevTokenProvider reads the literal dev token from the named
// environment variable (MCP_DEV_TOKEN by default, per spec §6.5). environment
// must not be "production". pkg/config's validator does not reject dev_token
// mode in production (it only skips the token-variable check there), so this
// constructor is where a production environment value is refused.
func NewDevTokenProvider(tokenEnv, environment string) (*DevTokenProvider, error) {
	if environment == "production" {
		return nil, fmt.Errorf("identity: dev-token provider refused: environment is production")
	}
	token := os.Getenv(tokenEnv)
	if token == "" {
		return nil, fmt.Errorf("identity: environment variable %s is not set", tokenEnv)
	}
	return &DevTokenProvider{token: token}, nil
}

// Verify accepts exactly the configured literal token.
func (p *DevTokenProvider) Verify(ctx context.Context, token string) (Principal, error) {
	if token == "" || token != p.token {
		return Principal{}, ErrInvalidToken
	}
	return Principal{
		TenantID:    defaultTenant,
		PrincipalID: "dev-agent",
		Scopes:      []string{"*"},
	}, nil
}
