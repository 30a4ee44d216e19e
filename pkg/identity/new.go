package identity

import (
	"fmt"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

// New builds the configured Provider. Mode is validated by pkg/config
// before this is ever called, but an unrecognized mode still fails closed
// rather than silently falling back to any default.
func New(cfg *config.IdentityConfig) (Provider, error) {
	switch cfg.Mode {
	case config.IdentityModeDevToken:
		return NewDevTokenProvider(cfg.DevTokenEnv, cfg.Environment)
	default:
		return nil, fmt.Errorf("identity: unsupported mode %q", cfg.Mode)
	}
}

// ExtractBearerToken pulls the token out of a "Bearer <token>" Authorization
// header value. Returns "" if the header is missing or malformed, mirroring
// the teacher's extractAuthor's plain-string-in/plain-string-out shape
// (pkg/api/auth.go) rather than returning an error for an absent header —
// the dispatcher itself decides whether an empty token is fatal.
func ExtractBearerToken(authorizationHeader string) string {
	const prefix = "Bearer "
	if len(authorizationHeader) <= len(prefix) || authorizationHeader[:len(prefix)] != prefix {
		return ""
	}
	return authorizationHeader[len(prefix):]
}
