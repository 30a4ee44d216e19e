package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevTokenProvider_RefusesProduction(t *testing.T) {
	t.Setenv("TEST_DEV_TOKEN", "secret")
	_, err := NewDevTokenProvider("TEST_DEV_TOKEN", "production")
	require.Error(t, err)
}

func TestDevTokenProvider_RefusesMissingEnvVar(t *testing.T) {
	_, err := NewDevTokenProvider("TEST_DEV_TOKEN_UNSET", "development")
	require.Error(t, err)
}

func TestDevTokenProvider_VerifyAcceptsConfiguredToken(t *testing.T) {
	t.Setenv("TEST_DEV_TOKEN", "secret")
	p, err := NewDevTokenProvider("TEST_DEV_TOKEN", "development")
	require.NoError(t, err)

	principal, err := p.Verify(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "default", principal.TenantID)
	assert.NotEmpty(t, principal.PrincipalID)
}

func TestDevTokenProvider_VerifyRejectsWrongOrEmptyToken(t *testing.T) {
	t.Setenv("TEST_DEV_TOKEN", "secret")
	p, err := NewDevTokenProvider("TEST_DEV_TOKEN", "development")
	require.NoError(t, err)

	_, err = p.Verify(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc123", ExtractBearerToken("Bearer abc123"))
	assert.Equal(t, "", ExtractBearerToken(""))
	assert.Equal(t, "", ExtractBearerToken("Basic abc123"))
	assert.Equal(t, "", ExtractBearerToken("Bearer"))
}
