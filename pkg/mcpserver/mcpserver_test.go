package mcpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/config"
	"github.com/callin2/agent-memory-sub001/pkg/consolidation"
	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/graph"
	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/llmsvc"
	"github.com/callin2/agent-memory-sub001/pkg/mcpserver"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/retrieval"
	util "github.com/callin2/agent-memory-sub001/test/util"
)

// fakeIdentity resolves a fixed set of bearer tokens to distinct tenants,
// so tests can exercise tenant isolation without a real IdentityProvider
// backend (spec §4.6 only specifies the verify(token) capability shape).
type fakeIdentity struct {
	tokens map[string]identity.Principal
}

func (f fakeIdentity) Verify(ctx context.Context, token string) (identity.Principal, error) {
	p, ok := f.tokens[token]
	if !ok {
		return identity.Principal{}, identity.ErrInvalidToken
	}
	return p, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := util.SetupTestStore(t)
	pub := events.NewPublisher()

	embedSvc := embedding.NewDeterministic(8)
	memOps := memory.New(st, pub, nil)
	graphSvc := graph.New(st, pub)
	retrieveSvc := retrieval.New(st, embedSvc)
	consolEngine := consolidation.New(st, pub, &llmsvc.Deterministic{}, embedSvc, config.DefaultConsolidationConfig())

	idp := fakeIdentity{tokens: map[string]identity.Principal{
		"tok-t1": {TenantID: "t1", PrincipalID: "agent-1", Scopes: []string{"*"}},
		"tok-t2": {TenantID: "t2", PrincipalID: "agent-2", Scopes: []string{"*"}},
	}}

	d := mcpserver.New(idp, "test-server")
	d.SetMemoryOperations(memOps)
	d.SetGraphService(graphSvc)
	d.SetRetrieval(retrieveSvc)
	d.SetConsolidationEngine(consolEngine)
	require.NoError(t, d.ValidateWiring())

	e := echo.New()
	d.RegisterRoutes(e)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func rpcCall(t *testing.T, srv *httptest.Server, token, method string, params any) (*http.Response, map[string]any) {
	t.Helper()
	body := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "http", body["transport"])
}

func TestMCP_RejectsMissingOrInvalidBearerToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := rpcCall(t, srv, "", "tools/list", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = rpcCall(t, srv, "not-a-real-token", "tools/list", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMCP_ToolsListIncludesCoreTools(t *testing.T) {
	srv := newTestServer(t)

	resp, decoded := rpcCall(t, srv, "tok-t1", "tools/list", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result, ok := decoded["result"].(map[string]any)
	require.True(t, ok)
	tools, ok := result["tools"].([]any)
	require.True(t, ok)

	names := map[string]bool{}
	for _, raw := range tools {
		m := raw.(map[string]any)
		names[m["name"].(string)] = true
	}
	for _, want := range []string{"wake_up", "create_handoff", "recall", "create_edge", "traverse"} {
		assert.True(t, names[want], "expected tool %q in tools/list", want)
	}
}

func TestMCP_CreateHandoffRoundTripsThroughGetLastHandoff(t *testing.T) {
	srv := newTestServer(t)

	createParams := map[string]any{
		"name": "create_handoff",
		"arguments": map[string]any{
			"session_id":   "s1",
			"with_whom":    "Callin",
			"experienced":  "built X",
			"noticed":      "Y",
			"learned":      "Z",
			"remember":     "test",
			"significance": 0.8,
		},
	}
	resp, decoded := rpcCall(t, srv, "tok-t1", "tools/call", createParams)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, decoded["error"])
	result := decoded["result"].(map[string]any)
	handoffID := result["id"].(string)
	require.NotEmpty(t, handoffID)

	getParams := map[string]any{
		"name":      "get_last_handoff",
		"arguments": map[string]any{"with_whom": "Callin"},
	}
	resp, decoded = rpcCall(t, srv, "tok-t1", "tools/call", getParams)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decoded["result"].(map[string]any)
	assert.Equal(t, handoffID, result["id"])
}

func TestMCP_TenantMismatchIsJSONRPCErrorNotHTTPError(t *testing.T) {
	srv := newTestServer(t)

	params := map[string]any{
		"name": "get_last_handoff",
		"arguments": map[string]any{
			"with_whom": "Callin",
			"tenant_id": "t2",
		},
	}
	resp, decoded := rpcCall(t, srv, "tok-t1", "tools/call", params)
	// spec §7: TenantMismatch is HTTP 200 with a JSON-RPC error, not 4xx.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok, "expected a JSON-RPC error for mismatched tenant_id")
	assert.Contains(t, errObj["message"], "tenant")
}

func TestMCP_TenantIsolation_NoLeakAcrossTenants(t *testing.T) {
	srv := newTestServer(t)

	createParams := map[string]any{
		"name": "create_handoff",
		"arguments": map[string]any{
			"session_id": "s1", "with_whom": "Alice", "experienced": "e",
			"noticed": "n", "learned": "l", "remember": "r", "significance": 0.5,
		},
	}
	_, decoded := rpcCall(t, srv, "tok-t1", "tools/call", createParams)
	require.Nil(t, decoded["error"])

	getParams := map[string]any{
		"name":      "get_last_handoff",
		"arguments": map[string]any{"with_whom": "Alice"},
	}
	_, decoded = rpcCall(t, srv, "tok-t2", "tools/call", getParams)
	require.NotNil(t, decoded["error"], "tenant t2 must not see tenant t1's handoff")
}
