// Package mcpserver implements MCPDispatcher (spec §4.6): a JSON-RPC 2.0
// server exposing every MemoryOperations/GraphService/Retrieval/
// ConsolidationEngine verb as a named tool over a single HTTP path,
// bearer-authenticated via IdentityProvider.
//
// Grounded on the teacher's pkg/api/server.go composition: a Server-like
// struct wrapping *echo.Echo, constructed once with its mandatory
// dependencies, with the rest wired in afterward via Set* methods and
// checked by ValidateWiring before the process starts serving.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/callin2/agent-memory-sub001/pkg/consolidation"
	"github.com/callin2/agent-memory-sub001/pkg/database"
	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/graph"
	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/retrieval"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// defaultRequestDeadline is spec §5's "every MCP call has a deadline
// (default 30s)", used whenever SetRequestDeadline was never called.
const defaultRequestDeadline = 30 * time.Second

// Dispatcher is the JSON-RPC 2.0 MCP server. Every field is wired once at
// startup; there is no per-request mutable state beyond what each tool
// handler reads from its own arguments (spec §5 "no shared in-memory
// state beyond the Store connection pool").
type Dispatcher struct {
	identity identity.Provider
	memory   *memory.Operations
	graph    *graph.Service
	retrieve *retrieval.Service
	consol   *consolidation.Engine
	tools    map[string]tool

	// Optional, for get_system_health only (spec §4.6): the dispatcher
	// still answers every other tool call if these were never wired.
	store     *store.Store
	db        *database.Client
	embedPool *embedding.Pool
	scheduler *consolidation.Scheduler

	serverName      string
	requestDeadline time.Duration
}

// New constructs a Dispatcher around its mandatory dependency, the
// IdentityProvider every request must pass through. The capability
// services are wired afterward via Set* methods, mirroring the teacher's
// NewServer/Set* split between construction-time and post-construction
// dependencies.
func New(idp identity.Provider, serverName string) *Dispatcher {
	d := &Dispatcher{identity: idp, serverName: serverName, tools: map[string]tool{}}
	d.registerTools()
	return d
}

// SetMemoryOperations wires MemoryOperations-backed tools.
func (d *Dispatcher) SetMemoryOperations(ops *memory.Operations) { d.memory = ops }

// SetGraphService wires GraphService-backed tools.
func (d *Dispatcher) SetGraphService(svc *graph.Service) { d.graph = svc }

// SetRetrieval wires Retrieval-backed tools.
func (d *Dispatcher) SetRetrieval(svc *retrieval.Service) { d.retrieve = svc }

// SetConsolidationEngine wires ConsolidationEngine-backed tools
// (get_compression_stats, get_system_health).
func (d *Dispatcher) SetConsolidationEngine(eng *consolidation.Engine) { d.consol = eng }

// SetStore wires Store-backed observability (idempotency table size in
// get_system_health).
func (d *Dispatcher) SetStore(st *store.Store) { d.store = st }

// SetDatabase wires the raw database client get_system_health pings.
func (d *Dispatcher) SetDatabase(db *database.Client) { d.db = db }

// SetEmbeddingPool wires embedding queue depth into get_system_health.
func (d *Dispatcher) SetEmbeddingPool(p *embedding.Pool) { d.embedPool = p }

// SetScheduler wires consolidation scheduler tick times into
// get_system_health.
func (d *Dispatcher) SetScheduler(s *consolidation.Scheduler) { d.scheduler = s }

// SetRequestDeadline overrides the default 30s per-call deadline (spec
// §5) applied to every tools/call. A zero duration restores the default.
func (d *Dispatcher) SetRequestDeadline(dl time.Duration) { d.requestDeadline = dl }

func (d *Dispatcher) deadline() time.Duration {
	if d.requestDeadline <= 0 {
		return defaultRequestDeadline
	}
	return d.requestDeadline
}

// ValidateWiring checks every capability dependency was set via its Set*
// method before the dispatcher starts serving requests, the same
// fail-fast-at-startup guard the teacher's Server.ValidateWiring provides.
func (d *Dispatcher) ValidateWiring() error {
	var errs []error
	if d.memory == nil {
		errs = append(errs, fmt.Errorf("memory operations not set (call SetMemoryOperations)"))
	}
	if d.graph == nil {
		errs = append(errs, fmt.Errorf("graph service not set (call SetGraphService)"))
	}
	if d.retrieve == nil {
		errs = append(errs, fmt.Errorf("retrieval service not set (call SetRetrieval)"))
	}
	if d.consol == nil {
		errs = append(errs, fmt.Errorf("consolidation engine not set (call SetConsolidationEngine)"))
	}
	if len(errs) == 0 {
		return nil
	}
	joined := errs[0]
	for _, e := range errs[1:] {
		joined = fmt.Errorf("%w; %w", joined, e)
	}
	return fmt.Errorf("mcpserver wiring incomplete: %w", joined)
}

// RegisterRoutes mounts the dispatcher's HTTP surface (spec §6.1) onto an
// existing *echo.Echo, the same route-registration split the teacher's
// Server.setupRoutes uses between API groups.
func (d *Dispatcher) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", d.healthHandler)
	e.POST("/mcp", d.handleRPC)
}

// healthHandler answers GET /health with no auth (spec §4.6, §6.1).
func (d *Dispatcher) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"server":    d.serverName,
		"transport": "http",
	})
}

// handleRPC answers POST /mcp (spec §6.1). Auth failures return HTTP 401
// directly; every other outcome, success or application error, returns
// HTTP 200 with a JSON-RPC envelope (spec §7 "HTTP is always 200 for
// JSON-RPC, except 401 for missing/invalid auth").
func (d *Dispatcher) handleRPC(c *echo.Context) error {
	var req request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, newErrorResponse(nil, codeInvalidRequest, "malformed JSON-RPC request", nil))
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return c.JSON(http.StatusOK, newErrorResponse(req.ID, codeInvalidRequest, "invalid JSON-RPC envelope", nil))
	}

	principal, err := d.authenticate(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	switch req.Method {
	case "initialize":
		return c.JSON(http.StatusOK, newResponse(req.ID, d.initializeResult()))
	case "tools/list":
		return c.JSON(http.StatusOK, newResponse(req.ID, d.toolsListResult()))
	case "tools/call":
		// Every call gets its own deadline (spec §5): on expiry any
		// in-flight Store/LLM/Embedding work sees ctx.Done() and aborts,
		// leaving no partial commit since every mutation happens inside
		// a single transaction scoped to this context.
		ctx, cancel := context.WithTimeout(c.Request().Context(), d.deadline())
		defer cancel()
		return c.JSON(http.StatusOK, d.callTool(ctx, req.ID, principal, req.Params))
	default:
		return c.JSON(http.StatusOK, newErrorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil))
	}
}

// authenticate extracts and verifies the bearer token (spec §4.6).
func (d *Dispatcher) authenticate(c *echo.Context) (identity.Principal, error) {
	token := identity.ExtractBearerToken(c.Request().Header.Get("Authorization"))
	return d.identity.Verify(c.Request().Context(), token)
}

func (d *Dispatcher) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": "2024-11-05",
		"serverInfo":      map[string]any{"name": d.serverName, "version": "1"},
		"capabilities":    map[string]any{"tools": map[string]any{}},
	}
}

func (d *Dispatcher) toolsListResult() map[string]any {
	list := make([]map[string]any, 0, len(d.tools))
	for _, t := range d.tools {
		list = append(list, map[string]any{
			"name":        t.name,
			"description": t.description,
			"inputSchema": t.inputSchema,
		})
	}
	return map[string]any{"tools": list}
}

// callTool dispatches tools/call (spec §4.6): tenant injection, tool
// lookup, handler invocation, and error-taxonomy translation all happen
// here so no individual tool handler has to repeat the boilerplate.
func (d *Dispatcher) callTool(ctx context.Context, id any, principal identity.Principal, p params) response {
	t, ok := d.tools[p.Name]
	if !ok {
		return newErrorResponse(id, codeMethodNotFound, fmt.Sprintf("unknown tool %q", p.Name), nil)
	}

	arguments := p.Arguments
	if arguments == nil {
		arguments = map[string]any{}
	}

	// Tenant injection (spec §4.6): any payload tenant_id is overwritten
	// by the authenticated tenant, or rejected outright if it names a
	// different tenant.
	if raw, present := arguments["tenant_id"]; present {
		if s, ok := raw.(string); ok && s != "" && s != principal.TenantID {
			return errorToResponse(id, store.NewTenantMismatch())
		}
	}
	arguments["tenant_id"] = principal.TenantID

	result, err := t.handler(ctx, principal, args(arguments))
	if err != nil {
		return errorToResponse(id, err)
	}
	return newResponse(id, result)
}
