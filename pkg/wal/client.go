package wal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultRelativePath is the WAL file location spec §6.4 pins: "<cwd>/
// .memory-wal/operations.jsonl".
const DefaultRelativePath = ".memory-wal/operations.jsonl"

// Transport is the capability Client calls mutating tools through. The
// real implementation is an HTTP JSON-RPC round-trip to MCPDispatcher's
// POST /mcp (HTTPTransport in this package); tests substitute a fake.
type Transport interface {
	Call(ctx context.Context, opName string, args map[string]any) (map[string]any, error)
}

// Client is the durable client-side mirror of every mutating memory write
// (spec §4.7). Every mutating tool call is first appended to the log,
// fsync'd, then attempted against Transport; only a successful call
// removes its record.
type Client struct {
	path      string
	transport Transport

	mu sync.Mutex
}

// New opens (creating if absent) the WAL file at path and wires transport
// for replay. Pass DefaultRelativePath resolved against the process's
// working directory, or an absolute path, per spec §6.4.
func New(path string, transport Transport) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("wal: creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: opening log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("wal: closing log after create: %w", err)
	}
	return &Client{path: path, transport: transport}, nil
}

// Enqueue assigns a ULID op_id, appends the record to the log with an
// fsync, then attempts the call immediately (spec §4.7 "Attempt the
// remote call"). On success the record is removed from the log before
// Enqueue returns; on failure it stays for a later Replay and the
// transport's error is returned to the caller, together with the op_id, so
// the caller knows the write is durable but not yet confirmed.
func (c *Client) Enqueue(ctx context.Context, opName string, args map[string]any, tenantID string) (opID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	opID = ulid.Make().String()
	rec := Record{
		OpID:       opID,
		OpName:     opName,
		Args:       args,
		TenantID:   tenantID,
		Attempts:   0,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := c.appendLocked(rec); err != nil {
		return "", err
	}

	rec.Attempts++
	if _, callErr := c.transport.Call(ctx, opName, withOpID(args, opID)); callErr != nil {
		// Left in the log for replay; spec §4.7 "On network/5xx/timeout
		// failure, the record stays in the log".
		return opID, callErr
	}

	if err := c.removeLocked(opID); err != nil {
		return opID, err
	}
	return opID, nil
}

// ReplayResult summarizes one Replay pass (not part of spec's data model,
// purely a caller-facing report).
type ReplayResult struct {
	Attempted int
	Succeeded int
	Remaining int
	Errs      []error
}

// Replay attempts every still-pending record in ascending op_id order
// (spec §4.7 "Replay replays records in ascending op_id order"; ULID's
// lexical order is its generation-time order, so file order already is
// ascending op_id order for a single client). A record that fails stays
// in the log; Replay continues to the next record rather than aborting,
// since spec §4.7's ordering guarantee is scoped to a single client's
// relative order of successes, not an all-or-nothing batch.
func (c *Client) Replay(ctx context.Context) (ReplayResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readAllLocked()
	if err != nil {
		return ReplayResult{}, err
	}

	var result ReplayResult
	kept := records[:0:0]
	for _, rec := range records {
		if ctx.Err() != nil {
			kept = append(kept, rec)
			continue
		}
		result.Attempted++
		rec.Attempts++
		if _, callErr := c.transport.Call(ctx, rec.OpName, withOpID(rec.Args, rec.OpID)); callErr != nil {
			result.Errs = append(result.Errs, fmt.Errorf("wal: replay %s (%s): %w", rec.OpID, rec.OpName, callErr))
			kept = append(kept, rec)
			continue
		}
		result.Succeeded++
	}
	result.Remaining = len(kept)

	if err := c.rewriteLocked(kept); err != nil {
		return result, err
	}
	return result, nil
}

// Pending reports how many records currently await replay, for a wake_up
// caller that wants to report a backlog count before triggering Replay
// (spec §4.8 point 5).
func (c *Client) Pending(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, err := c.readAllLocked()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func withOpID(args map[string]any, opID string) map[string]any {
	out := make(map[string]any, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	out["op_id"] = opID
	return out
}

// appendLocked writes one record, fsync'd before returning (spec §4.7
// "fsync on append").
func (c *Client) appendLocked(rec Record) error {
	line, err := marshalLine(rec)
	if err != nil {
		return fmt.Errorf("wal: encoding record: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("wal: opening log for append: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("wal: appending record: %w", err)
	}
	return f.Sync()
}

// readAllLocked reads every well-formed record currently in the log,
// silently skipping a malformed or truncated trailing line (spec §6.4).
func (c *Client) readAllLocked() ([]Record, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("wal: opening log for read: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if rec, ok := unmarshalLine(line); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// removeLocked drops one record by op_id via a full rewrite. Rewriting the
// whole file on every single-record success is the "compacted
// periodically" spec §4.7 allows, simplified to "immediately" since the
// log is expected to stay small (client-side backlog, not a server log).
func (c *Client) removeLocked(opID string) error {
	records, err := c.readAllLocked()
	if err != nil {
		return err
	}
	kept := records[:0:0]
	for _, rec := range records {
		if rec.OpID != opID {
			kept = append(kept, rec)
		}
	}
	return c.rewriteLocked(kept)
}

// rewriteLocked atomically replaces the log contents with records, via a
// temp-file-then-rename so a crash mid-compaction never leaves a
// zero-length log with pending writes lost.
func (c *Client) rewriteLocked(records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".operations-*.jsonl.tmp")
	if err != nil {
		return fmt.Errorf("wal: creating temp log: %w", err)
	}
	tmpPath := tmp.Name()

	for _, rec := range records {
		line, err := marshalLine(rec)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("wal: encoding record during compaction: %w", err)
		}
		if _, err := tmp.Write(line); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("wal: writing compacted log: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("wal: syncing compacted log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("wal: closing compacted log: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("wal: installing compacted log: %w", err)
	}
	return nil
}
