// Package wal implements WALClient (spec §4.7, §6.4): a client-side,
// append-only write-ahead log guaranteeing at-most-once, in-order replay
// of mutating memory-tool calls when the MCP server is unreachable.
//
// There is no teacher analogue for a client-side durability layer — the
// teacher IS the server, it has nothing upstream of it to buffer writes
// for. This package is grounded directly on spec §4.7/§6.4's literal file
// format and on oklog/ulid/v2 for op_id generation, which spec §3 names
// explicitly ("WALRecord ... op_id (ULID)").
package wal

import (
	"encoding/json"
	"time"
)

// Record is one WAL entry (spec §3 "WALRecord (client)"): a mutating tool
// call that was assigned an op_id before being attempted, so a crash
// between append and successful remote call never loses the write.
type Record struct {
	OpID       string         `json:"op_id"`
	OpName     string         `json:"op_name"`
	Args       map[string]any `json:"args"`
	TenantID   string         `json:"tenant_id,omitempty"`
	Attempts   int            `json:"attempts"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// marshalLine encodes r as one JSON-lines record (spec §6.4), UTF-8 with a
// trailing LF.
func marshalLine(r Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// unmarshalLine decodes one line of the log. Returns ok=false (never an
// error) for a blank or malformed line, so a reader can skip a truncated
// final record without failing the whole replay (spec §6.4 "Consumers
// must tolerate partial last lines").
func unmarshalLine(line []byte) (Record, bool) {
	var r Record
	if len(line) == 0 {
		return r, false
	}
	if err := json.Unmarshal(line, &r); err != nil {
		return r, false
	}
	if r.OpID == "" || r.OpName == "" {
		return r, false
	}
	return r, true
}
