package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is the keyset pagination position after the last row of a page:
// (created_at, id) per spec §6.6. Wire format is pinned here (the spec
// leaves cursor encoding unspecified) to base64("<created_at_unix_ms>:<id>")
// so a cursor round-trips opaquely through JSON-RPC string arguments.
type Cursor struct {
	CreatedAtUnixMs int64
	ID              string
}

// EncodeCursor produces the opaque wire-format cursor for row (t, id).
func EncodeCursor(t time.Time, id string) string {
	raw := fmt.Sprintf("%d:%s", t.UnixMilli(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor produced by EncodeCursor. An empty string
// decodes to the zero Cursor, representing "start of the result set".
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, NewValidationError("cursor", "malformed pagination cursor")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return Cursor{}, NewValidationError("cursor", "malformed pagination cursor")
	}
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, NewValidationError("cursor", "malformed pagination cursor")
	}
	return Cursor{CreatedAtUnixMs: ms, ID: parts[1]}, nil
}

// Time returns the cursor's created_at boundary.
func (c Cursor) Time() time.Time {
	return time.UnixMilli(c.CreatedAtUnixMs)
}

// IsZero reports whether the cursor represents the start of the result set.
func (c Cursor) IsZero() bool {
	return c.CreatedAtUnixMs == 0 && c.ID == ""
}
