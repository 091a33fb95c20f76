package model

import (
	"encoding/json"
	"log/slog"
)

// RedactedMask is the fixed rendering of every Sensitive value.
const RedactedMask = "********"

// Sensitive holds secret material (passwords, API keys, access tokens).
// Every default rendering -- fmt verbs, slog, JSON -- produces RedactedMask.
// The plaintext is only reachable through Reveal.
type Sensitive string

// Reveal returns the plaintext value.
func (s Sensitive) Reveal() string {
	return string(s)
}

// IsZero reports whether no secret is held.
func (s Sensitive) IsZero() bool {
	return s == ""
}

// String implements fmt.Stringer.
func (s Sensitive) String() string {
	return RedactedMask
}

// GoString implements fmt.GoStringer so %#v is redacted too.
func (s Sensitive) GoString() string {
	return `"` + RedactedMask + `"`
}

// LogValue implements slog.LogValuer.
func (s Sensitive) LogValue() slog.Value {
	return slog.StringValue(RedactedMask)
}

// MarshalJSON renders the mask. Callers that need the plaintext in a
// document must copy Reveal() into their own field.
func (s Sensitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedMask)
}
