// Package types defines core domain types for the flume session runner.
//
//nolint:revive // types is a common Go package naming convention
package types

// JSONRPCVersion is the only protocol version accepted on the wire.
const JSONRPCVersion = "2.0"

// TerminalKey is the sentinel key carried by the last payload of a
// session stream. The terminal payload is consumed by the decoder and
// never surfaced to callers.
const TerminalKey = "eot"

// Payload is the params mapping carried by one envelope. Flume does not
// interpret payload contents beyond the terminal marker.
type Payload map[string]any

// IsTerminal reports whether this payload carries the end-of-transmission
// marker. Presence of the key is what matters, not its value.
func (p Payload) IsTerminal() bool {
	_, ok := p[TerminalKey]
	return ok
}

// Envelope is the JSON object inside one frame.
type Envelope struct {
	// JSONRPC is the protocol version tag. Must equal JSONRPCVersion.
	JSONRPC string `json:"jsonrpc"`
	// Params is the payload mapping.
	Params Payload `json:"params"`
}

// IsTerminal reports whether the envelope's params carry the terminal marker.
func (e *Envelope) IsTerminal() bool {
	return e.Params.IsTerminal()
}
