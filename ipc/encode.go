package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/tessellate-io/flume/types"
)

// EncodeFrame wraps a JSON body in frame headers. Content-Length counts
// UTF-8 bytes of the body.
func EncodeFrame(body string) string {
	return fmt.Sprintf("%s %d\r\n%s %s\r\n\r\n%s",
		HeaderContentLength, len(body),
		HeaderContentType, ContentTypeJSON,
		body,
	)
}

// EncodeEnvelope marshals a payload into a framed "2.0" envelope.
func EncodeEnvelope(payload types.Payload) (string, error) {
	body, err := json.Marshal(types.Envelope{
		JSONRPC: types.JSONRPCVersion,
		Params:  payload,
	})
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return EncodeFrame(string(body)), nil
}

// EncodeStream frames each payload in order, appending a terminal
// envelope carrying the eot marker. The result decodes back to the
// input payloads via DecodeStream.
func EncodeStream(payloads []types.Payload) (string, error) {
	var out string
	for _, p := range payloads {
		frame, err := EncodeEnvelope(p)
		if err != nil {
			return "", err
		}
		out += frame
	}
	terminal, err := EncodeEnvelope(types.Payload{types.TerminalKey: true})
	if err != nil {
		return "", err
	}
	return out + terminal, nil
}
