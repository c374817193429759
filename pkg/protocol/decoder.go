package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FetchType is the wire type of a resource snapshot push.
const FetchType = "Fetch"

// DecodeInbound decodes a raw server frame into one of the Inbound variants.
//
// A frame that is not a JSON object yields ErrMalformedFrame. A frame that
// is valid JSON but carries no locator decodes to *Unaddressed rather than
// an error, so callers can still forward it.
func DecodeInbound(data []byte) (Inbound, error) {
	return DecodeInboundLimit(data, MaxFrameSize)
}

// DecodeInboundLimit is DecodeInbound with a custom frame size limit.
// A limit <= 0 disables the check.
func DecodeInboundLimit(data []byte, limit int) (Inbound, error) {
	if limit > 0 && len(data) > limit {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedFrame)
	}

	var w inboundWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if w.Object == nil || w.Object.URL == "" {
		return &Unaddressed{Type: w.Type}, nil
	}

	if w.Type != FetchType {
		return &Unknown{Type: w.Type, Locator: w.Object.URL}, nil
	}

	data = w.Object.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return &Fetch{
		Locator: w.Object.URL,
		Data:    append(json.RawMessage(nil), data...),
	}, nil
}

// EncodeFetch encodes a resource push frame. Used by servers and test
// doubles; the client itself only decodes these.
func EncodeFetch(locator string, data any) ([]byte, error) {
	if locator == "" {
		return nil, ErrEmptyLocator
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(inboundWire{
		Type: FetchType,
		Object: &inboundObjectWire{
			URL:  locator,
			Data: raw,
		},
	})
}
