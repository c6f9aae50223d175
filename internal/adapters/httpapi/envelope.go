package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/zerr"
)

// envelopeWire is the {success, data, error, message} wrapper most endpoints answer with.
type envelopeWire struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// decodeEnvelope wraps body into an Envelope. Bodies without a "success" field (bare arrays,
// paginators) are successful envelopes whose Data is the whole body.
func decodeEnvelope(body []byte) (*ports.Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &ports.Envelope{Success: true}, nil
	}
	if !json.Valid(trimmed) {
		return nil, zerr.Wrap(errors.Join(domain.ErrDecodeFailed, errors.New("response is not json")), "decode envelope")
	}

	raw := json.RawMessage(trimmed)
	if trimmed[0] != '{' {
		return &ports.Envelope{Success: true, Data: raw, Body: raw}, nil
	}

	var w envelopeWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrDecodeFailed, err), "decode envelope")
	}
	if w.Success == nil {
		return &ports.Envelope{Success: true, Data: raw, Body: raw}, nil
	}
	return &ports.Envelope{
		Success: *w.Success,
		Data:    w.Data,
		Error:   errorText(w.Error),
		Message: w.Message,
		Body:    raw,
	}, nil
}

// errorText flattens the "error" field, which is either a string or an object of messages.
func errorText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// errorMessage extracts a human-readable message from a non-2xx body.
func errorMessage(body []byte) string {
	var w envelopeWire
	if err := json.Unmarshal(body, &w); err != nil {
		return ""
	}
	if w.Message != "" {
		return w.Message
	}
	return errorText(w.Error)
}
