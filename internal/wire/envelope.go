package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EnvelopeError is returned when the backend answers {"success": false}.
type EnvelopeError struct {
	Message string
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return "backend reported failure"
	}
	return "backend reported failure: " + e.Message
}

// DecodeList extracts a list of objects from a response body. The body may be
// a bare array, a {success, data} envelope whose data is an array, or an
// envelope whose data is an object holding the list under one of keys.
// Non-object array items are skipped.
func DecodeList(body []byte, keys ...string) ([]Fields, error) {
	payload, err := unwrap(body, keys)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	if payload[0] != '[' {
		return nil, fmt.Errorf("decode list: payload is not an array")
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	out := make([]Fields, 0, len(raws))
	for _, r := range raws {
		var f Fields
		if err := json.Unmarshal(r, &f); err != nil || f == nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// DecodeObject extracts a single object from a response body, unwrapping the
// envelope and an optional holder key the same way DecodeList does.
func DecodeObject(body []byte, keys ...string) (Fields, error) {
	payload, err := unwrap(body, keys)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return Fields{}, nil
	}
	var f Fields
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return f, nil
}

// unwrap returns the innermost payload, or nil for an empty body or null data.
func unwrap(body []byte, keys []string) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	if body[0] == '[' {
		return body, nil
	}
	var top Fields
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if raw, ok := top["success"]; ok {
		if v, _ := scalarText(raw); v == "false" {
			return nil, &EnvelopeError{Message: top.Get(FieldErrorMessage)}
		}
	}

	holder := top
	if data, ok := top["data"]; ok {
		data = bytes.TrimSpace(data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return nil, nil
		}
		if data[0] != '{' {
			return data, nil
		}
		var inner Fields
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode envelope data: %w", err)
		}
		holder = inner
		if found := lookup(holder, keys); found != nil {
			return found, nil
		}
		return data, nil
	}
	if found := lookup(holder, keys); found != nil {
		return found, nil
	}
	return body, nil
}

func lookup(f Fields, keys []string) json.RawMessage {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && (raw[0] == '[' || raw[0] == '{') {
			return raw
		}
	}
	return nil
}
