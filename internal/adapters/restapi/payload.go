package restapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// bodyKind tags the shape a response body arrived in.
type bodyKind int

const (
	bodyEmpty bodyKind = iota
	bodyJSON
	bodyText
)

// payload is a response body after the content-type decision has been made.
// JSON bodies keep their raw bytes so each endpoint decodes its own shape.
type payload struct {
	kind bodyKind
	raw  json.RawMessage
	text string
}

// parsePayload applies the content-type policy: empty stays empty, declared
// JSON must parse, anything else is a plain-text message.
func parsePayload(contentType string, body []byte) (payload, bool) {
	if len(body) == 0 {
		return payload{kind: bodyEmpty}, true
	}
	if strings.Contains(contentType, "application/json") {
		if !json.Valid(body) {
			return payload{}, false
		}
		return payload{kind: bodyJSON, raw: json.RawMessage(body)}, true
	}
	return payload{kind: bodyText, text: string(body)}, true
}

// object returns the top-level JSON object, or nil for any other shape.
func (p payload) object() jsonObject {
	if p.kind != bodyJSON {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(p.raw, &obj); err != nil {
		return nil
	}
	return obj
}

// array returns the elements of a top-level JSON array.
func (p payload) array() ([]json.RawMessage, bool) {
	if p.kind != bodyJSON {
		return nil, false
	}
	trimmed := bytes.TrimSpace(p.raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

// message is the human readable text carried by the body: the "message"
// field of a JSON object or the whole plain-text body.
func (p payload) message() string {
	switch p.kind {
	case bodyText:
		return p.text
	case bodyJSON:
		return p.object().str("message")
	default:
		return ""
	}
}

// messageOr returns message() or fallback when it is empty.
func (p payload) messageOr(fallback string) string {
	if m := p.message(); m != "" {
		return m
	}
	return fallback
}

// jsonObject offers lenient field access: a field of the wrong type reads as absent.
type jsonObject map[string]json.RawMessage

func decodeObject(raw json.RawMessage) jsonObject {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func (o jsonObject) str(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// id reads an identifier that may be encoded as a string or a number.
func (o jsonObject) id(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}

func (o jsonObject) boolPtr(key string) *bool {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil
	}
	return &b
}

func (o jsonObject) object(key string) jsonObject {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	return decodeObject(raw)
}

func (o jsonObject) array(key string) []json.RawMessage {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
