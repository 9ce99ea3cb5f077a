package format

import (
	"encoding/json"
	"fmt"
)

// The storable envelope is JSON. Each Data value is an object with exactly one
// key naming its variant:
//
//	{"Text":"hello"}
//	{"RTF":"e1xydGYx..."}     (base64)
//	{"Image":"iVBORw0K..."}   (base64)
//	{"Files":["/tmp/a.txt"]}
//
// A Content is {"main_format":<data>,"data":[<data>,...]}.

type contentEnvelope struct {
	Main json.RawMessage   `json:"main_format"`
	Data []json.RawMessage `json:"data"`
}

// MarshalData encodes a single format into its envelope form.
func MarshalData(d Data) ([]byte, error) {
	if err := checkText(d); err != nil {
		return nil, err
	}

	var value any
	switch v := d.(type) {
	case Text:
		value = string(v)
	case RichText:
		value = []byte(v)
	case Image:
		value = []byte(v)
	case Files:
		paths := []string(v)
		if paths == nil {
			paths = []string{}
		}
		value = paths
	default:
		return nil, fmt.Errorf("unsupported format %T", d)
	}
	return json.Marshal(map[string]any{d.envelopeKey(): value})
}

// UnmarshalData decodes a single format from its envelope form.
func UnmarshalData(b []byte) (Data, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to decode format envelope: %w", err)
	}
	if len(m) != 1 {
		return nil, fmt.Errorf("format envelope must have exactly one key, got %d", len(m))
	}

	for key, raw := range m {
		switch key {
		case Text("").envelopeKey():
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("failed to decode text: %w", err)
			}
			return Text(s), nil
		case RichText(nil).envelopeKey():
			var b []byte
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, fmt.Errorf("failed to decode rich text: %w", err)
			}
			return RichText(b), nil
		case Image(nil).envelopeKey():
			var b []byte
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, fmt.Errorf("failed to decode image: %w", err)
			}
			return Image(b), nil
		case Files(nil).envelopeKey():
			var paths []string
			if err := json.Unmarshal(raw, &paths); err != nil {
				return nil, fmt.Errorf("failed to decode files: %w", err)
			}
			return Files(paths), nil
		default:
			return nil, fmt.Errorf("unknown format variant %q", key)
		}
	}
	return nil, nil // unreachable
}

// MarshalJSON implements json.Marshaler.
func (c *Content) MarshalJSON() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	main, err := MarshalData(c.Main)
	if err != nil {
		return nil, err
	}

	env := contentEnvelope{
		Main: main,
		Data: make([]json.RawMessage, 0, len(c.Data)),
	}
	for _, d := range c.Data {
		raw, err := MarshalData(d)
		if err != nil {
			return nil, err
		}
		env.Data = append(env.Data, raw)
	}

	return json.Marshal(env)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(b []byte) error {
	var env contentEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("failed to decode content envelope: %w", err)
	}
	if len(env.Main) == 0 {
		return ErrNoMain
	}

	main, err := UnmarshalData(env.Main)
	if err != nil {
		return err
	}

	data := make([]Data, 0, len(env.Data))
	for _, raw := range env.Data {
		d, err := UnmarshalData(raw)
		if err != nil {
			return err
		}
		data = append(data, d)
	}

	decoded := Content{Main: main, Data: data}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*c = decoded
	return nil
}

// Encode serialises c into its storable string form.
func Encode(c *Content) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a Content previously produced by Encode.
func Decode(s string) (*Content, error) {
	var c Content
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// EncodeData serialises a single format into its storable string form.
func EncodeData(d Data) (string, error) {
	b, err := MarshalData(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeData parses a single format previously produced by EncodeData.
func DecodeData(s string) (Data, error) {
	return UnmarshalData([]byte(s))
}
