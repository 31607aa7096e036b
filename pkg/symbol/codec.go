package symbol

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

// Codec encodes keys of one explicit interner as their strings. Decoding
// interns, so every decoded key belongs to that interner.
type Codec struct {
	strings *paracord.Strings
}

// NewCodec returns a codec bound to s.
func NewCodec(s *paracord.Strings) *Codec {
	return &Codec{strings: s}
}

func (c *Codec) resolve(k paracord.Key) (string, error) {
	str, ok := c.strings.TryResolve(k)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, k)
	}

	return str, nil
}

// EncodeJSON returns k as a JSON string.
func (c *Codec) EncodeJSON(k paracord.Key) ([]byte, error) {
	str, err := c.resolve(k)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(str)
	if err != nil {
		return nil, fmt.Errorf("symbol: encode json: %w", err)
	}

	return data, nil
}

// DecodeJSON interns the JSON string in data.
func (c *Codec) DecodeJSON(data []byte) (paracord.Key, error) {
	var str string

	if err := json.Unmarshal(data, &str); err != nil {
		return paracord.Key{}, fmt.Errorf("symbol: decode json: %w", err)
	}

	return c.strings.GetOrIntern(str), nil
}

// EncodeMsgpack returns k as a msgpack string.
func (c *Codec) EncodeMsgpack(k paracord.Key) ([]byte, error) {
	str, err := c.resolve(k)
	if err != nil {
		return nil, err
	}

	data, err := msgpack.Marshal(str)
	if err != nil {
		return nil, fmt.Errorf("symbol: encode msgpack: %w", err)
	}

	return data, nil
}

// DecodeMsgpack interns the msgpack string in data.
func (c *Codec) DecodeMsgpack(data []byte) (paracord.Key, error) {
	var str string

	if err := msgpack.Unmarshal(data, &str); err != nil {
		return paracord.Key{}, fmt.Errorf("symbol: decode msgpack: %w", err)
	}

	return c.strings.GetOrIntern(str), nil
}
