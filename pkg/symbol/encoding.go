package symbol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidKey is returned when encoding the zero Key.
var ErrInvalidKey = errors.New("symbol: invalid key")

// Keys encode as their string. Decoding interns the string, so a decoded
// key is valid in the namespace of S even if the string was never seen.

// MarshalText implements encoding.TextMarshaler. JSON uses it too.
func (k Key[S]) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, ErrInvalidKey
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key[S]) UnmarshalText(text []byte) error {
	*k = Intern[S](string(text))

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (k Key[S]) MarshalYAML() (any, error) {
	if !k.Valid() {
		return nil, ErrInvalidKey
	}

	return k.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Key[S]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("symbol: decode yaml: expected a scalar, got kind %d", node.Kind)
	}

	*k = Intern[S](node.Value)

	return nil
}

var (
	_ msgpack.CustomEncoder = Key[Default]{}
	_ msgpack.CustomDecoder = (*Key[Default])(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (k Key[S]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !k.Valid() {
		return ErrInvalidKey
	}

	if err := enc.EncodeString(k.String()); err != nil {
		return fmt.Errorf("symbol: encode msgpack: %w", err)
	}

	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (k *Key[S]) DecodeMsgpack(dec *msgpack.Decoder) error {
	str, err := dec.DecodeString()
	if err != nil {
		return fmt.Errorf("symbol: decode msgpack: %w", err)
	}

	*k = Intern[S](str)

	return nil
}
