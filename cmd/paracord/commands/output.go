package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

// Output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

// entry is one interned value as printed by `paracord intern`.
type entry struct {
	Key   uint32 `json:"key"   msgpack:"key"   yaml:"key"`
	Value string `json:"value" msgpack:"value" yaml:"value"`
}

func checkFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML, FormatMsgpack:
		return nil
	default:
		return fmt.Errorf("%w: %q (want text, json, yaml or msgpack)", ErrUnknownFormat, format)
	}
}

func collectEntries(strs *paracord.Strings) []entry {
	entries := make([]entry, 0, strs.Len())

	for k, v := range strs.All() {
		entries = append(entries, entry{Key: k.Repr(), Value: v})
	}

	return entries
}

// writeEntries prints every key and value of strs in key order.
func writeEntries(w io.Writer, format string, strs *paracord.Strings) error {
	if format == FormatText {
		for k, v := range strs.All() {
			if _, err := fmt.Fprintf(w, "%d\t%s\n", k.Repr(), v); err != nil {
				return fmt.Errorf("write entry: %w", err)
			}
		}

		return nil
	}

	entries := collectEntries(strs)

	var err error

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		err = errors.Join(enc.Encode(entries), enc.Close())
	case FormatMsgpack:
		err = msgpack.NewEncoder(w).Encode(entries)
	default:
		return checkFormat(format)
	}

	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	return nil
}
