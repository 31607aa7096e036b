// Package snapshot persists a string interner so that a restored interner
// hands out the same keys.
//
// A snapshot is the magic "PCRD", a format version byte, then an LZ4 frame
// holding a msgpack array of every interned string in key order.
package snapshot

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

const formatVersion = 1

// maxPresize caps how many entries Read reserves up front. The declared
// length is untrusted, so larger snapshots grow the interner as they decode.
const maxPresize = 1 << 16

var magic = []byte("PCRD")

var (
	// ErrFormat is returned for input that is not a snapshot.
	ErrFormat = errors.New("snapshot: not a paracord snapshot")
	// ErrVersion is returned for snapshots written by a newer format.
	ErrVersion = errors.New("snapshot: unsupported format version")
	// ErrCorrupt is returned when a snapshot repeats a value, which would
	// shift every later key.
	ErrCorrupt = errors.New("snapshot: duplicate value")
)

// Write stores every value of s in key order and returns how many were
// written. Values still being interned concurrently are cut off at the first
// key that is not yet resolvable, so the snapshot is always a dense prefix.
func Write(w io.Writer, s *paracord.Strings) (int, error) {
	values := make([]string, 0, s.Len())

	for k, v := range s.All() {
		if k.Index() != len(values) {
			break
		}

		values = append(values, v)
	}

	if _, err := w.Write(append(bytes.Clone(magic), formatVersion)); err != nil {
		return 0, fmt.Errorf("snapshot: write header: %w", err)
	}

	zw := lz4.NewWriter(w)
	enc := msgpack.NewEncoder(zw)

	if err := enc.EncodeArrayLen(len(values)); err != nil {
		return 0, fmt.Errorf("snapshot: encode length: %w", err)
	}

	for _, v := range values {
		if err := enc.EncodeString(v); err != nil {
			return 0, fmt.Errorf("snapshot: encode value: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("snapshot: flush: %w", err)
	}

	return len(values), nil
}

// Read restores a snapshot into a new interner built with opts.
func Read(r io.Reader, opts ...paracord.Option) (*paracord.Strings, error) {
	br := bufio.NewReader(r)

	header := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if !bytes.Equal(header[:len(magic)], magic) {
		return nil, ErrFormat
	}

	if header[len(magic)] != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, header[len(magic)])
	}

	dec := msgpack.NewDecoder(lz4.NewReader(br))

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode length: %w", err)
	}

	s := paracord.NewStrings(append([]paracord.Option{paracord.WithCapacity(min(max(n, 0), maxPresize))}, opts...)...)

	for i := range n {
		v, err := dec.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("snapshot: decode value %d: %w", i, err)
		}

		if k := s.GetOrIntern(v); k.Index() != i {
			return nil, fmt.Errorf("%w: %q at %d", ErrCorrupt, v, i)
		}
	}

	return s, nil
}
