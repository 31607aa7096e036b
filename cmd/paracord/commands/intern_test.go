package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

const testInput = "a\nb\na\nc\n"

func TestIntern_TextFromFile(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, NewInternCommand(), nil, writeInput(t, "in.txt", testInput))
	require.NoError(t, err)

	assert.Equal(t, "0\ta\n1\tb\n2\tc\n", out)
}

func TestIntern_Stdin(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, NewInternCommand(), strings.NewReader("x\r\ny\n"))
	require.NoError(t, err)

	assert.Equal(t, "0\tx\n1\ty\n", out)
}

func TestIntern_JSON(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, NewInternCommand(), strings.NewReader(testInput), "--format", FormatJSON)
	require.NoError(t, err)

	var entries []entry

	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Equal(t, []entry{{0, "a"}, {1, "b"}, {2, "c"}}, entries)
}

func TestIntern_YAML(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, NewInternCommand(), strings.NewReader(testInput), "-f", FormatYAML)
	require.NoError(t, err)

	var entries []entry

	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 3)
	assert.Equal(t, "c", entries[2].Value)
}

func TestIntern_Msgpack(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, NewInternCommand(), strings.NewReader(testInput), "-f", FormatMsgpack)
	require.NoError(t, err)

	var entries []entry

	require.NoError(t, msgpack.Unmarshal([]byte(out), &entries))
	assert.Equal(t, entry{Key: 1, Value: "b"}, entries[1])
}

func TestIntern_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := runCommand(t, NewInternCommand(), nil, "--format", "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestIntern_Summary(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, NewInternCommand(), strings.NewReader(testInput), "--summary")
	require.NoError(t, err)

	assert.Contains(t, out, "4 lines")
	assert.Contains(t, out, "unique values")
}

func TestIntern_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := runCommand(t, NewInternCommand(), nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestIntern_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	snap := filepath.Join(t.TempDir(), "words.pcs")

	_, err := runCommand(t, NewInternCommand(), strings.NewReader(testInput), "--snapshot", snap)
	require.NoError(t, err)

	out, err := runCommand(t, NewInternCommand(), strings.NewReader("d\nb\n"), "--from", snap)
	require.NoError(t, err)

	assert.Equal(t, "0\ta\n1\tb\n2\tc\n3\td\n", out)
}

func TestIngest_ManyFiles(t *testing.T) {
	t.Parallel()

	first := writeInput(t, "first.txt", "shared\none\n")
	second := writeInput(t, "second.txt", "shared\ntwo\nthree\n")

	strs := paracord.NewStrings()

	lines, err := ingest(context.Background(), strs, []string{first, second}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(5), lines)
	assert.Equal(t, 4, strs.Len())

	for _, v := range []string{"shared", "one", "two", "three"} {
		_, ok := strs.Get(v)
		assert.True(t, ok, v)
	}
}

func TestIngest_StdinOnce(t *testing.T) {
	t.Parallel()

	_, err := ingest(context.Background(), paracord.NewStrings(), []string{"-", "-"}, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMultipleStdin)
}

func TestIngest_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingest(ctx, paracord.NewStrings(), nil, strings.NewReader("a\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteEntries_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, writeEntries(&buf, FormatJSON, paracord.NewStrings()))
	assert.JSONEq(t, "[]", buf.String())
}
