package commands

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

const (
	// stdinInput names standard input among the input paths.
	stdinInput = "-"

	// maxLineSize bounds a single input value.
	maxLineSize = 16 << 20

	// ctxCheckInterval is how many lines pass between cancellation checks.
	ctxCheckInterval = 4096
)

// ErrMultipleStdin is returned when "-" is given more than once.
var ErrMultipleStdin = errors.New("standard input can only be read once")

// ingest interns every line of every input, one goroutine per input, and
// returns the number of lines read. With no inputs it reads stdin. Across
// inputs the key order depends on scheduling; within one input it follows
// the line order.
func ingest(ctx context.Context, strs *paracord.Strings, inputs []string, stdin io.Reader) (int64, error) {
	if len(inputs) == 0 {
		inputs = []string{stdinInput}
	}

	stdinCount := 0
	for _, input := range inputs {
		if isStdin(input) {
			stdinCount++
		}
	}

	if stdinCount > 1 {
		return 0, ErrMultipleStdin
	}

	var lines atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	for _, input := range inputs {
		g.Go(func() error {
			n, err := ingestOne(gctx, strs, input, stdin)
			lines.Add(n)

			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}

			return nil
		})
	}

	err := g.Wait()

	return lines.Load(), err
}

func isStdin(input string) bool {
	return input == stdinInput
}

func ingestOne(ctx context.Context, strs *paracord.Strings, input string, stdin io.Reader) (int64, error) {
	if isStdin(input) {
		return internLines(ctx, strs, stdin)
	}

	f, err := os.Open(input)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}

	defer f.Close()

	return internLines(ctx, strs, f)
}

// internLines interns each line of r, without its line ending.
func internLines(ctx context.Context, strs *paracord.Strings, r io.Reader) (int64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	var n int64

	for sc.Scan() {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return n, fmt.Errorf("ingest cancelled: %w", err)
			}
		}

		strs.GetOrInternBytes(bytes.TrimSuffix(sc.Bytes(), []byte{'\r'}))
		n++
	}

	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("scan input: %w", err)
	}

	return n, nil
}
