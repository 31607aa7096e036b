package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// runCommand executes sub under a root that carries the persistent flags
// of the real binary, with an empty config file so the user's
// .paracord.yaml never leaks in.
func runCommand(t *testing.T, sub *cobra.Command, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o600))

	root := &cobra.Command{Use: "paracord", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String(FlagConfig, "", "")
	root.PersistentFlags().Bool(FlagVerbose, false, "")
	root.AddCommand(sub)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(io.Discard)

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	root.SetIn(stdin)
	root.SetArgs(append([]string{sub.Name(), "--" + FlagConfig, cfgPath}, args...))

	err := root.Execute()

	return out.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
