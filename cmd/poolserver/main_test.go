package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWithArgs(t *testing.T, args ...string) int {
	t.Helper()
	oldArgs, oldFlags := os.Args, flag.CommandLine
	t.Cleanup(func() {
		os.Args, flag.CommandLine = oldArgs, oldFlags
	})
	flag.CommandLine = flag.NewFlagSet("poolserver", flag.ContinueOnError)
	os.Args = append([]string{"poolserver"}, args...)
	return start()
}

func TestStart_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	noEnv := filepath.Join(dir, "missing.env")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pool:\n  size: 0\n"), 0o644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"dump config", []string{"-env", noEnv, "-dump-config"}, 0},
		{"missing config file", []string{"-env", noEnv, "-config", filepath.Join(dir, "nope.yaml")}, 1},
		{"invalid pool size", []string{"-env", noEnv, "-config", bad}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, startWithArgs(t, tt.args...))
		})
	}
}
