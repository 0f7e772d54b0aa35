package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	logger = zap.NewNop()

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := runCommand(t, "version", "--short")

	assert.Equal(t, "dev\n", out)
}

func TestTreeCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	out := runCommand(t, "tree", "--root", root)

	assert.Contains(t, out, "main.go")
	assert.NotContains(t, out, ".git")
}

func TestPackCommandWritesChunks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha beta gamma\n"), 0o644))

	chunkDir := filepath.Join(t.TempDir(), "chunks")
	runCommand(t, "pack", "--root", root, "--model", "test-model", "--chunk-dir", chunkDir)

	entries, err := os.ReadDir(chunkDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "part_001_of_001.txt", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(chunkDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "File: a.txt")
}

func TestTokensCommandApproximateFallback(t *testing.T) {
	input := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(input, []byte("one two three four five"), 0o644))

	out := runCommand(t, "tokens", "--model", "no-such-model", input)

	assert.Contains(t, out, "Tokens:       7 (approximate)")
	assert.Contains(t, out, "Model:        no-such-model")
}
