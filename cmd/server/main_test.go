package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCommand_MemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	fixture := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
bakeries:
  - name: Padaria Central
    menu:
      - name: Bread
        price: 0.8
      - name: Coffee
        price: 4.5
  - name: Doce Lar
`), 0o600))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "seed", "--file", fixture})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "seeded 2 bakeries and 2 menu items")
}

func TestSeedCommand_RequiresFile(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "seed"})

	assert.Error(t, cmd.Execute())
}

func TestSeedCommand_InvalidFixture(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte("bakeries:\n  - description: no name\n"), 0o600))

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "seed", "--file", fixture})

	assert.Error(t, cmd.Execute())
}
