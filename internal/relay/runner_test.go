package relay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable script standing in for the relay binary.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay-bin")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestBinaryRunnerAcceptsValidConfig(t *testing.T) {
	bin := fakeBinary(t, `echo "Configuration OK"`)

	err := NewBinaryRunner(bin).Validate(context.Background(), "/tmp/config.json")
	assert.NoError(t, err)
}

func TestBinaryRunnerRejectsOnExitCode(t *testing.T) {
	bin := fakeBinary(t, `echo "failed to parse config"; exit 1`)

	err := NewBinaryRunner(bin).Validate(context.Background(), "/tmp/config.json")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "/tmp/config.json", ve.Path)
	assert.Contains(t, ve.Output, "failed to parse config")
}

func TestBinaryRunnerRequiresAcknowledgment(t *testing.T) {
	// Exit 0 without the confirmation string still counts as a rejection.
	bin := fakeBinary(t, `echo "something unexpected"`)

	err := NewBinaryRunner(bin).Validate(context.Background(), "/tmp/config.json")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Nil(t, ve.Err)
}

func TestBinaryRunnerMissingBinary(t *testing.T) {
	err := NewBinaryRunner(filepath.Join(t.TempDir(), "missing")).Validate(context.Background(), "/tmp/config.json")
	assert.Error(t, err)
}

func TestNewBinaryRunnerDefault(t *testing.T) {
	assert.Equal(t, "/usr/local/bin/v2ray", NewBinaryRunner("").Bin)
}
