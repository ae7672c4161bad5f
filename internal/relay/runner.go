package relay

import (
	"context"
	"os/exec"
	"strings"
)

// validationOK is the acknowledgment the relay binary prints when a config
// file passes its built-in test.
const validationOK = "Configuration OK"

// Validator checks a written configuration file before it is committed.
type Validator interface {
	Validate(ctx context.Context, configPath string) error
}

// BinaryRunner drives the external relay binary's validation subcommand.
type BinaryRunner struct {
	Bin string
}

// NewBinaryRunner wraps the relay executable at bin.
func NewBinaryRunner(bin string) *BinaryRunner {
	if bin == "" {
		bin = "/usr/local/bin/v2ray"
	}
	return &BinaryRunner{Bin: bin}
}

// Validate runs `<bin> test -config <path>` and requires the confirmation
// string in its output. A failed invocation counts as a rejection.
func (r *BinaryRunner) Validate(ctx context.Context, configPath string) error {
	cmd := exec.CommandContext(ctx, r.Bin, "test", "-config", configPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &ValidationError{Path: configPath, Output: strings.TrimSpace(string(output)), Err: err}
	}
	if !strings.Contains(string(output), validationOK) {
		return &ValidationError{Path: configPath, Output: strings.TrimSpace(string(output))}
	}
	return nil
}
