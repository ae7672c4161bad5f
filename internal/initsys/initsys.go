// Package initsys abstracts the host's service supervisor (systemd, OpenRC,
// or operator-defined commands) behind a single interface so the apply
// pipeline never talks to a concrete init system directly.
package initsys

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// InitSystem manages a named service on the host.
type InitSystem interface {
	// Type returns the init system identifier.
	Type() string

	Start(ctx context.Context, service string) error
	Stop(ctx context.Context, service string) error
	Restart(ctx context.Context, service string) error

	// Status reports whether the service is currently running.
	Status(ctx context.Context, service string) (running bool, err error)

	Enable(ctx context.Context, service string) error
	Disable(ctx context.Context, service string) error
}

// Config selects and parameterizes the init system.
type Config struct {
	// Type is one of: auto, systemd, openrc, custom.
	Type string `yaml:"type" mapstructure:"type"`

	// Custom commands, used when Type is "custom". {service} expands to the
	// service name.
	Custom CustomCommands `yaml:"custom" mapstructure:"custom"`
}

// CustomCommands defines operator-provided service control commands.
type CustomCommands struct {
	Start   string `yaml:"start" mapstructure:"start"`
	Stop    string `yaml:"stop" mapstructure:"stop"`
	Restart string `yaml:"restart" mapstructure:"restart"`
	Status  string `yaml:"status" mapstructure:"status"`
	Enable  string `yaml:"enable" mapstructure:"enable"`
	Disable string `yaml:"disable" mapstructure:"disable"`
}

// New creates an InitSystem from config, detecting the host's supervisor
// when Type is "auto" or empty.
func New(cfg Config) (InitSystem, error) {
	switch strings.ToLower(cfg.Type) {
	case "systemd":
		return &Systemd{}, nil
	case "openrc":
		return &OpenRC{}, nil
	case "custom":
		if cfg.Custom.Start == "" || cfg.Custom.Stop == "" {
			return nil, fmt.Errorf("custom init system requires at least start and stop commands")
		}
		return &Custom{commands: cfg.Custom}, nil
	case "auto", "":
		return Detect(), nil
	default:
		return nil, fmt.Errorf("unknown init system type: %s", cfg.Type)
	}
}

// Detect picks the init system from the environment, defaulting to systemd.
func Detect() InitSystem {
	if _, err := os.Stat("/run/systemd/system"); err == nil {
		return &Systemd{}
	}
	if _, err := os.Stat("/sbin/rc-service"); err == nil {
		return &OpenRC{}
	}
	if _, err := os.Stat("/sbin/openrc"); err == nil {
		return &OpenRC{}
	}
	return &Systemd{}
}

const commandTimeout = 30 * time.Second

func runCommand(ctx context.Context, command string) error {
	output, err := runCommandWithOutput(ctx, command)
	if err != nil {
		return fmt.Errorf("command %q failed: %w, output: %s", command, err, strings.TrimSpace(output))
	}
	return nil
}

func runCommandWithOutput(ctx context.Context, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	name, args, err := splitCommand(command)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// splitCommand tokenizes a shell-like command respecting quotes and escapes.
func splitCommand(command string) (string, []string, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", nil, fmt.Errorf("command is required")
	}

	parts := make([]string, 0, 4)
	var buf strings.Builder
	inSingle := false
	inDouble := false
	escaped := false

	for _, r := range trimmed {
		switch {
		case escaped:
			buf.WriteRune(r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case !inSingle && !inDouble && (r == ' ' || r == '\t' || r == '\n'):
			if buf.Len() > 0 {
				parts = append(parts, buf.String())
				buf.Reset()
			}
		default:
			buf.WriteRune(r)
		}
	}

	if escaped || inSingle || inDouble {
		return "", nil, fmt.Errorf("invalid command: unclosed quote or escape")
	}
	if buf.Len() > 0 {
		parts = append(parts, buf.String())
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("command is required")
	}
	return parts[0], parts[1:], nil
}
