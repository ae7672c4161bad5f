package initsys

import (
	"context"
	"strings"
)

// Custom implements InitSystem with operator-defined shell commands.
type Custom struct {
	commands CustomCommands
}

func (c *Custom) Type() string {
	return "custom"
}

func (c *Custom) Start(ctx context.Context, service string) error {
	return runCommand(ctx, expand(c.commands.Start, service))
}

func (c *Custom) Stop(ctx context.Context, service string) error {
	return runCommand(ctx, expand(c.commands.Stop, service))
}

func (c *Custom) Restart(ctx context.Context, service string) error {
	if c.commands.Restart != "" {
		return runCommand(ctx, expand(c.commands.Restart, service))
	}
	_ = c.Stop(ctx, service)
	return c.Start(ctx, service)
}

func (c *Custom) Status(ctx context.Context, service string) (bool, error) {
	if c.commands.Status == "" {
		return false, nil
	}
	// The status command signals running via exit code 0.
	_, err := runCommandWithOutput(ctx, expand(c.commands.Status, service))
	return err == nil, nil
}

func (c *Custom) Enable(ctx context.Context, service string) error {
	if c.commands.Enable == "" {
		return nil
	}
	return runCommand(ctx, expand(c.commands.Enable, service))
}

func (c *Custom) Disable(ctx context.Context, service string) error {
	if c.commands.Disable == "" {
		return nil
	}
	return runCommand(ctx, expand(c.commands.Disable, service))
}

func expand(command, service string) string {
	return strings.ReplaceAll(command, "{service}", service)
}
