package initsys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("systemd", func(t *testing.T) {
		sys, err := New(Config{Type: "systemd"})
		require.NoError(t, err)
		assert.Equal(t, "systemd", sys.Type())
	})
	t.Run("openrc", func(t *testing.T) {
		sys, err := New(Config{Type: "openrc"})
		require.NoError(t, err)
		assert.Equal(t, "openrc", sys.Type())
	})
	t.Run("case insensitive", func(t *testing.T) {
		sys, err := New(Config{Type: "SystemD"})
		require.NoError(t, err)
		assert.Equal(t, "systemd", sys.Type())
	})
	t.Run("custom", func(t *testing.T) {
		sys, err := New(Config{Type: "custom", Custom: CustomCommands{
			Start: "sv start {service}",
			Stop:  "sv stop {service}",
		}})
		require.NoError(t, err)
		assert.Equal(t, "custom", sys.Type())
	})
	t.Run("custom without commands", func(t *testing.T) {
		_, err := New(Config{Type: "custom"})
		assert.Error(t, err)
	})
	t.Run("unknown type", func(t *testing.T) {
		_, err := New(Config{Type: "launchd"})
		assert.Error(t, err)
	})
	t.Run("auto detects something", func(t *testing.T) {
		sys, err := New(Config{Type: "auto"})
		require.NoError(t, err)
		assert.NotEmpty(t, sys.Type())
	})
	t.Run("empty means auto", func(t *testing.T) {
		sys, err := New(Config{})
		require.NoError(t, err)
		assert.NotNil(t, sys)
	})
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{
			name:     "simple",
			command:  "systemctl restart v2ray",
			wantName: "systemctl",
			wantArgs: []string{"restart", "v2ray"},
		},
		{
			name:     "double quotes",
			command:  `sh -c "systemctl restart v2ray"`,
			wantName: "sh",
			wantArgs: []string{"-c", "systemctl restart v2ray"},
		},
		{
			name:     "single quotes",
			command:  `logger 'service went down'`,
			wantName: "logger",
			wantArgs: []string{"service went down"},
		},
		{
			name:     "escaped space",
			command:  `run /opt/my\ tool/bin`,
			wantName: "run",
			wantArgs: []string{"/opt/my tool/bin"},
		},
		{
			name:     "collapses whitespace",
			command:  "  systemctl \t restart   v2ray  ",
			wantName: "systemctl",
			wantArgs: []string{"restart", "v2ray"},
		},
		{
			name:     "quote inside other quote kind",
			command:  `echo "it's fine"`,
			wantName: "echo",
			wantArgs: []string{"it's fine"},
		},
		{name: "empty", command: "", wantErr: true},
		{name: "only whitespace", command: "   ", wantErr: true},
		{name: "unclosed quote", command: `echo "oops`, wantErr: true},
		{name: "trailing escape", command: `echo oops\`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := splitCommand(tt.command)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestExpandService(t *testing.T) {
	assert.Equal(t, "sv start v2ray", expand("sv start {service}", "v2ray"))
	assert.Equal(t, "no placeholder", expand("no placeholder", "v2ray"))
}
