package command

import (
	"context"
	"restorebot/internal/core/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResponder struct {
	command string
}

func (m *MockResponder) Respond(_ context.Context, _ time.Duration, _ *domain.Message) error {
	return nil
}

func (m *MockResponder) GetCommand() string {
	return m.command
}

func TestRegistryGet(t *testing.T) {
	restore := &MockResponder{command: "/Restore"}
	registry := NewRegistry(restore, &MockResponder{command: "/images"})

	tests := []struct {
		name    string
		command string
		want    *MockResponder
	}{
		{name: "registered under lower case", command: "/restore", want: restore},
		{name: "unknown command", command: "/sepia"},
		{name: "lookup is exact", command: "/Restore"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := registry.Get(tc.command)
			if tc.want == nil {
				assert.ErrorIs(t, err, domain.ErrUnknownCommand)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Same(t, tc.want, got)
		})
	}
}

func TestRegistryZeroValue(t *testing.T) {
	var registry Registry

	_, err := registry.Get("/restore")
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
	assert.Empty(t, registry.ListCommands())

	registry.Register(&MockResponder{command: "/usage"})
	assert.Equal(t, []string{"/usage"}, registry.ListCommands())
}

func TestRegistryReplacesHandler(t *testing.T) {
	first := &MockResponder{command: "/status"}
	second := &MockResponder{command: "/status"}
	registry := NewRegistry(first, second)

	got, err := registry.Get("/status")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"/status"}, registry.ListCommands())
}

func TestRegistryListCommandsSorted(t *testing.T) {
	registry := NewRegistry(
		&MockResponder{command: "/usage"},
		&MockResponder{command: "/download"},
		&MockResponder{command: "/restore"},
	)

	assert.Equal(t, []string{"/download", "/restore", "/usage"}, registry.ListCommands())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare command", "/images", "/images"},
		{"arguments dropped", "/restore 12 upscale", "/restore"},
		{"bot mention stripped", "/Restore@restore_bot upscale", "/restore"},
		{"caption with newline", "/restore\nface", "/restore"},
		{"leading space", "  /history 3", "/history"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCommand(tc.text))
		})
	}
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no arguments", "/images", nil},
		{"empty", "", nil},
		{"several arguments", "/download 12 v3", []string{"12", "v3"}},
		{"newlines and repeated spaces", "/restore\nface   upscale", []string{"face", "upscale"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CommandArgs(tc.text))
		})
	}
}
