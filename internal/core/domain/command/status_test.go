package command

import (
	"context"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendChatAction(_ context.Context, _ int64, _ domain.Action) {
	// mocked
}

func (m *MockSender) NotifyAndReturnError(_ context.Context, _ error, _ *domain.Message) error {
	// mocked
	return nil
}

func (m *MockSender) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	args := m.Called(ctx, message, text)
	return args.Int(0), args.Error(1)
}

type staticStage struct {
	capability domain.Capability
	missing    []string
}

func (s staticStage) Capability() domain.Capability {
	return s.capability
}

func (s staticStage) Missing() []string {
	return s.missing
}

func TestStatus_Respond_SendsStatus(t *testing.T) {
	mockSender := new(MockSender)
	stages := []port.CapabilityStatus{
		staticStage{capability: domain.Colorize, missing: []string{"colorize command"}},
		staticStage{capability: domain.Upscale},
	}
	statusCmd := NewStatus(stages, mockSender, "/status")

	msg := &domain.Message{ID: 123, ChatID: 456}

	mockSender.
		On(
			"SendMessageReply",
			mock.Anything,
			msg,
			mock.MatchedBy(func(text string) bool {
				return strings.HasPrefix(text, "colorize: configure colorize command\n"+
					"upscale: ready\n"+
					"filters: ready\n") &&
					strings.Contains(text, "allocated mem:") &&
					strings.Contains(text, "threads running:") &&
					strings.Contains(text, "compiled with")
			}),
		).
		Return(1, nil)

	err := statusCmd.Respond(t.Context(), time.Second, msg)
	require.NoError(t, err)
	mockSender.AssertExpectations(t)
}
