package command

import (
	"errors"
	"restorebot/internal/core/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage(t *testing.T) {
	tests := []struct {
		name  string
		runs  int
		limit int
		want  string
	}{
		{"with limit", 3, 10, "Restore runs today within ChatID 5: 3 of 10."},
		{"without limit", 7, 0, "Restore runs today within ChatID 5: 7."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mt := &MockTextSender{}
			h := NewUsage(&MockTracker{runs: tc.runs, limit: tc.limit}, mt, "/usage")
			assert.Equal(t, "/usage", h.GetCommand())

			require.NoError(t, h.Respond(t.Context(), time.Second, &domain.Message{ChatID: 5}))
			assert.Equal(t, tc.want, mt.Message)
		})
	}
}

func TestUsageSendFailed(t *testing.T) {
	mt := &MockTextSender{err: errors.New("mock error")}
	h := NewUsage(&MockTracker{}, mt, "/usage")

	err := h.Respond(t.Context(), time.Second, &domain.Message{ChatID: 5})
	assert.EqualError(t, err, "failed to send message: mock error")
}
