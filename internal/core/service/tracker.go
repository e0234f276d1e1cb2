package service

import (
	"context"
	"fmt"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Tracker interface {
	AddRun(chatID int64)
	CheckLimit(ctx context.Context, chatID int64) bool
	GetRuns(chatID int64) int
	DailyLimit() int
}

// RunTracker counts restore runs per chat and day. A limit of 0 disables the quota.
type RunTracker struct {
	chats      map[int64]int
	dailyLimit int
	mutex      sync.Mutex
	sender     port.TextSender
}

func NewRunTracker(ctx context.Context, dailyLimit int, sender port.TextSender) *RunTracker {
	rt := &RunTracker{
		chats:      make(map[int64]int),
		sender:     sender,
		dailyLimit: dailyLimit,
	}

	go rt.ResetDailyLimit(ctx)

	return rt
}

func (t *RunTracker) AddRun(chatID int64) {
	t.mutex.Lock()
	t.chats[chatID]++
	t.mutex.Unlock()
}

func (t *RunTracker) GetRuns(chatID int64) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.chats[chatID]
}

func (t *RunTracker) DailyLimit() int {
	return t.dailyLimit
}

const overLimit = "You have used all %d restore runs for today. Limit will reset in %s."

func (t *RunTracker) CheckLimit(ctx context.Context, chatID int64) bool {
	if t.dailyLimit == 0 {
		return true
	}

	t.mutex.Lock()
	runs := t.chats[chatID]
	t.mutex.Unlock()

	if runs >= t.dailyLimit {
		_, err := t.sender.SendMessageReply(ctx,
			&domain.Message{ChatID: chatID},
			fmt.Sprintf(overLimit, t.dailyLimit, time.Until(getNextResetTime()).Truncate(time.Second)))
		if err != nil {
			log.Warn().Err(err).Msg("failed to send daily limit exceeded warning")
		}
		return false
	}

	return true
}

func (t *RunTracker) ResetDailyLimit(ctx context.Context) {
	reset := getNextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily limit")
			t.mutex.Lock()
			t.chats = make(map[int64]int)
			t.mutex.Unlock()
			time.Sleep(time.Second)
			reset = getNextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping daily limit reset")
			return
		}
	}
}

func getNextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
