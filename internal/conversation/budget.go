package conversation

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/i474232898/date-planner/internal/prompt"
	"github.com/i474232898/date-planner/pkg/logger"
)

// HistoryBudget drops the oldest history once the replayed context exceeds a
// token limit. A nil budget keeps everything.
type HistoryBudget struct {
	maxTokens int
	encoding  string

	once  sync.Once
	count func(string) int
}

// NewHistoryBudget returns nil when maxTokens is not positive.
func NewHistoryBudget(maxTokens int, encoding string) *HistoryBudget {
	if maxTokens <= 0 {
		return nil
	}
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &HistoryBudget{maxTokens: maxTokens, encoding: encoding}
}

func (b *HistoryBudget) counter() func(string) int {
	b.once.Do(func() {
		if b.count != nil {
			return
		}
		enc, err := tiktoken.GetEncoding(b.encoding)
		if err != nil {
			logger.Warnf("history budget: encoding %s unavailable, history is not trimmed: %v", b.encoding, err)
			return
		}
		b.count = func(s string) int {
			return len(enc.Encode(s, nil, nil))
		}
	})
	return b.count
}

// Trim keeps the newest messages that fit. The kept history always starts
// with a user message.
func (b *HistoryBudget) Trim(history []prompt.HistoryMessage) []prompt.HistoryMessage {
	if b == nil || len(history) == 0 {
		return history
	}
	count := b.counter()
	if count == nil {
		return history
	}

	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		n := count(history[i].Content)
		if total+n > b.maxTokens {
			break
		}
		total += n
		start = i
	}
	for start < len(history) && !history[start].IsUser {
		start++
	}

	if start > 0 {
		logger.Debugf("history budget: dropped %d of %d messages", start, len(history))
	}
	return history[start:]
}
