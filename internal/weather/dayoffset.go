package weather

import (
	"strings"

	"github.com/i474232898/date-planner/internal/common"
	"github.com/i474232898/date-planner/pkg/local"
)

// ParseDayOffset reads a relative day reference out of a message:
// 0 for today, 1 for tomorrow, 2 for the day after. Unmatched text is today.
// Longer phrases are checked first because they contain the shorter ones.
func ParseDayOffset(text string, lang local.Language) int {
	t := strings.ToLower(text)

	if lang == local.Jpn {
		switch {
		case common.HasAny(t, "明後日", "あさって"):
			return 2
		case common.HasAny(t, "明日", "あした"):
			return 1
		case common.HasAny(t, "今日", "きょう"):
			return 0
		}
		return 0
	}

	switch {
	case strings.Contains(t, "day after tomorrow"):
		return 2
	case strings.Contains(t, "tomorrow"):
		return 1
	case strings.Contains(t, "today"):
		return 0
	}
	return 0
}
