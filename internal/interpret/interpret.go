// Package interpret turns raw model output into display text plus the
// weather-card signal the model embeds in it.
package interpret

import (
	"regexp"
	"strings"
)

// Marker is the control token the model emits before weather answers.
const Marker = "[SHOW_WEATHER_CARD]"

// Result is the interpreted model output. ResponseText never contains Marker.
// ShowWeatherCard is display intent only; it does not imply data exists.
type Result struct {
	ResponseText    string `json:"response"`
	ShowWeatherCard bool   `json:"showWeatherCard"`
}

// Interpret detects and strips the marker, then sanitizes what is left.
// Stripping markup can join a split marker back together, so both steps
// repeat until the text is stable.
func Interpret(raw string) Result {
	show := false
	text := raw
	for {
		for strings.Contains(text, Marker) {
			show = true
			text = strings.ReplaceAll(text, Marker, "")
		}
		next := Sanitize(strings.TrimSpace(text))
		if next == text {
			break
		}
		text = next
	}
	return Result{
		ResponseText:    text,
		ShowWeatherCard: show,
	}
}

var (
	fencedBlock    = regexp.MustCompile("(?s)```[^\\n`]*\\n?(.*?)```")
	horizontalRule = regexp.MustCompile(`(?m)^[ \t]*(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	heading        = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	bullet         = regexp.MustCompile(`(?m)^([ \t]*)[*+][ \t]+`)
	image          = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link           = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	boldStars      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderscore = regexp.MustCompile(`__(.+?)__`)
	italicStar     = regexp.MustCompile(`\*([^*\s](?:[^*\n]*[^*\s])?)\*`)
	italicUnder    = regexp.MustCompile(`(^|\W)_([^_\n]+)_(\W|$)`)
	trailingSpace  = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips markdown the persona asks the model not to use. Code and
// link text is kept, only the markup goes. Sanitize is idempotent.
//
// Every rule shortens the text except the bullet rewrite, which consumes a
// '*' or '+' that no rule produces, so the loop ends.
func Sanitize(s string) string {
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	s = fencedBlock.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "`", "")
	s = horizontalRule.ReplaceAllString(s, "")
	s = heading.ReplaceAllString(s, "")
	s = bullet.ReplaceAllString(s, "$1• ")
	s = image.ReplaceAllString(s, "$1")
	s = link.ReplaceAllString(s, "$1")
	s = boldStars.ReplaceAllString(s, "$1")
	s = boldUnderscore.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = italicStar.ReplaceAllString(s, "$1")
	s = italicUnder.ReplaceAllString(s, "$1$2$3")
	s = trailingSpace.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
