package interpret

import (
	"strings"
	"testing"
)

func TestInterpretStripsMarker(t *testing.T) {
	res := Interpret("[SHOW_WEATHER_CARD]\nTomorrow in Tokyo looks rainy, so maybe an indoor café.")
	if !res.ShowWeatherCard {
		t.Fatal("expected weather card flag")
	}
	if res.ResponseText != "Tomorrow in Tokyo looks rainy, so maybe an indoor café." {
		t.Fatalf("unexpected text %q", res.ResponseText)
	}
}

func TestInterpretMarkerAnywhere(t *testing.T) {
	cases := []string{
		"Sure! [SHOW_WEATHER_CARD] It is sunny.",
		"It is sunny.\n[SHOW_WEATHER_CARD]",
		"[SHOW_WEATHER_CARD][SHOW_WEATHER_CARD] twice",
		"**[SHOW_WEATHER_CARD]** bold marker",
	}
	for _, raw := range cases {
		res := Interpret(raw)
		if !res.ShowWeatherCard || strings.Contains(res.ResponseText, Marker) {
			t.Fatalf("Interpret(%q) = %+v", raw, res)
		}
	}
}

func TestInterpretWithoutMarker(t *testing.T) {
	res := Interpret("  How about a picnic in Yoyogi Park?  ")
	if res.ShowWeatherCard || res.ResponseText != "How about a picnic in Yoyogi Park?" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestInterpretLeavesOtherBracketsAlone(t *testing.T) {
	res := Interpret("[SHOW_WEATHER] is not the marker")
	if res.ShowWeatherCard || res.ResponseText != "[SHOW_WEATHER] is not the marker" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestInterpretMarkerRebuiltByMarkup(t *testing.T) {
	cases := map[string]string{
		"[SHOW_`WEATHER`_CARD] hello":               "hello",
		"[SHOW_**WEATHER**_CARD]\nhello":            "hello",
		"[SHOW_[SHOW_WEATHER_CARD]WEATHER_CARD] hi": "hi",
		"Sure! [SHOW_WEATHER_CARD]":                 "Sure!",
	}
	for in, want := range cases {
		res := Interpret(in)
		if strings.Contains(res.ResponseText, Marker) {
			t.Fatalf("Interpret(%q) leaked the marker: %q", in, res.ResponseText)
		}
		if res.ResponseText != want || !res.ShowWeatherCard {
			t.Fatalf("Interpret(%q) = %+v, want %q with card", in, res, want)
		}
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"**Dinner** at *Sukiyabashi*":             "Dinner at Sukiyabashi",
		"## Plan\nStart at the __museum__":        "Plan\nStart at the museum",
		"Try `ramen` tonight":                     "Try ramen tonight",
		"```\nmenu list\n```":                     "menu list",
		"See [the map](https://maps.example.com)": "See the map",
		"![view](https://img.example.com/a.png)":  "view",
		"first\n\n\n\nsecond   ":                  "first\n\nsecond",
		"above\n---\nbelow":                       "above\n\nbelow",
		"* picnic\n* museum":                      "• picnic\n• museum",
		"keep snake_case_names intact":            "keep snake_case_names intact",
		"2 * 3 * 4":                               "2 * 3 * 4",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Fatalf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeDeeplyNestedLinks(t *testing.T) {
	in := "x"
	for i := 0; i < 10; i++ {
		in = "[" + in + "](u)"
	}
	if got := Sanitize(in); got != "x" {
		t.Fatalf("Sanitize(nested links) = %q, want %q", got, "x")
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"***very*** important",
		"**a**b**",
		"2 * 3 * 4 * 5",
		"# Title\n\n\n* one\n* two\n\n---\n`code` and [link](x)",
		"_under_ and __double__ and ___triple___",
		"```go\nfmt.Println(\"hi\")\n```\n```unterminated",
		strings.Repeat("[", 12) + "x" + strings.Repeat("](u)", 12),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
