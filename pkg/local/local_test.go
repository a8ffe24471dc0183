package local

import "testing"

func TestTextSetFallsBackToDefault(t *testing.T) {
	set := NewTextSet("hello %s", NewTrans(Jpn, "こんにちは %s"))

	if got := set.Format(Jpn, "Tokyo"); got != "こんにちは Tokyo" {
		t.Fatalf("unexpected jp text: %q", got)
	}
	if got := set.Format(Eng, "London"); got != "hello London" {
		t.Fatalf("unexpected default text: %q", got)
	}
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{
		"jp":    Jpn,
		"JA":    Jpn,
		"en":    Eng,
		"":      Eng,
		"fr-FR": Eng,
	}
	for in, want := range cases {
		if got := ParseLanguage(in); got != want {
			t.Fatalf("ParseLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
