package main

import "testing"

func TestTranslate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "ready", want: "READY"},
		{input: "  FIRE ", want: "FIRE"},
		{input: "aim self", want: "AIM SELF"},
		{input: "aim Enemy", want: "AIM ENEMY"},
		{input: "aim sideways", want: "aim sideways"},
		{input: "chat  hello  there", want: "CHAT hello  there"},
		{input: "AIM SELF", want: "AIM SELF"},
		{input: "WHATEVER 1", want: "WHATEVER 1"},
	}
	for _, tt := range tests {
		if got := translate(tt.input); got != tt.want {
			t.Errorf("translate(%q) want = %q, got = %q", tt.input, tt.want, got)
		}
	}
}
