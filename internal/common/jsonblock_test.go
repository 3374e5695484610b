package common

import "testing"

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "Here you go:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"plain fence", "```\n{\"b\":2}\n```", `{"b":2}`},
		{"raw", "  {\"c\":3}\n", `{"c":3}`},
		{"json fence wins", "```\nnot this\n```\n```json\n{\"d\":4}\n```", `{"d":4}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONBlock(tt.in); got != tt.want {
				t.Errorf("ExtractJSONBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}
