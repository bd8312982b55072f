package utils_test

import (
	"testing"

	"stagetime/src-server/utils"
)

func TestCleanupString(t *testing.T) {
	cases := []struct{ raw, want string }{
		{"  open mic night. ", "Open Mic Night"},
		{"open  mic\tnight", "Open Mic Night"},
		{"Trivia Tuesday", "Trivia Tuesday"},
		{"", ""},
	}
	for _, c := range cases {
		if got := utils.CleanupString(c.raw); got != c.want {
			t.Errorf("CleanupString(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}
