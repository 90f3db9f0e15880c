package cmd

import (
	"testing"
	"time"
)

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"enroll"},
		{"recognize"},
		{"list"},
		{"cache", "warm"},
		{"migrate"},
		{"version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil {
			t.Errorf("Find(%v) error = %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("Find(%v) = %s", path, cmd.Name())
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
