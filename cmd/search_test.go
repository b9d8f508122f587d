package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSearchTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "search"}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.Flags().StringP("pattern", "p", "", "")
	cmd.Flags().StringP("level", "l", "", "")
	cmd.Flags().BoolP("count", "c", false, "")
	cmd.Flags().BoolP("invert", "V", false, "")
	return cmd
}

var searchLines = []string{
	"[ERROR] upstream 10.0.0.1 refused connection",
	"[ERROR] upstream 10.0.0.2 refused connection",
	"[WARN] slow query took 123456 ms",
	"[FATAL] out of memory",
	"plain line without level",
}

func runSearchWith(t *testing.T, flags map[string]string) (string, error) {
	t.Helper()
	file := writeTempFile(t, t.TempDir(), "app.log", searchLines)

	var out bytes.Buffer
	cmd := newSearchTestCmd(&out)
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("Set(%s) error = %v", name, err)
		}
	}
	err := runSearch(cmd, []string{file})
	return out.String(), err
}

func TestRunSearch(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string]string
		want    []string
		notWant []string
	}{
		{
			name:    "pattern matches template placeholder",
			flags:   map[string]string{"pattern": "<IP>"},
			want:    []string{"Total Unique Patterns: 1", "[2x] [ERROR] upstream 10.0.0.1 refused connection"},
			notWant: []string{"slow query", "out of memory"},
		},
		{
			name:    "minimum level",
			flags:   map[string]string{"level": "error"},
			want:    []string{"Total Unique Patterns: 2", "refused connection", "out of memory"},
			notWant: []string{"slow query", "plain line"},
		},
		{
			name:    "invert",
			flags:   map[string]string{"pattern": "refused", "invert": "true"},
			want:    []string{"Total Unique Patterns: 3", "slow query", "plain line"},
			notWant: []string{"refused"},
		},
		{
			name:  "count",
			flags: map[string]string{"level": "warn", "count": "true"},
			want:  []string{"3 patterns (4 lines)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			out, err := runSearchWith(t, tt.flags)
			if err != nil {
				t.Fatalf("runSearch() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in output:\n%s", want, out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(out, notWant) {
					t.Errorf("unexpected %q in output:\n%s", notWant, out)
				}
			}
		})
	}
}

func TestRunSearch_CountJSON(t *testing.T) {
	resetConfig(t)
	viper.Set("format", "json")

	out, err := runSearchWith(t, map[string]string{"pattern": "refused", "count": "true"})
	if err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}

	var got map[string]int
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v\noutput: %s", err, out)
	}
	if got["patterns"] != 1 || got["lines"] != 2 {
		t.Errorf("count = %v", got)
	}
}

func TestRunSearch_InvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		want  string
	}{
		{"invert without pattern", map[string]string{"invert": "true"}, "--invert requires --pattern"},
		{"bad regex", map[string]string{"pattern": "("}, "invalid pattern"},
		{"bad level", map[string]string{"level": "loud"}, "invalid level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			_, err := runSearchWith(t, tt.flags)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("runSearch() error = %v, want %q", err, tt.want)
			}
		})
	}
}
