package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var separator = strings.Repeat("-", 60)

func writeTempFile(t *testing.T, dir string, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := []byte(strings.Join(lines, "\n") + "\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// resetConfig gives each test the defaults initConfig would register.
func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	viper.Set("color", "never")
	t.Cleanup(viper.Reset)
}

func newSummaryTestCmd(out, errOut *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "logsift"}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd
}

func runSummaryFor(t *testing.T, file string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := runSummary(newSummaryTestCmd(&out, &errOut), []string{file})
	return out.String(), errOut.String(), err
}

func TestSummaryExactOutput(t *testing.T) {
	resetConfig(t)

	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", []string{
		"2024-05-20 10:00:01 [ERROR] IP 192.168.1.5 failed connection attempt 123456",
		"2024-05-20 10:00:02 [INFO] System started",
		"",
		"2024-05-20 10:00:03 [ERROR] IP 10.0.0.9 failed connection attempt 654321",
		"2024-05-20 10:00:04 [WARN] disk usage 91%",
		"2024-05-20 10:00:05 [DEBUG] Variable x=5",
	})

	out, _, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("runSummary() error = %v", err)
	}

	expected := fmt.Sprintf("=== Log Analysis Summary: %s ===\n", file) +
		"\n" +
		"Total Unique Patterns: 2\n" +
		separator + "\n" +
		"[2x] 2024-05-20 10:00:01 [ERROR] IP 192.168.1.5 failed connection attempt 123456\n" +
		"[1x] 2024-05-20 10:00:04 [WARN] disk usage 91%\n" +
		separator + "\n" +
		"(Note: INFO and DEBUG logs were hidden. Use --all to see them.)\n"

	if out != expected {
		t.Errorf("output mismatch\n got:\n%s\nwant:\n%s", out, expected)
	}
}

func TestSummaryClustersFirstSample(t *testing.T) {
	resetConfig(t)

	file := writeTempFile(t, t.TempDir(), "proc.log", []string{
		"Error at process 100001",
		"Error at process 100002",
		"Error at process 100003",
	})

	out, _, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("runSummary() error = %v", err)
	}

	if !strings.Contains(out, "Total Unique Patterns: 1\n") {
		t.Errorf("expected a single pattern, got:\n%s", out)
	}
	if !strings.Contains(out, "\n[3x] Error at process 100001\n") {
		t.Errorf("expected first raw line as sample, got:\n%s", out)
	}
}

func TestSummaryNoiseFiltering(t *testing.T) {
	lines := []string{
		"[INFO] System started",
		"[DEBUG] Variable x=5",
		"[ERROR] Critical failure",
	}

	t.Run("default hides noise", func(t *testing.T) {
		resetConfig(t)
		file := writeTempFile(t, t.TempDir(), "app.log", lines)

		out, _, err := runSummaryFor(t, file)
		if err != nil {
			t.Fatalf("runSummary() error = %v", err)
		}
		if strings.Contains(out, "[INFO]") || strings.Contains(out, "[DEBUG]") {
			t.Errorf("noise lines should be hidden:\n%s", out)
		}
		if !strings.Contains(out, "[ERROR]") {
			t.Errorf("error line missing:\n%s", out)
		}
	})

	t.Run("all shows everything", func(t *testing.T) {
		resetConfig(t)
		viper.Set("cluster.include_noise", true)
		file := writeTempFile(t, t.TempDir(), "app.log", lines)

		out, _, err := runSummaryFor(t, file)
		if err != nil {
			t.Fatalf("runSummary() error = %v", err)
		}
		for _, line := range lines {
			if !strings.Contains(out, "[1x] "+line) {
				t.Errorf("expected %q in output:\n%s", line, out)
			}
		}
		if strings.Contains(out, "(Note:") {
			t.Errorf("note should not be printed with --all:\n%s", out)
		}
		if !strings.HasSuffix(out, separator+"\n") {
			t.Errorf("output should end with the separator:\n%s", out)
		}
	})
}

func TestSummaryMissingFile(t *testing.T) {
	resetConfig(t)
	file := filepath.Join(t.TempDir(), "nope.log")

	out, _, err := runSummaryFor(t, file)
	if !errors.Is(err, errInputNotFound) {
		t.Fatalf("runSummary() error = %v, want errInputNotFound", err)
	}

	expected := fmt.Sprintf("Error: File '%s' not found.\n", file)
	if out != expected {
		t.Errorf("stdout = %q, want %q", out, expected)
	}
}

func TestSummaryEmptyFile(t *testing.T) {
	resetConfig(t)
	file := filepath.Join(t.TempDir(), "empty.log")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, _, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("runSummary() error = %v", err)
	}
	if !strings.Contains(out, "Total Unique Patterns: 0\n"+separator+"\n"+separator+"\n") {
		t.Errorf("unexpected empty report:\n%s", out)
	}
}

func TestSummaryWorkersMatchSequential(t *testing.T) {
	var lines []string
	for i := 0; i < 3000; i++ {
		switch i % 4 {
		case 0:
			lines = append(lines, fmt.Sprintf("2024-05-20 10:%02d:00 [ERROR] request %d failed", i%60, 100000+i))
		case 1:
			lines = append(lines, fmt.Sprintf("worker %d done", i%37))
		case 2:
			lines = append(lines, fmt.Sprintf("[INFO] tick %d", i))
		default:
			lines = append(lines, fmt.Sprintf("peer 10.1.%d.%d gone", i%250, i%7))
		}
	}

	resetConfig(t)
	file := writeTempFile(t, t.TempDir(), "big.log", lines)

	sequential, _, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("sequential run error = %v", err)
	}

	resetConfig(t)
	viper.Set("cluster.workers", 4)
	sharded, _, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("sharded run error = %v", err)
	}

	if sequential != sharded {
		t.Errorf("sharded output differs from sequential\nsequential:\n%s\nsharded:\n%s", sequential, sharded)
	}
}

func TestSummaryJSON(t *testing.T) {
	resetConfig(t)
	viper.Set("format", "json")

	file := writeTempFile(t, t.TempDir(), "app.log", []string{
		"Error at process 100001",
		"Error at process 100002",
		"[DEBUG] hidden",
	})

	out, _, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("runSummary() error = %v", err)
	}

	var result struct {
		File     string `json:"file"`
		Total    int    `json:"total_unique_patterns"`
		Noise    bool   `json:"noise_hidden"`
		Clusters []struct {
			Count    int    `json:"count"`
			Sample   string `json:"sample"`
			Template string `json:"template"`
		} `json:"clusters"`
		Stats struct {
			Eligible int `json:"eligible"`
			Noise    int `json:"noise_filtered"`
		} `json:"stats"`
		Tokens *struct {
			RawTokens int `json:"raw_tokens"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v\noutput: %s", err, out)
	}

	if result.File != file || result.Total != 1 || !result.Noise {
		t.Errorf("unexpected header fields: %+v", result)
	}
	if len(result.Clusters) != 1 || result.Clusters[0].Count != 2 {
		t.Fatalf("clusters = %+v", result.Clusters)
	}
	if result.Clusters[0].Template != "Error at process <NUM>" {
		t.Errorf("template = %q", result.Clusters[0].Template)
	}
	if result.Stats.Eligible != 2 || result.Stats.Noise != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.Tokens == nil {
		t.Error("expected token estimate in JSON output")
	}
}

func TestSummaryVerboseStatsOnStderr(t *testing.T) {
	resetConfig(t)
	file := writeTempFile(t, t.TempDir(), "app.log", []string{"a 100001", "a 100002"})

	plain, _, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("runSummary() error = %v", err)
	}

	resetConfig(t)
	viper.Set("verbose", true)
	out, errOut, err := runSummaryFor(t, file)
	if err != nil {
		t.Fatalf("runSummary() error = %v", err)
	}

	if out != plain {
		t.Errorf("verbose mode changed stdout\n got:\n%s\nwant:\n%s", out, plain)
	}
	for _, want := range []string{"Processing Statistics", "Eligible lines: 2", "Unique patterns: 1", "Estimated tokens"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("expected %q on stderr, got:\n%s", want, errOut)
		}
	}
}

func TestSummaryInvalidTimeout(t *testing.T) {
	resetConfig(t)
	viper.Set("timeout", "soon")
	file := writeTempFile(t, t.TempDir(), "app.log", []string{"x"})

	_, _, err := runSummaryFor(t, file)
	if err == nil || !strings.Contains(err.Error(), "invalid --timeout") {
		t.Errorf("runSummary() error = %v, want invalid --timeout", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	resetConfig(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Cluster.MaxSampleLength != 200 || cfg.Cluster.SeparatorWidth != 60 || cfg.Cluster.Workers != 1 {
		t.Errorf("cluster defaults = %+v", cfg.Cluster)
	}
	if len(cfg.Cluster.NoiseKeywords) != 2 || cfg.Cluster.NoiseKeywords[0] != "INFO" {
		t.Errorf("noise keywords = %v", cfg.Cluster.NoiseKeywords)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Ollama.Model != "llama3.2" {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	resetConfig(t)
	viper.SetEnvPrefix("LOGSIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	t.Setenv("LOGSIFT_CLUSTER_MAX_SAMPLE_LENGTH", "80")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Cluster.MaxSampleLength != 80 {
		t.Errorf("MaxSampleLength = %d, want 80 from env", cfg.Cluster.MaxSampleLength)
	}
}
