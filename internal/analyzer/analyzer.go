// Package analyzer derives statistics from a cluster report: severity
// distribution, error rate and the share of each pattern.
package analyzer

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/bimmerbailey/logsift/internal/config"
	"github.com/bimmerbailey/logsift/internal/parser"
	"github.com/bimmerbailey/logsift/internal/preprocess"
)

// Stats holds aggregate statistics for a report.
type Stats struct {
	Source        string          `json:"file"`
	EligibleLines int             `json:"eligible_lines"`
	Patterns      int             `json:"patterns"`
	Singletons    int             `json:"singletons"` // patterns seen exactly once
	LevelCounts   map[string]int  `json:"level_counts"`
	ErrorRate     float64         `json:"error_rate"`
	TopPatterns   []GroupedResult `json:"top_patterns,omitempty"`
	Partial       bool            `json:"partial,omitempty"`
}

// GroupedResult represents lines grouped by a key.
type GroupedResult struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Analyzer computes statistics over ranked clusters.
type Analyzer struct{}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ComputeStats calculates aggregate statistics for rep. Line counts are
// weighted by cluster size, so a pattern seen 40 times counts 40 times.
func (a *Analyzer) ComputeStats(rep *preprocess.Report, topN int) Stats {
	stats := Stats{
		Source:        rep.Source,
		EligibleLines: rep.Stats.Eligible,
		Patterns:      rep.TotalPatterns,
		LevelCounts:   make(map[string]int),
		Partial:       rep.Partial,
	}

	total := 0
	errorLines := 0
	for _, e := range rep.Entries {
		total += e.Count
		if e.Count == 1 {
			stats.Singletons++
		}

		level := levelOf(e)
		stats.LevelCounts[level.String()] += e.Count
		if level == config.LevelError || level == config.LevelFatal {
			errorLines += e.Count
		}
	}

	if total > 0 {
		stats.ErrorRate = float64(errorLines) / float64(total)
	}

	stats.TopPatterns = topPatterns(rep.Entries, total, topN)

	return stats
}

// GroupBy groups the report's lines by "level" or "pattern" and returns the
// top N groups, largest first.
func (a *Analyzer) GroupBy(rep *preprocess.Report, field string, topN int) ([]GroupedResult, error) {
	if field != "pattern" && field != "level" {
		return nil, fmt.Errorf("unsupported group-by field: %s (must be 'level' or 'pattern')", field)
	}
	if len(rep.Entries) == 0 {
		return nil, nil
	}

	total := 0
	for _, e := range rep.Entries {
		total += e.Count
	}

	if field == "level" {
		return truncate(levelGroups(rep.Entries, total), topN), nil
	}
	return topPatterns(rep.Entries, total, topN), nil
}

// topPatterns keeps the report's ranking.
func topPatterns(entries []preprocess.ReportEntry, total, topN int) []GroupedResult {
	if len(entries) == 0 {
		return nil
	}
	result := make([]GroupedResult, 0, len(entries))
	for _, e := range entries {
		result = append(result, GroupedResult{
			Key:     e.Sample,
			Count:   e.Count,
			Percent: percent(e.Count, total),
		})
	}
	return truncate(result, topN)
}

func levelGroups(entries []preprocess.ReportEntry, total int) []GroupedResult {
	groups := make(map[string]int)
	for _, e := range entries {
		groups[levelOf(e).String()] += e.Count
	}

	result := make([]GroupedResult, 0, len(groups))
	for key, count := range groups {
		result = append(result, GroupedResult{
			Key:     key,
			Count:   count,
			Percent: percent(count, total),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	return result
}

func truncate(result []GroupedResult, topN int) []GroupedResult {
	if topN > 0 && len(result) > topN {
		return result[:topN]
	}
	return result
}

// FilterOptions defines the criteria for selecting clusters.
type FilterOptions struct {
	Pattern  *regexp.Regexp  // matched against the template and the sample
	MinLevel config.LogLevel // LevelUnknown disables the level filter
	Invert   bool            // keep clusters the pattern does not match
}

// Filter returns a copy of rep holding only the clusters that match opts.
// Ranking is preserved. A cluster whose severity cannot be detected never
// passes an active level filter.
func (a *Analyzer) Filter(rep *preprocess.Report, opts FilterOptions) *preprocess.Report {
	filtered := *rep
	filtered.Entries = nil

	for _, e := range rep.Entries {
		if opts.MinLevel != config.LevelUnknown {
			level := levelOf(e)
			if level == config.LevelUnknown || level < opts.MinLevel {
				continue
			}
		}

		if opts.Pattern != nil {
			matched := opts.Pattern.MatchString(e.Template) || opts.Pattern.MatchString(e.Sample)
			if opts.Invert {
				matched = !matched
			}
			if !matched {
				continue
			}
		}

		filtered.Entries = append(filtered.Entries, e)
	}

	filtered.TotalPatterns = len(filtered.Entries)
	return &filtered
}

// Lines sums the counts of rep's clusters.
func Lines(rep *preprocess.Report) int {
	n := 0
	for _, e := range rep.Entries {
		n += e.Count
	}
	return n
}

// levelOf sniffs the severity from the template, which is never truncated.
func levelOf(e preprocess.ReportEntry) config.LogLevel {
	return parser.DetectLevel(e.Template)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
