package preprocess

import (
	"sort"
	"unicode/utf8"
)

// Token estimation: roughly 1 token per 4 characters for English text.
const charsPerToken = 4

const ellipsis = "..."

// Report is the ranked, display-ready view of a Registry.
type Report struct {
	Source         string        `json:"file"`
	TotalPatterns  int           `json:"total_unique_patterns"`
	Entries        []ReportEntry `json:"clusters"`
	NoiseHidden    bool          `json:"noise_hidden"`
	Partial        bool          `json:"partial,omitempty"`
	Stats          Stats         `json:"stats"`
	Tokens         *TokenSavings `json:"tokens,omitempty"`
	SeparatorWidth int           `json:"-"`
}

// TokenSavings compares the estimated token cost of the raw input with that
// of the rendered summary.
type TokenSavings struct {
	RawTokens     int     `json:"raw_tokens"`
	SummaryTokens int     `json:"summary_tokens"`
	Saved         int     `json:"saved_tokens"`
	Percent       float64 `json:"saved_percent"`
}

// ReportEntry is one ranked cluster. Sample is already truncated for display.
type ReportEntry struct {
	Count     int    `json:"count"`
	Sample    string `json:"sample"`
	Template  string `json:"template"`
	FirstSeen int    `json:"first_seen"`
}

// Rank returns the clusters sorted by count descending, then by first-seen
// order ascending. The order is total, so equal counts never swap between runs.
func Rank(clusters []Cluster) []Cluster {
	ranked := append([]Cluster(nil), clusters...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].FirstSeen < ranked[j].FirstSeen
	})
	return ranked
}

// Truncate shortens s to max characters, ending in "..." when cut.
// With max 200 a 201-character sample becomes 197 characters plus "...".
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	keep := max - len(ellipsis)
	if keep < 0 {
		keep = 0
	}

	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + ellipsis
		}
		n++
	}
	return s + ellipsis
}

// EstimateTokens provides a rough token count for a text of n characters.
func EstimateTokens(n int) int {
	return n / charsPerToken
}

// EstimateSavings estimates tokens for rawChars of input against
// summaryChars of output.
func EstimateSavings(rawChars int64, summaryChars int) TokenSavings {
	ts := TokenSavings{
		RawTokens:     int(rawChars / charsPerToken),
		SummaryTokens: EstimateTokens(summaryChars),
	}
	ts.Saved = ts.RawTokens - ts.SummaryTokens
	if ts.RawTokens > 0 {
		ts.Percent = float64(ts.Saved) * 100 / float64(ts.RawTokens)
	}
	return ts
}

// CompressionRatio is eligible lines per reported pattern.
func (r *Report) CompressionRatio() float64 {
	if r.TotalPatterns == 0 {
		return 1.0
	}
	return float64(r.Stats.Eligible) / float64(r.TotalPatterns)
}

// Conserved reports whether cluster counts add up to the eligible line count.
func (r *Report) Conserved() bool {
	sum := 0
	for _, e := range r.Entries {
		sum += e.Count
	}
	return sum == r.Stats.Eligible
}
