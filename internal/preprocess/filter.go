package preprocess

import "strings"

// Verdict is the Line Filter's classification of a line.
type Verdict int

const (
	VerdictEligible Verdict = iota
	VerdictBlank
	VerdictNoise
)

// Filter decides whether a line takes part in clustering.
//
// The noise check is a plain case-sensitive substring test, not a severity
// field parse, so "INFORMATION" counts as noise as well.
type Filter struct {
	includeNoise bool
	keywords     []string
}

// NewFilter creates a Filter. Keywords are only consulted when includeNoise is false.
func NewFilter(includeNoise bool, keywords []string) *Filter {
	return &Filter{
		includeNoise: includeNoise,
		keywords:     append([]string(nil), keywords...),
	}
}

// Classify reports why a line is or is not eligible.
func (f *Filter) Classify(line string) Verdict {
	if strings.TrimSpace(line) == "" {
		return VerdictBlank
	}
	if !f.includeNoise {
		for _, kw := range f.keywords {
			if kw != "" && strings.Contains(line, kw) {
				return VerdictNoise
			}
		}
	}
	return VerdictEligible
}

// Eligible reports whether the line should be clustered.
func (f *Filter) Eligible(line string) bool {
	return f.Classify(line) == VerdictEligible
}
