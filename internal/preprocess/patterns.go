package preprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule replaces every non-overlapping match of Regex with Placeholder.
type Rule struct {
	Name        string
	Regex       *regexp.Regexp
	Placeholder string
	Description string

	// WordBounded keeps only matches with no word character on either side,
	// where letters, digits and '_' of any script count as word characters.
	// RE2's \b only knows ASCII, so "café12345" would otherwise match.
	WordBounded bool
}

// Apply replaces every match of the rule in s.
func (r Rule) Apply(s string) string {
	if !r.WordBounded {
		return r.Regex.ReplaceAllLiteralString(s, r.Placeholder)
	}

	var (
		b    strings.Builder
		done int // s[:done] has been copied to b
		pos  int // next search offset
	)
	for pos <= len(s) {
		loc := r.Regex.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && !wordBefore(s, start) && !wordAfter(s, end) {
			b.WriteString(s[done:start])
			b.WriteString(r.Placeholder)
			done, pos = end, end
			continue
		}
		// Rejected: a later start inside the candidate may still be bounded.
		if start == len(s) {
			break
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		pos = start + size
	}
	if done == 0 {
		return s
	}
	b.WriteString(s[done:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func wordBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func wordAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

// Placeholder tokens written into templates.
const (
	PlaceholderTimestamp = "<TIMESTAMP>"
	PlaceholderUUID      = "<UUID>"
	PlaceholderIP        = "<IP>"
	PlaceholderHex       = "<HEX>"
	PlaceholderNumber    = "<NUM>"
)

// Digit classes are \p{Nd} rather than \d so that digits of any script count.
var (
	// 2024-05-20T10:00:01.123+02:00, 2024-05-20 10:00:01Z, 2024-05-20 10:00:01 -0500
	timestampRegex = regexp.MustCompile(`\p{Nd}{4}-\p{Nd}{2}-\p{Nd}{2}[T ]\p{Nd}{2}:\p{Nd}{2}:\p{Nd}{2}(?:\.\p{Nd}+)?(?:Z|[+-]\p{Nd}{2}:?\p{Nd}{2})?`)

	// Lowercase canonical form only: 550e8400-e29b-41d4-a716-446655440000
	uuidRegex = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

	// No octet range check, 999.999.999.999 matches too. Word bounded.
	ipv4Regex = regexp.MustCompile(`(?:\p{Nd}{1,3}\.){3}\p{Nd}{1,3}`)

	// Memory addresses and similar: 0x7ffe3a2c
	hexRegex = regexp.MustCompile(`0x[0-9a-fA-F]+`)

	// Five or more digits. Status codes and short error codes survive.
	// Word bounded.
	longNumberRegex = regexp.MustCompile(`\p{Nd}{5,}`)
)

// DefaultRules returns the substitution pipeline in the order it must run.
//
// Timestamps and UUIDs contain long digit runs and hex literals carry a
// numeric tail, so all of them go before the bare number rule. Placeholders
// contain no digits, so a later rule never re-matches an earlier replacement.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "timestamp",
			Regex:       timestampRegex,
			Placeholder: PlaceholderTimestamp,
			Description: "ISO-8601 style date and time with optional fraction and zone",
		},
		{
			Name:        "uuid",
			Regex:       uuidRegex,
			Placeholder: PlaceholderUUID,
			Description: "Lowercase 8-4-4-4-12 UUIDs",
		},
		{
			Name:        "ipv4",
			Regex:       ipv4Regex,
			Placeholder: PlaceholderIP,
			Description: "Dotted quads of 1-3 digit groups",
			WordBounded: true,
		},
		{
			Name:        "hex",
			Regex:       hexRegex,
			Placeholder: PlaceholderHex,
			Description: "0x-prefixed hex literals",
		},
		{
			Name:        "number",
			Regex:       longNumberRegex,
			Placeholder: PlaceholderNumber,
			Description: "Word-bounded runs of 5 or more digits",
			WordBounded: true,
		},
	}
}

// RuleNames lists rule names in pipeline order.
func RuleNames(rules []Rule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}
