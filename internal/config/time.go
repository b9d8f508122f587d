package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPart = regexp.MustCompile(`(\d+)([dhms])`)

// ParseDuration parses a deadline such as "30s", "5m", "1h30m" or "2d".
// Standard Go durations are accepted as well. An empty string means no deadline.
func ParseDuration(s string) (time.Duration, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return 0, nil
	}

	if d, err := time.ParseDuration(input); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration: %s", input)
		}
		return d, nil
	}

	matches := durationPart.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration: %s", input)
	}

	totalLen := 0
	total := time.Duration(0)

	for _, match := range matches {
		totalLen += match[1] - match[0]
		value, err := strconv.ParseInt(input[match[2]:match[3]], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", input)
		}

		switch input[match[4]:match[5]] {
		case "d":
			total += 24 * time.Hour * time.Duration(value)
		case "h":
			total += time.Hour * time.Duration(value)
		case "m":
			total += time.Minute * time.Duration(value)
		case "s":
			total += time.Second * time.Duration(value)
		}
	}

	// Reject leftovers such as "5m banana".
	if totalLen != len(input) {
		return 0, fmt.Errorf("invalid duration: %s", input)
	}

	return total, nil
}
