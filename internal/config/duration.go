package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses a configured duration string, falling back to
// defaultValue when the configured value is empty. Guard gaps, loop intervals
// and lock timeouts all flow through here.
func DurationOrDefault(value string, defaultValue string) (time.Duration, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = strings.TrimSpace(defaultValue)
	}
	if candidate == "" {
		return 0, fmt.Errorf("duration value is empty")
	}

	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
	}
	return d, nil
}
