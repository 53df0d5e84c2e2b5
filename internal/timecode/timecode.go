// Package timecode converts recording offsets between their string form
// (mm:ss or h:mm:ss) and a count of seconds.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a string is not mm:ss or h:mm:ss.
var ErrInvalidFormat = errors.New("invalid timestamp format (expected mm:ss or h:mm:ss)")

// The leading component is uncapped; every later component is two digits 00-59.
var pattern = regexp.MustCompile(`^[0-9]+:[0-5][0-9](:[0-5][0-9])?$`)

// Valid reports whether s is an accepted timestamp.
func Valid(s string) bool {
	_, err := ToSeconds(s)
	return err == nil
}

// ToSeconds returns the total number of seconds encoded by s. Malformed input
// yields 0 and ErrInvalidFormat.
func ToSeconds(s string) (int, error) {
	if !pattern.MatchString(s) {
		return 0, ErrInvalidFormat
	}

	parts := strings.Split(s, ":")
	lead, err := strconv.Atoi(parts[0])
	if err != nil {
		// Only overflow can get here.
		return 0, ErrInvalidFormat
	}
	// Two-digit components already passed the pattern.
	minutes, _ := strconv.Atoi(parts[1])
	if len(parts) == 2 {
		return checked(lead, 60, minutes)
	}
	seconds, _ := strconv.Atoi(parts[2])
	return checked(lead, 3600, minutes*60+seconds)
}

func checked(lead, unit, rest int) (int, error) {
	if lead > (math.MaxInt-rest)/unit {
		return 0, ErrInvalidFormat
	}
	return lead*unit + rest, nil
}

// FromSeconds renders total as mm:ss, or h:mm:ss once it reaches an hour.
// Negative totals render as 00:00.
func FromSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Canonical re-encodes s through FromSeconds, e.g. "75:00" becomes "1:15:00".
func Canonical(s string) (string, error) {
	total, err := ToSeconds(s)
	if err != nil {
		return "", err
	}
	return FromSeconds(total), nil
}

// Shift moves s by delta seconds, clamped to [0, math.MaxInt]. Invalid input
// is returned unchanged.
func Shift(s string, delta int) string {
	total, err := ToSeconds(s)
	if err != nil {
		return s
	}
	switch {
	case delta > 0 && total > math.MaxInt-delta:
		total = math.MaxInt
	case total+delta < 0:
		total = 0
	default:
		total += delta
	}
	return FromSeconds(total)
}

// ParseDelta parses a shift amount: plain seconds ("90", "+5", "-10") or a
// signed timestamp ("-1:30", "+0:05").
func ParseDelta(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty delta")
	}

	sign := 1
	body := s
	switch s[0] {
	case '+':
		body = s[1:]
	case '-':
		sign = -1
		body = s[1:]
	}

	if strings.Contains(body, ":") {
		total, err := ToSeconds(body)
		if err != nil {
			return 0, fmt.Errorf("parse delta %q: %w", s, err)
		}
		return sign * total, nil
	}

	n, err := strconv.Atoi(body)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("parse delta %q: expected seconds or [+-]mm:ss", s)
	}
	return sign * n, nil
}
