/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rate describes the frequency of requests.
type Rate struct {
	Count    int
	Duration time.Duration
}

// ParseRate parses a rate in the "N/(s|m|h)" form (e.g. "1000/s", "100/m").
func ParseRate(rate string) (Rate, error) {
	incorrectFormatErr := fmt.Errorf("incorrect format for rate %q, should be N/(s|m|h), for example 10/s, 100/m, 1000/h", rate)
	countStr, unit, found := strings.Cut(strings.TrimSpace(rate), "/")
	if !found {
		return Rate{}, incorrectFormatErr
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count <= 0 {
		return Rate{}, incorrectFormatErr
	}
	switch strings.ToLower(unit) {
	case "s":
		return Rate{count, time.Second}, nil
	case "m":
		return Rate{count, time.Minute}, nil
	case "h":
		return Rate{count, time.Hour}, nil
	}
	return Rate{}, incorrectFormatErr
}

// String returns the "N/(s|m|h)" representation of the rate.
func (r Rate) String() string {
	if r.Count == 0 && r.Duration == 0 {
		return ""
	}
	unit := r.Duration.String()
	switch r.Duration {
	case time.Second:
		unit = "s"
	case time.Minute:
		unit = "m"
	case time.Hour:
		unit = "h"
	}
	return fmt.Sprintf("%d/%s", r.Count, unit)
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (r *Rate) UnmarshalText(text []byte) error {
	return r.unmarshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (r *Rate) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	return r.unmarshal(text)
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (r *Rate) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	return r.unmarshal(text)
}

func (r *Rate) unmarshal(text string) error {
	if text == "" {
		*r = Rate{}
		return nil
	}
	parsed, err := ParseRate(text)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler interface.
func (r Rate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Limiter is a process-wide rate limiter.
type Limiter interface {
	// Allow reports whether one more request fits into the rate.
	// If not, retryAfter estimates when the next request may fit.
	Allow(ctx context.Context) (allow bool, retryAfter time.Duration, err error)
}
