package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ArgumentError reports a missing or malformed tool argument.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Reason)
}

// Args are decoded JSON tool arguments. JSON numbers arrive as float64, and
// callers sometimes send numbers or booleans as strings, so the accessors
// convert between the two.
type Args map[string]any

// String returns a string argument. Numbers and booleans are formatted.
func (a Args) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

// OptionalString returns the trimmed string or "".
func (a Args) OptionalString(name string) string {
	s, _ := a.String(name)
	return strings.TrimSpace(s)
}

// RequiredString returns a non-empty string or an ArgumentError.
func (a Args) RequiredString(name string) (string, error) {
	s := a.OptionalString(name)
	if s == "" {
		return "", &ArgumentError{Name: name, Reason: "is required"}
	}
	return s, nil
}

// Int returns an integer argument. Fractional numbers are rejected.
func (a Args) Int(name string) (int, bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, true, &ArgumentError{Name: name, Reason: "must be an integer"}
		}
		return int(n), true, nil
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false, nil
		}
		i, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, true, &ArgumentError{Name: name, Reason: "must be an integer"}
		}
		return i, true, nil
	}
	return 0, true, &ArgumentError{Name: name, Reason: "must be an integer"}
}

// RequiredInt returns an integer or an ArgumentError when missing.
func (a Args) RequiredInt(name string) (int, error) {
	n, ok, err := a.Int(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &ArgumentError{Name: name, Reason: "is required"}
	}
	return n, nil
}

// OptionalInt returns nil when the argument is absent.
func (a Args) OptionalInt(name string) (*int, error) {
	n, ok, err := a.Int(name)
	if err != nil || !ok {
		return nil, err
	}
	return &n, nil
}

// IntOr returns the argument or fallback when absent.
func (a Args) IntOr(name string, fallback int) (int, error) {
	n, ok, err := a.Int(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}
	return n, nil
}

// Bool returns a boolean argument, accepting "true"/"false", "on"/"off",
// "yes"/"no" and 0/1.
func (a Args) Bool(name string) (bool, bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return false, false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, true, nil
	case float64:
		return b != 0, true, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on":
			return true, true, nil
		case "false", "0", "no", "off":
			return false, true, nil
		}
	}
	return false, true, &ArgumentError{Name: name, Reason: "must be a boolean"}
}

// RequiredBool returns a boolean or an ArgumentError when missing.
func (a Args) RequiredBool(name string) (bool, error) {
	b, ok, err := a.Bool(name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, &ArgumentError{Name: name, Reason: "is required"}
	}
	return b, nil
}

// Volume validates a 0-100 volume argument.
func (a Args) Volume(name string) (int, error) {
	v, err := a.RequiredInt(name)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 100 {
		return 0, &ArgumentError{Name: name, Reason: "must be between 0 and 100"}
	}
	return v, nil
}
