package model

import (
	"fmt"
	"strings"
)

// Severity ranks an offense, in RuboCop order. The zero value means unset.
type Severity int

const (
	SeverityUnset Severity = iota
	SeverityInfo
	SeverityRefactor
	SeverityConvention
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = [...]string{"", "info", "refactor", "convention", "warning", "error", "fatal"}

func (s Severity) String() string {
	if s < SeverityUnset || s > SeverityFatal {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// Code is the one-letter form used by progress and offense lines.
func (s Severity) Code() string {
	switch s {
	case SeverityInfo:
		return "I"
	case SeverityRefactor:
		return "R"
	case SeverityConvention:
		return "C"
	case SeverityWarning:
		return "W"
	case SeverityError:
		return "E"
	case SeverityFatal:
		return "F"
	default:
		return "?"
	}
}

// ParseSeverity accepts a severity name, case-insensitively.
func ParseSeverity(name string) (Severity, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range severityNames {
		if i > 0 && s == n {
			return Severity(i), nil
		}
	}
	return SeverityUnset, fmt.Errorf("unknown severity %q", name)
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
