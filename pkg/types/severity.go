package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Severity classifies how serious an issue is. The zero value is
// SeverityOff, which is never attached to an emitted issue; in configuration
// it disables a rule.
type Severity uint8

const (
	SeverityOff Severity = iota
	// SeverityNote marks convention-style findings.
	SeverityNote
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

// ParseSeverity converts a configuration string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "off":
		return SeverityOff, nil
	case "note", "info", "convention":
		return SeverityNote, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityOff, fmt.Errorf("unknown severity %q", s)
}

// MarshalText implements encoding.TextMarshaler so severities render as
// their names in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalYAML lets configuration files spell severities by name.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(raw))
}

// MarshalYAML renders the severity name.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}
