package lint

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	tt "github.com/gnoverse/glint/pkg/types"
)

// DefaultConfigFile is the name probed in the working directory when no
// explicit configuration path is given.
const DefaultConfigFile = ".glint.yaml"

// Config mirrors the YAML configuration file. The zero value is a usable
// default: every default-on rule at its own severity, warnings fail the run,
// one worker per CPU and the shared result cache enabled.
type Config struct {
	// Enable turns on rules that default to off.
	Enable []string `yaml:"enable"`

	// Disable turns off rules regardless of their default. Naming a rule
	// in both Enable and Disable is a configuration error.
	Disable []string `yaml:"disable"`

	// Severity overrides the reporting severity per rule ID. Overriding a
	// rule to "off" disables it.
	Severity map[string]tt.Severity `yaml:"severity"`

	// FailOn is the lowest severity that makes the run exit nonzero.
	// Accepts "note", "warning" or "error"; empty means "warning".
	FailOn string `yaml:"fail-on"`

	// Jobs caps the number of files analyzed concurrently. Zero or
	// negative means one worker per CPU.
	Jobs int `yaml:"jobs"`

	// Exclude lists glob patterns matched against both the base name and
	// the slash path of every discovered file and directory.
	Exclude []string `yaml:"exclude"`

	// CacheDir overrides the result cache location. Empty uses the user
	// cache directory.
	CacheDir string `yaml:"cache-dir"`

	// NoCache disables the result cache entirely.
	NoCache bool `yaml:"no-cache"`
}

// LoadConfig reads a YAML configuration file. A missing file is not an
// error: the zero Config is returned so runs work without any setup.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, &ConfigError{err: err}
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, configErrorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// threshold resolves the FailOn string. Empty means warning; "off" is not
// a valid threshold.
func (c Config) threshold() (tt.Severity, error) {
	if c.FailOn == "" {
		return tt.SeverityWarning, nil
	}
	sev, err := tt.ParseSeverity(c.FailOn)
	if err != nil {
		return 0, fmt.Errorf("fail-on: %w", err)
	}
	if sev == tt.SeverityOff {
		return 0, fmt.Errorf("fail-on: must be note, warning or error")
	}
	return sev, nil
}
