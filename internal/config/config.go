package config

import (
	"maps"
	"slices"

	"github.com/oxhq/rubric/internal/model"
)

// DefaultMaxIterations bounds the autocorrect loop per file.
const DefaultMaxIterations = 10

// Config holds the application's configuration.
type Config struct {
	// Path is the file the configuration was loaded from; empty for built-in defaults.
	Path string

	AllCops AllCops

	// LedgerDSN and LibSQLAuthToken come from the environment only.
	LedgerDSN       string
	LibSQLAuthToken string

	cops map[string]CopConfig
}

// AllCops holds the settings shared by every cop.
type AllCops struct {
	MaxIterations int
	Jobs          int // 0 means GOMAXPROCS
	Include       []string
	Exclude       []string
}

// CopConfig is the typed view of one cop section. Options holds the
// cop-specific keys, decoded into plain values: string, bool, int, float64,
// []any and map[string]any.
type CopConfig struct {
	Enabled     bool
	Severity    model.Severity // SeverityUnset means the cop's default
	AutoCorrect bool
	Options     map[string]any
}

// Option returns the cop-specific value stored under key.
func (c CopConfig) Option(key string) (any, bool) {
	v, ok := c.Options[key]
	return v, ok
}

func (c CopConfig) clone() CopConfig {
	c.Options = maps.Clone(c.Options)
	return c
}

var (
	defaultInclude = []string{"**/*.rb", "**/*.rake", "**/*.gemspec", "**/*.ru", "**/Rakefile", "**/Gemfile"}
	defaultExclude = []string{"vendor/**", "node_modules/**", ".git/**", "tmp/**"}
)

// Default returns the built-in configuration for every registered cop.
func Default() *Config {
	cfg := &Config{
		AllCops: AllCops{
			MaxIterations: DefaultMaxIterations,
			Include:       slices.Clone(defaultInclude),
			Exclude:       slices.Clone(defaultExclude),
		},
		cops: make(map[string]CopConfig),
	}
	for _, s := range schemas() {
		cfg.cops[s.Name] = s.Defaults.clone()
	}
	return cfg
}

// Cop returns the configuration of a cop. Unknown names get a disabled zero value.
func (c *Config) Cop(name string) CopConfig {
	if cc, ok := c.cops[name]; ok {
		return cc.clone()
	}
	if s, ok := lookupSchema(name); ok {
		return s.Defaults.clone()
	}
	return CopConfig{}
}

// SetCop replaces the configuration of a cop. It is meant for callers that
// build a configuration programmatically.
func (c *Config) SetCop(name string, cc CopConfig) {
	if c.cops == nil {
		c.cops = make(map[string]CopConfig)
	}
	c.cops[name] = cc.clone()
}
