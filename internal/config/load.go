package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"

	"github.com/oxhq/rubric/internal/model"
)

var log = commonlog.GetLogger("rubric.config")

// FileNames are the configuration files Discover looks for, in priority order.
var FileNames = []string{".rubric.yml", ".rubric.yaml", ".rubric.toml"}

const allCopsKey = "AllCops"

// Load reads a configuration file and merges it over the built-in defaults.
// The decoder is picked by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ReadError{Path: path, Err: err}
	}
	raw, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.Path = path
	if err := cfg.merge(raw); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover walks up from dir and returns the first configuration file found,
// or "" when there is none.
func Discover(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve loads the configuration the CLI and the language server run with:
// explicit path, else $RUBRIC_CONFIG, else the discovered file, else defaults.
// Environment overrides are applied last.
func Resolve(explicit, dir string) (*Config, error) {
	LoadDotEnv()

	path := explicit
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		found, err := Discover(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parse error in %s: %v", model.ErrConfiguration, path, err)
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parse error in %s: %v", model.ErrConfiguration, path, err)
		}
	default:
		return nil, model.NewConfigError(nil, "unsupported configuration format %q", filepath.Ext(path))
	}
	out, _ := normalize(raw).(map[string]any)
	return out, nil
}

// normalize rewrites decoder-specific containers into []any and map[string]any
// and integers into int.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int64:
		return int(t)
	default:
		return v
	}
}

func (c *Config) merge(raw map[string]any) error {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		section, ok := raw[key].(map[string]any)
		if !ok {
			if raw[key] == nil {
				continue
			}
			return model.NewConfigError([]string{key}, "expected a mapping, got %s", typeName(raw[key]))
		}
		if key == allCopsKey {
			if err := c.mergeAllCops(section); err != nil {
				return err
			}
			continue
		}
		schema, known := lookupSchema(key)
		if !known {
			log.Warningf("unknown cop %s in configuration, ignoring", key)
			continue
		}
		cc, err := mergeCop(c.Cop(key), schema, section)
		if err != nil {
			return err
		}
		if schema.Validate != nil {
			if err := schema.Validate(cc); err != nil {
				return err
			}
		}
		c.cops[key] = cc
	}
	return nil
}

func (c *Config) mergeAllCops(section map[string]any) error {
	for key, v := range section {
		path := []string{allCopsKey, key}
		switch key {
		case "MaxIterations":
			n, err := intValue(path, v)
			if err != nil {
				return err
			}
			if n < 1 {
				return model.NewConfigError(path, "must be at least 1, got %d", n)
			}
			c.AllCops.MaxIterations = n
		case "Jobs":
			n, err := intValue(path, v)
			if err != nil {
				return err
			}
			if n < 0 {
				return model.NewConfigError(path, "must not be negative, got %d", n)
			}
			c.AllCops.Jobs = n
		case "Include":
			list, err := stringList(path, v)
			if err != nil {
				return err
			}
			c.AllCops.Include = list
		case "Exclude":
			list, err := stringList(path, v)
			if err != nil {
				return err
			}
			for _, p := range list {
				if !slices.Contains(c.AllCops.Exclude, p) {
					c.AllCops.Exclude = append(c.AllCops.Exclude, p)
				}
			}
		default:
			return model.NewConfigError(path, "unknown key")
		}
	}
	return nil
}

func mergeCop(cc CopConfig, schema Schema, section map[string]any) (CopConfig, error) {
	if cc.Options == nil {
		cc.Options = make(map[string]any)
	}
	for key, v := range section {
		path := []string{schema.Name, key}
		switch key {
		case "Enabled":
			b, ok := v.(bool)
			if !ok {
				return cc, model.NewConfigError(path, "expected a boolean, got %s", typeName(v))
			}
			cc.Enabled = b
		case "AutoCorrect":
			b, ok := v.(bool)
			if !ok {
				return cc, model.NewConfigError(path, "expected a boolean, got %s", typeName(v))
			}
			cc.AutoCorrect = b
		case "Severity":
			s, ok := v.(string)
			if !ok {
				return cc, model.NewConfigError(path, "expected a string, got %s", typeName(v))
			}
			sev, err := model.ParseSeverity(s)
			if err != nil {
				return cc, model.NewConfigError(path, "%v", err)
			}
			cc.Severity = sev
		case "Description", "StyleGuide", "VersionAdded":
			// Documentation keys carried over from RuboCop files.
		default:
			if _, ok := schema.Defaults.Options[key]; !ok {
				return cc, model.NewConfigError(path, "unknown key")
			}
			cc.Options[key] = v
		}
	}
	return cc, nil
}

func intValue(path []string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, model.NewConfigError(path, "expected an integer, got %s", typeName(v))
}

func stringList(path []string, v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, model.NewConfigError(path, "expected a list of strings, got %s", typeName(v))
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, model.NewConfigError(indexPath(path, i), "expected a string, got %s", typeName(item))
		}
		out = append(out, s)
	}
	return out, nil
}

// indexPath renders element i of the last key, e.g. Exclude[2].
func indexPath(path []string, i int) []string {
	out := slices.Clone(path)
	out[len(out)-1] += fmt.Sprintf("[%d]", i)
	return out
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, float64:
		return "a number"
	case []any:
		return "a list"
	case map[string]any:
		return "a mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
