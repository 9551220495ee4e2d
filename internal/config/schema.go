package config

import (
	"sort"
	"sync"
)

// Schema describes the configuration section of one cop.
type Schema struct {
	Name     string
	Defaults CopConfig
	// Validate checks a merged section at load time. Errors should be
	// *model.ConfigError values.
	Validate func(CopConfig) error
}

var (
	schemaMu sync.RWMutex
	registry = map[string]Schema{}
)

// RegisterSchema makes a cop section known to Load. Registering a name twice
// replaces the earlier schema.
func RegisterSchema(s Schema) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	registry[s.Name] = s
}

func lookupSchema(name string) (Schema, bool) {
	schemaMu.RLock()
	defer schemaMu.RUnlock()
	s, ok := registry[name]
	return s, ok
}

func schemas() []Schema {
	schemaMu.RLock()
	defer schemaMu.RUnlock()
	out := make([]Schema, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
