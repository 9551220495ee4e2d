package cop

import (
	"fmt"
	"sort"
	"sync"

	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/model"
)

// Factory builds a cop from its validated configuration.
type Factory func(cfg config.CopConfig) (Cop, error)

// Entry describes a registered cop.
type Entry struct {
	Name            string
	Description     string
	DefaultSeverity model.Severity
	Defaults        config.CopConfig
	// Validate checks a configuration section at load time. It is optional.
	Validate func(config.CopConfig) error
	Factory  Factory
}

// Instance is a constructed cop with the settings the commissioner applies to it.
type Instance struct {
	Cop         Cop
	Severity    model.Severity
	AutoCorrect bool
}

// Registry maps cop names to factories. It is filled at startup and read-only
// once frozen.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	frozen  bool
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds e. It panics after Freeze or on a duplicate name.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic(fmt.Sprintf("cop: Register(%s) after Freeze", e.Name))
	}
	if _, dup := r.entries[e.Name]; dup {
		panic(fmt.Sprintf("cop: %s registered twice", e.Name))
	}
	if e.DefaultSeverity == model.SeverityUnset {
		e.DefaultSeverity = model.SeverityConvention
	}
	r.entries[e.Name] = e
	config.RegisterSchema(config.Schema{Name: e.Name, Defaults: e.Defaults, Validate: e.Validate})
}

func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Names returns the registered cop names in sorted order, which is also the
// order Build and the commissioner use.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Build constructs the cops enabled in cfg. A non-empty only list selects
// cops by name regardless of their Enabled setting.
func (r *Registry) Build(cfg *config.Config, only []string) ([]Instance, error) {
	selected := make(map[string]bool, len(only))
	for _, name := range only {
		if _, ok := r.Lookup(name); !ok {
			return nil, model.NewConfigError(nil, "unknown cop %q", name)
		}
		selected[name] = true
	}

	var out []Instance
	for _, name := range r.Names() {
		e, _ := r.Lookup(name)
		cc := cfg.Cop(name)
		if len(only) > 0 {
			if !selected[name] {
				continue
			}
		} else if !cc.Enabled {
			continue
		}
		c, err := e.Factory(cc)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", name, err)
		}
		sev := cc.Severity
		if sev == model.SeverityUnset {
			sev = e.DefaultSeverity
		}
		out = append(out, Instance{Cop: c, Severity: sev, AutoCorrect: cc.AutoCorrect})
	}
	return out, nil
}

// Default is the registry cop packages register into from init.
var Default = NewRegistry()

func Register(e Entry)                 { Default.Register(e) }
func Freeze()                          { Default.Freeze() }
func Names() []string                  { return Default.Names() }
func Lookup(name string) (Entry, bool) { return Default.Lookup(name) }
