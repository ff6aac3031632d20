package factory

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownType is returned by Create for a type nobody registered.
var ErrUnknownType = errors.New("unknown module type")

// ModuleConfig names a module type and carries its raw settings, usually
// straight from the config file.
type ModuleConfig struct {
	Type string         `json:"type" yaml:"type"`
	Conf map[string]any `json:"conf" yaml:"conf"`
}

// Factory builds one implementation of T from raw settings.
type Factory[T any] func(map[string]any) (T, error)

// Registry maps type names to factories. Names are matched case-insensitively.
type Registry[T any] struct {
	mu    sync.RWMutex
	byKey map[string]Factory[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{byKey: map[string]Factory[T]{}}
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register binds name to f. Empty names, nil factories and duplicates are
// rejected.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	k := key(name)
	switch {
	case k == "":
		return errors.New("factory: empty type name")
	case f == nil:
		return fmt.Errorf("factory: nil factory for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byKey[k]; dup {
		return fmt.Errorf("factory: %q already registered", name)
	}
	r.byKey[k] = f
	return nil
}

// Names lists registered types, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byKey))
}

func (r *Registry[T]) lookup(name string) (Factory[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byKey[key(name)]
	return f, ok
}

// Create runs the factory registered for cfg.Type.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	var zero T
	f, ok := r.lookup(cfg.Type)
	if !ok {
		return zero, fmt.Errorf("%w %q (known: %s)", ErrUnknownType, cfg.Type, strings.Join(r.Names(), ", "))
	}
	m, err := f(cfg.Conf)
	if err != nil {
		return zero, fmt.Errorf("build %s: %w", key(cfg.Type), err)
	}
	return m, nil
}

// CreateAll builds every entry in order and stops at the first failure.
func (r *Registry[T]) CreateAll(cfgs []ModuleConfig) ([]T, error) {
	out := make([]T, 0, len(cfgs))
	for i, c := range cfgs {
		m, err := r.Create(c)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Decode copies raw settings into out using its json tags. Input is weakly
// typed so values coming from environment variables as strings still land in
// numeric, bool and time.Duration fields.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("factory: decoder: %w", err)
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("factory: decode settings: %w", err)
	}
	return nil
}
