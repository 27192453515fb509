// Package registry manages module lifecycle: registration, dependency
// resolution, initialization, and shutdown of Presage modules.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.PluginResolver = (*Registry)(nil)

// Registry manages the lifecycle of all registered modules.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]plugin.Plugin
	infos    map[string]plugin.PluginInfo
	order    []string // topological order after Validate
	started  []string // modules started, in start order
	disabled map[string]bool
	unsubs   []func()
	bus      plugin.EventBus
	logger   *zap.Logger
}

// New creates a new module registry. The bus is used to wire
// EventSubscriber modules during StartAll; pass nil to skip wiring.
func New(bus plugin.EventBus, logger *zap.Logger) *Registry {
	return &Registry{
		plugins:  make(map[string]plugin.Plugin),
		infos:    make(map[string]plugin.PluginInfo),
		disabled: make(map[string]bool),
		bus:      bus,
		logger:   logger,
	}
}

// Register adds a module to the registry. Must be called before Validate.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("module has empty name")
	}
	if _, exists := r.plugins[info.Name]; exists {
		return fmt.Errorf("module %q already registered", info.Name)
	}

	r.plugins[info.Name] = p
	r.infos[info.Name] = info
	r.logger.Info("module registered",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
	)
	return nil
}

// Validate checks API version compatibility, verifies all declared
// dependencies exist, and resolves the start order via topological sort.
// Required modules fail hard; optional ones are disabled with a warning.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, info := range r.infos {
		if info.APIVersion >= plugin.APIVersionMin && info.APIVersion <= plugin.APIVersionCurrent {
			continue
		}
		err := fmt.Errorf("module %q targets API version %d, supported range is %d-%d",
			name, info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
		if info.Required {
			return err
		}
		r.logger.Warn("disabling module: incompatible API version", zap.String("name", name), zap.Error(err))
		r.disabled[name] = true
	}

	for name, info := range r.infos {
		if r.disabled[name] {
			continue
		}
		for _, dep := range info.Dependencies {
			if _, ok := r.plugins[dep]; ok && !r.disabled[dep] {
				continue
			}
			if info.Required {
				return fmt.Errorf("module %q depends on %q which is missing or disabled", name, dep)
			}
			r.logger.Warn("disabling module: unsatisfied dependency",
				zap.String("name", name),
				zap.String("dependency", dep),
			)
			r.disabled[name] = true
			break
		}
	}

	order, err := r.topologicalSort()
	if err != nil {
		return err
	}
	r.order = order

	r.logger.Info("module dependency resolution complete",
		zap.Strings("start_order", r.order),
		zap.Int("disabled", len(r.disabled)),
	)
	return nil
}

// InitAll initializes all active modules in dependency order. depsFn builds
// the scoped dependency set for each module by name.
func (r *Registry) InitAll(ctx context.Context, depsFn func(name string) plugin.Dependencies) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		p := r.plugins[name]
		r.logger.Info("initializing module", zap.String("name", name))

		if err := p.Init(ctx, depsFn(name)); err != nil {
			if r.infos[name].Required {
				return fmt.Errorf("required module %q failed to initialize: %w", name, err)
			}
			r.logger.Error("optional module failed to initialize, disabling",
				zap.String("name", name), zap.Error(err))
			r.disabled[name] = true
			continue
		}

		if v, ok := p.(plugin.Validator); ok {
			if err := v.ValidateConfig(); err != nil {
				if r.infos[name].Required {
					return fmt.Errorf("required module %q config invalid: %w", name, err)
				}
				r.logger.Error("optional module config invalid, disabling",
					zap.String("name", name), zap.Error(err))
				r.disabled[name] = true
			}
		}
	}
	return nil
}

// StartAll wires event subscriptions and starts all initialized modules in
// dependency order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		p := r.plugins[name]

		if sub, ok := p.(plugin.EventSubscriber); ok && r.bus != nil {
			for _, s := range sub.Subscriptions() {
				r.unsubs = append(r.unsubs, r.bus.Subscribe(s.Topic, s.Handler))
			}
		}

		if err := p.Start(ctx); err != nil {
			if r.infos[name].Required {
				return fmt.Errorf("required module %q failed to start: %w", name, err)
			}
			r.logger.Error("optional module failed to start, disabling",
				zap.String("name", name), zap.Error(err))
			r.disabled[name] = true
			continue
		}
		r.started = append(r.started, name)
	}
	return nil
}

// StopAll stops started modules in reverse start order and removes event
// subscriptions. Stop errors are logged, not propagated: shutdown proceeds.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil

	for i := len(r.started) - 1; i >= 0; i-- {
		name := r.started[i]
		if err := r.plugins[name].Stop(ctx); err != nil {
			r.logger.Error("module stop failed", zap.String("name", name), zap.Error(err))
		}
	}
	r.started = nil
}

// Resolve implements plugin.PluginResolver.
func (r *Registry) Resolve(name string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.disabled[name] {
		return nil, false
	}
	p, ok := r.plugins[name]
	return p, ok
}

// All returns every active module.
func (r *Registry) All() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		if !r.disabled[name] {
			out = append(out, r.plugins[name])
		}
	}
	return out
}

// AllRoutes returns the HTTP routes of every active HTTPProvider module,
// keyed by module name.
func (r *Registry) AllRoutes() map[string][]plugin.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routes := make(map[string][]plugin.Route)
	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		if hp, ok := r.plugins[name].(plugin.HTTPProvider); ok {
			routes[name] = hp.Routes()
		}
	}
	return routes
}

// topologicalSort orders active modules so dependencies initialize first.
// Caller must hold the lock.
func (r *Registry) topologicalSort() ([]string, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(r.plugins))
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle involving module %q", name)
		}
		state[name] = visiting
		for _, dep := range r.infos[name].Dependencies {
			if r.disabled[dep] {
				continue
			}
			if _, ok := r.plugins[dep]; !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for name := range r.plugins {
		if r.disabled[name] {
			continue
		}
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
