package entity

import (
	"fmt"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/prefabs"
)

// Scenario maps scenario names to the entities built for them.
type Scenario struct {
	Name    string
	Grids   map[string]ecs.Entity
	Guns    map[string]ecs.Entity
	Tools   map[string]ecs.Entity
	Prefabs map[ecs.Entity]string // gun entity -> tuning prefab
}

// Lookup finds a named entity of any kind.
func (s *Scenario) Lookup(name string) (ecs.Entity, bool) {
	if s == nil {
		return 0, false
	}
	for _, m := range []map[string]ecs.Entity{s.Grids, s.Guns, s.Tools} {
		if e, ok := m[name]; ok {
			return e, true
		}
	}
	return 0, false
}

// BuildScenario creates every grid, gun and tool the scenario declares.
func BuildScenario(w *ecs.World, spec *prefabs.ScenarioSpec) (*Scenario, error) {
	if spec == nil {
		return nil, fmt.Errorf("scenario: spec is nil")
	}
	sc := &Scenario{
		Name:    spec.Name,
		Grids:   make(map[string]ecs.Entity, len(spec.Grids)),
		Guns:    make(map[string]ecs.Entity, len(spec.Guns)),
		Tools:   make(map[string]ecs.Entity, len(spec.Tools)),
		Prefabs: make(map[ecs.Entity]string, len(spec.Guns)),
	}
	for _, g := range spec.Grids {
		e, err := NewGrid(w, g)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", spec.Name, err)
		}
		sc.Grids[g.Name] = e
	}
	for _, g := range spec.Grids {
		if g.Relay == "" {
			continue
		}
		relay, ok := sc.Grids[g.Relay]
		if !ok {
			return nil, fmt.Errorf("scenario %q: grid %q: unknown relay %q", spec.Name, g.Name, g.Relay)
		}
		if err := SetGridRelay(w, sc.Grids[g.Name], relay); err != nil {
			return nil, fmt.Errorf("scenario %q: grid %q: %w", spec.Name, g.Name, err)
		}
	}
	for _, g := range spec.Guns {
		prefab := g.Prefab
		if prefab == "" {
			prefab = DefaultGrappleGunPrefab
		}
		e, err := NewGrappleGun(w, sc.Grids[g.Grid], prefab, g.Transform)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: gun %q: %w", spec.Name, g.Name, err)
		}
		sc.Guns[g.Name] = e
		sc.Prefabs[e] = prefab
	}
	for _, t := range spec.Tools {
		e, err := NewTool(w, t.Prefab)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: tool %q: %w", spec.Name, t.Name, err)
		}
		sc.Tools[t.Name] = e
	}
	return sc, nil
}
