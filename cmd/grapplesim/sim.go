package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
	"github.com/milk9111/shipgrapple/ecs/entity"
	"github.com/milk9111/shipgrapple/ecs/system"
	"github.com/milk9111/shipgrapple/metrics"
	"github.com/milk9111/shipgrapple/prefabs"
)

const defaultDt = 1.0 / 30.0

// sim drives one scenario. The mutex guards the world against the debug
// server, which reads state from other goroutines.
type sim struct {
	mu       sync.Mutex
	world    *ecs.World
	scenario *entity.Scenario
	tools    *system.ToolUseSystem
	grapple  *system.GrappleSystem
	frame    int64
	dt       float64

	// onChanges receives the replication changes drained after each tick.
	onChanges func([]ecs.Change)
}

func newSim(spec *prefabs.ScenarioSpec) (*sim, error) {
	w := ecs.NewWorld()
	w.SetPhysicsWorld(ecs.NewPhysicsWorld())

	tools := system.NewToolUseSystem()
	grapple := system.NewGrappleSystem(tools)
	tools.Register(w)
	grapple.Register(w)
	w.AddSystem(system.NewPhysicsSystem())

	sc, err := entity.BuildScenario(w, spec)
	if err != nil {
		return nil, err
	}
	dt := spec.Dt
	if dt <= 0 {
		dt = defaultDt
	}
	return &sim{world: w, scenario: sc, tools: tools, grapple: grapple, dt: dt}, nil
}

func (s *sim) lookup(name string) (ecs.Entity, error) {
	e, ok := s.scenario.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("unknown entity %q", name)
	}
	if !s.world.IsAlive(e) {
		return 0, fmt.Errorf("entity %q was destroyed", name)
	}
	return e, nil
}

// fire spawns a projectile from gun that strikes target at the world point
// (x, y). The hit is handled on the next tick.
func (s *sim) fire(gunName, targetName string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gun, err := s.lookup(gunName)
	if err != nil {
		return err
	}
	target, err := s.lookup(targetName)
	if err != nil {
		return err
	}
	projectile, err := entity.NewGrappleProjectile(s.world, gun, x, y)
	if err != nil {
		return err
	}
	s.world.Emit(ecs.EventProjectileHit, &ecs.ProjectileHitEvent{
		Projectile: projectile,
		Target:     target,
		Impact:     cp.Vector{X: x, Y: y},
	})
	return nil
}

// cut asks to cut gun's tether with tool. It reports whether the tool use
// started once the request is handled on the next tick.
func (s *sim) cut(toolName, gunName string) (*ecs.InteractUsingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tool, err := s.lookup(toolName)
	if err != nil {
		return nil, err
	}
	gun, err := s.lookup(gunName)
	if err != nil {
		return nil, err
	}
	evt := &ecs.InteractUsingEvent{Used: tool, Target: gun}
	s.world.Emit(ecs.EventInteractUsing, evt)
	return evt, nil
}

func (s *sim) setParent(name, parentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	var parent ecs.Entity
	if parentName != "" {
		if parent, err = s.lookup(parentName); err != nil {
			return err
		}
	}
	return ecs.SetParent(s.world, e, parent)
}

func (s *sim) destroy(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	s.world.DestroyEntity(e)
	return nil
}

// step runs n authoritative ticks.
func (s *sim) step(n int) {
	for i := 0; i < n; i++ {
		s.mu.Lock()
		s.frame++
		start := time.Now()
		s.world.Update(ecs.Tick{Frame: s.frame, Dt: s.dt, FirstTimePredicted: true})
		metrics.ObserveTick(time.Since(start))
		changes := s.world.DrainChanges()
		s.mu.Unlock()

		if s.onChanges != nil && len(changes) > 0 {
			s.onChanges(changes)
		}
	}
}

// reloadGunTuning reapplies prefab tuning to every gun built from name.
func (s *sim) reloadGunTuning(name string) (int, error) {
	spec, err := prefabs.LoadGrappleGunSpec(name)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for e, prefab := range s.scenario.Prefabs {
		if prefab != name {
			continue
		}
		gun, ok := ecs.Get(s.world, e, component.GrappleGunComponent)
		if !ok {
			continue
		}
		entity.ApplyGrappleGunSpec(gun, spec)
		s.world.MarkChanged(e, component.GrappleGunComponent.Kind())
		n++
	}
	return n, nil
}

type gunState struct {
	Name       string  `json:"name"`
	Alive      bool    `json:"alive"`
	Attached   bool    `json:"attached"`
	JointID    string  `json:"joint_id,omitempty"`
	Target     string  `json:"target,omitempty"`
	MaxLength  float64 `json:"max_length"`
	MinLength  float64 `json:"min_length"`
	Length     float64 `json:"length"`
	Cutting    bool    `json:"cutting"`
	CutLeft    float64 `json:"cut_remaining,omitempty"`
	HasVisuals bool    `json:"has_visuals"`
}

type simState struct {
	Scenario string     `json:"scenario"`
	Frame    int64      `json:"frame"`
	Entities int        `json:"entities"`
	Guns     []gunState `json:"guns"`
}

func (s *sim) gunState(name string) gunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gunStateLocked(name)
}

func (s *sim) gunStateLocked(name string) gunState {
	st := gunState{Name: name}
	e, ok := s.scenario.Guns[name]
	if !ok || !s.world.IsAlive(e) {
		return st
	}
	st.Alive = true
	gun, ok := ecs.Get(s.world, e, component.GrappleGunComponent)
	if !ok {
		return st
	}
	st.Attached = gun.Attached()
	st.JointID = gun.JointID
	st.Target = s.nameOf(ecs.Entity(gun.TargetGrid))
	if use, ok := ecs.Get(s.world, e, component.ToolUseComponent); ok {
		st.Cutting = true
		st.CutLeft = use.Remaining
	}
	st.HasVisuals = ecs.Has(s.world, e, component.JointVisualsComponent)
	if !st.Attached {
		return st
	}
	grid, ok := ecs.GridOf(s.world, e)
	if !ok {
		return st
	}
	if joint, ok := s.world.PhysicsWorld().TryGetJoint(s.world, grid, gun.JointID); ok {
		st.MaxLength = joint.MaxLength()
		st.MinLength = joint.MinLength()
		st.Length = joint.Length()
	}
	return st
}

func (s *sim) nameOf(e ecs.Entity) string {
	if !e.Valid() {
		return ""
	}
	for name, g := range s.scenario.Grids {
		if g == e {
			return name
		}
	}
	return e.String()
}

func (s *sim) snapshot() simState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := simState{Scenario: s.scenario.Name, Frame: s.frame, Entities: s.world.EntityCount()}
	for name := range s.scenario.Guns {
		st.Guns = append(st.Guns, s.gunStateLocked(name))
	}
	sortGunStates(st.Guns)
	return st
}

func sortGunStates(guns []gunState) {
	sort.Slice(guns, func(i, j int) bool { return guns[i].Name < guns[j].Name })
}
