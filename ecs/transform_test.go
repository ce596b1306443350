package ecs

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/shipgrapple/ecs/component"
)

const eps = 1e-9

func near(a, b cp.Vector) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func addTransform(t *testing.T, w *World, x, y, rot float64, parent Entity) Entity {
	t.Helper()
	e := w.CreateEntity()
	if err := Add(w, e, component.TransformComponent, &component.Transform{X: x, Y: y, Rotation: rot, Parent: uint64(parent)}); err != nil {
		t.Fatalf("add transform: %v", err)
	}
	return e
}

func TestWorldPositionRotation(t *testing.T) {
	w := NewWorld()
	root := addTransform(t, w, 10, 0, math.Pi/2, 0)
	child := addTransform(t, w, 2, 0, 0.25, root)
	grandchild := addTransform(t, w, 0, 1, 0, child)

	cases := []struct {
		name    string
		e       Entity
		wantPos cp.Vector
		wantRot float64
	}{
		{"root", root, cp.Vector{X: 10, Y: 0}, math.Pi / 2},
		{"child_rotated_by_parent", child, cp.Vector{X: 10, Y: 2}, math.Pi/2 + 0.25},
		{"grandchild", grandchild, cp.Vector{X: 10, Y: 2}.Add(cp.Vector{X: 0, Y: 1}.Rotate(cp.ForAngle(math.Pi/2 + 0.25))), math.Pi/2 + 0.25},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pos, rot, ok := WorldPositionRotation(w, c.e)
			if !ok {
				t.Fatalf("pose not resolved")
			}
			if !near(pos, c.wantPos) || math.Abs(rot-c.wantRot) > eps {
				t.Fatalf("pose = %v %v, want %v %v", pos, rot, c.wantPos, c.wantRot)
			}
		})
	}
}

func TestWorldPoseDeadParentIsRoot(t *testing.T) {
	w := NewWorld()
	parent := addTransform(t, w, 5, 5, 1, 0)
	child := addTransform(t, w, 1, 2, 0.5, parent)
	w.DestroyEntity(parent)

	pos, rot, ok := WorldPositionRotation(w, child)
	if !ok || !near(pos, cp.Vector{X: 1, Y: 2}) || rot != 0.5 {
		t.Fatalf("pose = %v %v %v", pos, rot, ok)
	}
}

func TestGridOf(t *testing.T) {
	w := NewWorld()
	grid := addTransform(t, w, 0, 0, 0, 0)
	_ = Add(w, grid, component.GridComponent, &component.Grid{Name: "hull"})
	gun := addTransform(t, w, 1, 0, 0, grid)
	part := addTransform(t, w, 0, 1, 0, gun)
	loose := addTransform(t, w, 0, 0, 0, 0)

	cases := []struct {
		name string
		e    Entity
		want Entity
		ok   bool
	}{
		{"grid_itself", grid, grid, true},
		{"direct_child", gun, grid, true},
		{"nested_child", part, grid, true},
		{"root_without_grid", loose, 0, false},
		{"dead", Entity(0), 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := GridOf(w, c.e)
			if ok != c.ok || got != c.want {
				t.Fatalf("GridOf = %s %v, want %s %v", got, ok, c.want, c.ok)
			}
		})
	}
}

func TestWorldLocalRoundTrip(t *testing.T) {
	origin := cp.Vector{X: 3, Y: -4}
	for _, rot := range []float64{0, 0.3, math.Pi, -2} {
		p := cp.Vector{X: 7, Y: 1.5}
		local := WorldToLocal(p, origin, rot)
		if back := LocalToWorld(local, origin, rot); !near(back, p) {
			t.Fatalf("rot %v: round trip %v -> %v -> %v", rot, p, local, back)
		}
	}
}

func TestSetParentKeepsWorldPoseAndEmits(t *testing.T) {
	w := NewWorld()
	a := addTransform(t, w, 0, 0, 0, 0)
	b := addTransform(t, w, 10, 10, math.Pi/2, 0)
	e := addTransform(t, w, 1, 0, 0, a)

	var events []*ParentChangedEvent
	w.Subscribe(EventParentChanged, func(w *World, evt Event) {
		events = append(events, evt.Data.(*ParentChangedEvent))
	})

	before, beforeRot, _ := WorldPositionRotation(w, e)
	if err := SetParent(w, e, b); err != nil {
		t.Fatalf("SetParent: %v", err)
	}
	after, afterRot, _ := WorldPositionRotation(w, e)
	if !near(before, after) || math.Abs(beforeRot-afterRot) > eps {
		t.Fatalf("world pose moved: %v/%v -> %v/%v", before, beforeRot, after, afterRot)
	}
	if err := SetParent(w, e, b); err != nil {
		t.Fatalf("SetParent same parent: %v", err)
	}

	w.Update(Tick{FirstTimePredicted: true})
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Entity != e || events[0].OldParent != a || events[0].NewParent != b {
		t.Fatalf("event = %+v", events[0])
	}
}
