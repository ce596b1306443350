package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/shipgrapple/ecs/component"
)

type testHealth struct{ HP int }
type testTag struct{}

var (
	testHealthComponent = component.NewComponent[testHealth]()
	testTagComponent    = component.NewComponent[testTag]()
)

func TestSparseWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, w.CreateEntity())
			}
			if w.EntityCount() != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, w.EntityCount())
			}
			if c.destroyIndex >= 0 {
				if !w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if w.IsAlive(ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return false for a dead entity")
				}
			}
		})
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	if err := Add(w, a, testHealthComponent, &testHealth{HP: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}
	w.DestroyEntity(a)

	b := w.CreateEntity()
	if a.id() != b.id() {
		t.Fatalf("expected slot reuse, got ids %d and %d", a.id(), b.id())
	}
	if a == b {
		t.Fatalf("reused slot must carry a new generation")
	}
	if w.IsAlive(a) {
		t.Fatalf("stale handle reported alive")
	}
	if Has(w, b, testHealthComponent) {
		t.Fatalf("components must not survive slot reuse")
	}
	if err := Add(w, a, testHealthComponent, &testHealth{}); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive, got %v", err)
	}
}

func TestComponentAddGetRemove(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()

	if err := Add(w, e, testHealthComponent, nil); !errors.Is(err, component.ErrNilComponent) {
		t.Fatalf("expected ErrNilComponent, got %v", err)
	}
	if err := Add(w, e, testHealthComponent, &testHealth{HP: 5}); err != nil {
		t.Fatalf("add: %v", err)
	}
	h, ok := Get(w, e, testHealthComponent)
	if !ok || h.HP != 5 {
		t.Fatalf("get = %+v, %v", h, ok)
	}
	h.HP = 2
	if h2, _ := Get(w, e, testHealthComponent); h2.HP != 2 {
		t.Fatalf("Get must return the stored pointer")
	}

	ensured, err := Ensure(w, e, testTagComponent)
	if err != nil || ensured == nil {
		t.Fatalf("ensure: %v", err)
	}
	again, _ := Ensure(w, e, testTagComponent)
	if again != ensured {
		t.Fatalf("Ensure must return the existing component")
	}

	if !Remove(w, e, testHealthComponent) {
		t.Fatalf("remove should report true")
	}
	if Remove(w, e, testHealthComponent) {
		t.Fatalf("second remove should report false")
	}
	if Has(w, e, testHealthComponent) {
		t.Fatalf("component still present after remove")
	}
}

func TestRemoveHooks(t *testing.T) {
	cases := []struct {
		name    string
		destroy bool
	}{
		{"remove_component", false},
		{"destroy_entity", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			e := w.CreateEntity()
			_ = Add(w, e, testHealthComponent, &testHealth{HP: 7})
			_ = Add(w, e, testTagComponent, &testTag{})

			var calls int
			var seen int
			w.OnRemove(testHealthComponent.Kind(), func(w *World, got Entity, value any) {
				calls++
				if got != e {
					t.Fatalf("hook entity = %s, want %s", got, e)
				}
				if h, ok := value.(*testHealth); ok {
					seen = h.HP
				}
				// The entity is still alive while its hooks run.
				if !w.IsAlive(got) {
					t.Fatalf("entity dead inside remove hook")
				}
				// Removing siblings from inside a destroy hook must not recurse.
				Remove(w, got, testTagComponent)
			})

			if c.destroy {
				w.DestroyEntity(e)
			} else {
				Remove(w, e, testHealthComponent)
			}
			if calls != 1 {
				t.Fatalf("hook calls = %d, want 1", calls)
			}
			if seen != 7 {
				t.Fatalf("hook saw HP %d, want 7", seen)
			}
		})
	}
}

func TestQueryIntersectsInSlotOrder(t *testing.T) {
	w := NewWorld()
	var both []Entity
	for i := 0; i < 6; i++ {
		e := w.CreateEntity()
		_ = Add(w, e, testHealthComponent, &testHealth{HP: i})
		if i%2 == 0 {
			_ = Add(w, e, testTagComponent, &testTag{})
			both = append(both, e)
		}
	}

	got := w.Query(testHealthComponent.Kind(), testTagComponent.Kind())
	if len(got) != len(both) {
		t.Fatalf("query returned %d entities, want %d", len(got), len(both))
	}
	for i := range both {
		if got[i] != both[i] {
			t.Fatalf("query[%d] = %s, want %s", i, got[i], both[i])
		}
	}

	first, ok := w.First(testTagComponent.Kind())
	if !ok || first != both[0] {
		t.Fatalf("First = %s, %v", first, ok)
	}

	var sum int
	ForEach(w, testHealthComponent, func(_ Entity, h *testHealth) { sum += h.HP })
	if sum != 0+1+2+3+4+5 {
		t.Fatalf("ForEach sum = %d", sum)
	}
}

func TestMarkChangedCollapsesDuplicates(t *testing.T) {
	w := NewWorld()
	w.Update(Tick{Frame: 4, FirstTimePredicted: true})
	e := w.CreateEntity()

	w.MarkChanged(e, testHealthComponent.Kind())
	w.MarkChanged(e, testHealthComponent.Kind())
	w.MarkChanged(e, testTagComponent.Kind())
	w.MarkChanged(0, testTagComponent.Kind())

	changes := w.DrainChanges()
	if len(changes) != 2 {
		t.Fatalf("changes = %+v, want 2 entries", changes)
	}
	if changes[0].Frame != 4 || changes[0].Entity != e {
		t.Fatalf("unexpected change %+v", changes[0])
	}
	if changes[0].Component != testHealthComponent.Kind().Name() {
		t.Fatalf("component name = %q", changes[0].Component)
	}
	if len(w.DrainChanges()) != 0 {
		t.Fatalf("drain must clear the log")
	}
}
