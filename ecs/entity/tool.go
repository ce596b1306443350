package entity

import (
	"fmt"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
	"github.com/milk9111/shipgrapple/prefabs"
)

func NewTool(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	spec, err := prefabs.LoadToolSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("tool: %w", err)
	}
	return NewToolFromSpec(w, spec)
}

func NewToolFromSpec(w *ecs.World, spec *prefabs.ToolSpec) (ecs.Entity, error) {
	if w == nil || spec == nil {
		return 0, fmt.Errorf("tool: world or spec is nil")
	}
	e := w.CreateEntity()
	tool := &component.Tool{
		Qualities:     append([]string(nil), spec.Qualities...),
		SpeedModifier: spec.SpeedModifier,
	}
	if err := ecs.Add(w, e, component.ToolComponent, tool); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("tool %q: %w", spec.Name, err)
	}
	return e, nil
}
