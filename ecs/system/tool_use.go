package system

import (
	"log"
	"math"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
	"github.com/milk9111/shipgrapple/metrics"
)

// ToolUseRequest asks for a delayed tool action on Target. Completion is
// echoed back in the ToolUseCompletedEvent so the requester can recognise it.
type ToolUseRequest struct {
	Tool       ecs.Entity
	User       ecs.Entity
	Target     ecs.Entity
	Delay      float64 // seconds before tool speed is applied
	Quality    string
	Completion string
}

// ToolUseSystem runs delayed tool actions. The in-flight action lives on the
// target as a ToolUse component; removing it for any reason (finish, cancel,
// target destroyed) raises exactly one ToolUseCompletedEvent.
type ToolUseSystem struct{}

func NewToolUseSystem() *ToolUseSystem { return &ToolUseSystem{} }

// Register hooks the completion event to ToolUse removal and adds the system
// to w's schedule.
func (s *ToolUseSystem) Register(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	w.OnRemove(component.ToolUseComponent.Kind(), func(w *ecs.World, target ecs.Entity, value any) {
		use, ok := value.(*component.ToolUse)
		if !ok {
			return
		}
		result := "cancelled"
		if use.Finished {
			result = "finished"
		}
		metrics.ToolUse(result)
		w.Emit(ecs.EventToolUseCompleted, &ecs.ToolUseCompletedEvent{
			Tool:       ecs.Entity(use.Tool),
			User:       ecs.Entity(use.User),
			Target:     target,
			Completion: use.Completion,
			Cancelled:  !use.Finished,
		})
	})
	w.AddAuthoritativeSystem(s)
}

// UseTool starts a delayed tool action. It reports false, leaving no state
// behind, when the used entity is not a tool with the required quality or the
// target already has an action in flight.
func (s *ToolUseSystem) UseTool(w *ecs.World, req ToolUseRequest) bool {
	if w == nil || !w.IsAlive(req.Target) {
		return false
	}
	tool, ok := ecs.Get(w, req.Tool, component.ToolComponent)
	if !ok {
		metrics.ToolUse("no_tool")
		return false
	}
	if !tool.HasQuality(req.Quality) {
		metrics.ToolUse("wrong_quality")
		log.Printf("tool use: tool %s lacks quality %q for target %s", req.Tool, req.Quality, req.Target)
		return false
	}
	if ecs.Has(w, req.Target, component.ToolUseComponent) {
		metrics.ToolUse("busy")
		return false
	}

	speed := tool.SpeedModifier
	if speed <= 0 {
		speed = 1
	}
	delay := math.Max(0, req.Delay/speed)
	use := &component.ToolUse{
		Tool:       uint64(req.Tool),
		User:       uint64(req.User),
		Quality:    req.Quality,
		Completion: req.Completion,
		Remaining:  delay,
		Total:      delay,
	}
	if err := ecs.Add(w, req.Target, component.ToolUseComponent, use); err != nil {
		log.Printf("tool use: target %s: %v", req.Target, err)
		return false
	}
	metrics.ToolUse("started")
	return true
}

// CancelToolUse aborts the action in flight on target, if any.
func (s *ToolUseSystem) CancelToolUse(w *ecs.World, target ecs.Entity) bool {
	return ecs.Remove(w, target, component.ToolUseComponent)
}

// Update counts down every action in flight. Actions whose tool or user
// died are cancelled.
func (s *ToolUseSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Tick().Dt
	ecs.ForEach(w, component.ToolUseComponent, func(target ecs.Entity, use *component.ToolUse) {
		if !w.IsAlive(ecs.Entity(use.Tool)) || (use.User != 0 && !w.IsAlive(ecs.Entity(use.User))) {
			ecs.Remove(w, target, component.ToolUseComponent)
			return
		}
		use.Remaining -= dt
		if use.Remaining > 0 {
			return
		}
		use.Finished = true
		ecs.Remove(w, target, component.ToolUseComponent)
	})
}
