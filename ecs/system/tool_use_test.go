package system

import (
	"math"
	"testing"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
)

type toolFixture struct {
	w      *ecs.World
	tools  *ToolUseSystem
	target ecs.Entity
	done   []*ecs.ToolUseCompletedEvent
}

func newToolFixture(t *testing.T) *toolFixture {
	t.Helper()
	f := &toolFixture{w: ecs.NewWorld(), tools: NewToolUseSystem()}
	f.tools.Register(f.w)
	f.w.Subscribe(ecs.EventToolUseCompleted, func(w *ecs.World, evt ecs.Event) {
		f.done = append(f.done, evt.Data.(*ecs.ToolUseCompletedEvent))
	})
	f.target = f.w.CreateEntity()
	return f
}

func (f *toolFixture) addTool(t *testing.T, speed float64, qualities ...string) ecs.Entity {
	t.Helper()
	e := f.w.CreateEntity()
	mustAdd(t, ecs.Add(f.w, e, component.ToolComponent, &component.Tool{Qualities: qualities, SpeedModifier: speed}))
	return e
}

func (f *toolFixture) tick(dt float64) {
	f.w.Update(ecs.Tick{Dt: dt, FirstTimePredicted: true})
}

func TestUseToolRefusals(t *testing.T) {
	f := newToolFixture(t)
	knife := f.addTool(t, 1, "Slicing")
	rock := f.w.CreateEntity()

	cases := []struct {
		name string
		req  ToolUseRequest
		want bool
	}{
		{"not_a_tool", ToolUseRequest{Tool: rock, Target: f.target, Quality: "Slicing"}, false},
		{"wrong_quality", ToolUseRequest{Tool: knife, Target: f.target, Quality: "Welding"}, false},
		{"dead_target", ToolUseRequest{Tool: knife, Target: ecs.Entity(999), Quality: "Slicing"}, false},
		{"accepted", ToolUseRequest{Tool: knife, Target: f.target, Quality: "Slicing", Delay: 1}, true},
		{"busy", ToolUseRequest{Tool: knife, Target: f.target, Quality: "Slicing", Delay: 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := f.tools.UseTool(f.w, c.req); got != c.want {
				t.Fatalf("UseTool = %v, want %v", got, c.want)
			}
		})
	}
}

func TestToolUseSpeedModifierAndCompletion(t *testing.T) {
	cases := []struct {
		name  string
		speed float64
		ticks int // 0.25s ticks until completion
	}{
		{"normal", 1, 4},
		{"fast", 2, 2},
		{"zero_speed_is_normal", 0, 4},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newToolFixture(t)
			tool := f.addTool(t, c.speed, "Slicing")
			ok := f.tools.UseTool(f.w, ToolUseRequest{Tool: tool, Target: f.target, Delay: 1, Quality: "Slicing", Completion: "done"})
			if !ok {
				t.Fatalf("UseTool refused")
			}
			use, _ := ecs.Get(f.w, f.target, component.ToolUseComponent)
			want := 1.0
			if c.speed > 0 {
				want = 1 / c.speed
			}
			if math.Abs(use.Total-want) > eps {
				t.Fatalf("total = %v, want %v", use.Total, want)
			}

			for i := 1; i <= c.ticks; i++ {
				f.tick(0.25)
				if i < c.ticks && len(f.done) != 0 {
					t.Fatalf("completed early at tick %d", i)
				}
			}
			if len(f.done) != 1 {
				t.Fatalf("completion events = %d, want 1", len(f.done))
			}
			got := f.done[0]
			if got.Cancelled || got.Completion != "done" || got.Target != f.target || got.Tool != tool {
				t.Fatalf("completion = %+v", got)
			}
			if ecs.Has(f.w, f.target, component.ToolUseComponent) {
				t.Fatalf("tool use left on target")
			}
		})
	}
}

func TestToolUseCancellation(t *testing.T) {
	cases := []struct {
		name   string
		cancel func(f *toolFixture, tool, user ecs.Entity)
	}{
		{"explicit", func(f *toolFixture, _, _ ecs.Entity) { f.tools.CancelToolUse(f.w, f.target) }},
		{"tool_destroyed", func(f *toolFixture, tool, _ ecs.Entity) { f.w.DestroyEntity(tool) }},
		{"user_destroyed", func(f *toolFixture, _, user ecs.Entity) { f.w.DestroyEntity(user) }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newToolFixture(t)
			tool := f.addTool(t, 1, "Slicing")
			user := f.w.CreateEntity()
			f.tools.UseTool(f.w, ToolUseRequest{Tool: tool, User: user, Target: f.target, Delay: 1, Quality: "Slicing"})

			c.cancel(f, tool, user)
			f.tick(0.25)

			if len(f.done) != 1 || !f.done[0].Cancelled {
				t.Fatalf("expected one cancelled completion, got %+v", f.done)
			}
			for i := 0; i < 8; i++ {
				f.tick(0.25)
			}
			if len(f.done) != 1 {
				t.Fatalf("cancelled use must complete exactly once, got %d", len(f.done))
			}
		})
	}
}

func TestToolUsePausedOnPredictedTicks(t *testing.T) {
	f := newToolFixture(t)
	tool := f.addTool(t, 1, "Slicing")
	f.tools.UseTool(f.w, ToolUseRequest{Tool: tool, Target: f.target, Delay: 0.5, Quality: "Slicing"})

	for i := 0; i < 5; i++ {
		f.w.Update(ecs.Tick{Dt: 0.25, FirstTimePredicted: false})
	}
	use, ok := ecs.Get(f.w, f.target, component.ToolUseComponent)
	if !ok || use.Remaining != 0.5 {
		t.Fatalf("predicted ticks advanced the tool use: %+v", use)
	}
}
