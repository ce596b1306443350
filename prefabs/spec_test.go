package prefabs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbeddedGrappleGunSpec(t *testing.T) {
	spec, err := LoadGrappleGunSpec("grapple_gun.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"reel_rate", spec.ReelRate, 8},
		{"min_length", spec.MinLength, 5},
		{"slack", spec.Slack, 2},
		{"stiffness", spec.Stiffness, 1},
		{"grid_separation_padding", spec.GridSeparationPadding, 0.5},
		{"cut_delay", spec.CutDelay, 1},
	}
	for _, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if spec.CutQuality != "Slicing" {
		t.Fatalf("cut_quality = %q", spec.CutQuality)
	}
}

func TestGrappleGunSpecValidate(t *testing.T) {
	neg := -1.0
	zero := 0.0
	cases := []struct {
		name    string
		spec    GrappleGunSpec
		wantErr string
	}{
		{"empty_is_valid", GrappleGunSpec{}, ""},
		{"zero_reel_is_valid", GrappleGunSpec{ReelRate: &zero}, ""},
		{"negative_reel", GrappleGunSpec{ReelRate: &neg}, "reel_rate"},
		{"negative_slack", GrappleGunSpec{Slack: &neg}, "slack"},
		{"negative_padding_allowed", GrappleGunSpec{GridSeparationPadding: &neg}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.spec.Validate()
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, c.wantErr)
			}
		})
	}
}

func TestDiskPrefabShadowsEmbedded(t *testing.T) {
	dir := t.TempDir()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })

	if err := os.WriteFile(filepath.Join(dir, "grapple_gun.yaml"), []byte("reel_rate: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	spec, err := LoadGrappleGunSpec("prefabs/grapple_gun.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.ReelRate == nil || *spec.ReelRate != 3 {
		t.Fatalf("reel_rate = %v, want disk value 3", spec.ReelRate)
	}
	if spec.Slack != nil {
		t.Fatalf("unset fields must stay nil, got slack %v", *spec.Slack)
	}
	if _, ok := ModTime("grapple_gun.yaml"); !ok {
		t.Fatalf("ModTime should see the disk copy")
	}
}

func TestLoadScenario(t *testing.T) {
	spec, err := LoadScenario("scenarios/duel.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.Name != "duel" || len(spec.Grids) != 4 || len(spec.Guns) != 1 || len(spec.Tools) != 2 {
		t.Fatalf("unexpected scenario: %+v", spec)
	}
	blocked := 0
	relays := map[string]string{}
	for _, g := range spec.Grids {
		if g.BlockGrapple {
			blocked++
		}
		if g.Relay != "" {
			relays[g.Name] = g.Relay
		}
	}
	if blocked != 1 {
		t.Fatalf("blocked grids = %d, want 1", blocked)
	}
	if relays["tug"] != "winch" || len(relays) != 1 {
		t.Fatalf("relays = %v, want tug -> winch", relays)
	}
}

func TestScenarioValidate(t *testing.T) {
	cases := []struct {
		name    string
		spec    ScenarioSpec
		wantErr string
	}{
		{"ok", ScenarioSpec{
			Grids: []GridSpec{{Name: "a"}, {Name: "b"}},
			Guns:  []GunSpec{{Name: "g", Grid: "a"}},
		}, ""},
		{"unknown_grid", ScenarioSpec{
			Grids: []GridSpec{{Name: "a"}},
			Guns:  []GunSpec{{Name: "g", Grid: "z"}},
		}, "unknown grid"},
		{"duplicate", ScenarioSpec{
			Grids: []GridSpec{{Name: "a"}},
			Tools: []ToolPlacementSpec{{Name: "a"}},
		}, "duplicate"},
		{"unnamed", ScenarioSpec{Grids: []GridSpec{{}}}, "without a name"},
		{"relay", ScenarioSpec{
			Grids: []GridSpec{{Name: "a", Relay: "b"}, {Name: "b"}},
		}, ""},
		{"unknown_relay", ScenarioSpec{
			Grids: []GridSpec{{Name: "a", Relay: "z"}},
		}, "unknown grid"},
		{"self_relay", ScenarioSpec{
			Grids: []GridSpec{{Name: "a", Relay: "a"}},
		}, "relays to itself"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.spec.Validate()
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("error = %v, want %q", err, c.wantErr)
			}
		})
	}
}

func TestLoadScriptPaths(t *testing.T) {
	for _, name := range []string{"duel.tengo", "scripts/duel.tengo", "prefabs/scripts/duel.tengo"} {
		src, err := LoadScript(name)
		if err != nil {
			t.Fatalf("LoadScript(%q): %v", name, err)
		}
		if !strings.Contains(string(src), "engine.fire") {
			t.Fatalf("LoadScript(%q) returned unexpected source", name)
		}
	}
}

func TestChangeClassification(t *testing.T) {
	cases := []struct {
		path string
		kind ChangeKind
		ok   bool
	}{
		{"prefabs/grapple_gun.yaml", ChangeSpec, true},
		{"prefabs/x.YML", ChangeSpec, true},
		{"prefabs/scripts/duel.tengo", ChangeScript, true},
		{"prefabs/notes.txt", 0, false},
	}
	for _, c := range cases {
		kind, ok := classify(c.path)
		if ok != c.ok || (ok && kind != c.kind) {
			t.Fatalf("classify(%q) = %v %v", c.path, kind, ok)
		}
	}

	old := Dir
	Dir = "prefabs"
	t.Cleanup(func() { Dir = old })
	if got := (Change{Path: filepath.Join("prefabs", "scripts", "duel.tengo")}).Name(); got != "scripts/duel.tengo" {
		t.Fatalf("Name = %q", got)
	}
}
