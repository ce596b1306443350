package prefabs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// GrappleGunSpec is the tuning of a grapple gun. Unset fields keep the stock
// values.
type GrappleGunSpec struct {
	Name                  string   `yaml:"name"`
	ReelRate              *float64 `yaml:"reel_rate"`
	MinLength             *float64 `yaml:"min_length"`
	Slack                 *float64 `yaml:"slack"`
	Stiffness             *float64 `yaml:"stiffness"`
	GridSeparationPadding *float64 `yaml:"grid_separation_padding"`
	CutDelay              *float64 `yaml:"cut_delay"`
	CutQuality            string   `yaml:"cut_quality"`
}

func LoadGrappleGunSpec(filename string) (*GrappleGunSpec, error) {
	spec, err := LoadSpec[GrappleGunSpec](filename)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return &spec, nil
}

// Validate rejects tuning the grapple system cannot honour.
func (s *GrappleGunSpec) Validate() error {
	nonNegative := map[string]*float64{
		"reel_rate":  s.ReelRate,
		"min_length": s.MinLength,
		"slack":      s.Slack,
		"stiffness":  s.Stiffness,
		"cut_delay":  s.CutDelay,
	}
	for name, v := range nonNegative {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, *v)
		}
	}
	return nil
}

type ToolSpec struct {
	Name          string   `yaml:"name"`
	Qualities     []string `yaml:"qualities"`
	SpeedModifier float64  `yaml:"speed_modifier"`
}

func LoadToolSpec(filename string) (*ToolSpec, error) {
	spec, err := LoadSpec[ToolSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

type TransformSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
}

type GridSpec struct {
	Name         string        `yaml:"name"`
	Transform    TransformSpec `yaml:"transform"`
	Width        float64       `yaml:"width"`
	Height       float64       `yaml:"height"`
	Mass         float64       `yaml:"mass"`
	Static       bool          `yaml:"static"`
	BlockGrapple bool          `yaml:"block_grapple"`
	// Relay names a grid whose body is woken with this grid's joints.
	Relay        string        `yaml:"relay"`
}

type GunSpec struct {
	Name      string        `yaml:"name"`
	Grid      string        `yaml:"grid"`
	Prefab    string        `yaml:"prefab"`
	Transform TransformSpec `yaml:"transform"`
}

type ToolPlacementSpec struct {
	Name   string `yaml:"name"`
	Prefab string `yaml:"prefab"`
}

// ScenarioSpec lays out a world for the simulator: grids, guns mounted on
// them and loose tools.
type ScenarioSpec struct {
	Name  string              `yaml:"name"`
	Dt    float64             `yaml:"dt"`
	Grids []GridSpec          `yaml:"grids"`
	Guns  []GunSpec           `yaml:"guns"`
	Tools []ToolPlacementSpec `yaml:"tools"`
}

// LoadScenario reads a scenario from an explicit path, falling back to the
// embedded scenarios/ directory.
func LoadScenario(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		data, err = Load(path)
		if err != nil {
			return nil, fmt.Errorf("prefabs: load scenario %s: %w", path, err)
		}
	}
	var spec ScenarioSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal scenario %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: scenario %s: %w", path, err)
	}
	return &spec, nil
}

// Validate checks names are unique and guns reference declared grids.
func (s *ScenarioSpec) Validate() error {
	names := make(map[string]bool)
	grids := make(map[string]bool)
	add := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%s without a name", kind)
		}
		if names[name] {
			return fmt.Errorf("duplicate name %q", name)
		}
		names[name] = true
		return nil
	}
	for _, g := range s.Grids {
		if err := add("grid", g.Name); err != nil {
			return err
		}
		grids[g.Name] = true
	}
	for _, g := range s.Grids {
		if g.Relay == "" {
			continue
		}
		if g.Relay == g.Name {
			return fmt.Errorf("grid %q relays to itself", g.Name)
		}
		if !grids[g.Relay] {
			return fmt.Errorf("grid %q relays to unknown grid %q", g.Name, g.Relay)
		}
	}
	for _, g := range s.Guns {
		if err := add("gun", g.Name); err != nil {
			return err
		}
		if !grids[g.Grid] {
			return fmt.Errorf("gun %q mounted on unknown grid %q", g.Name, g.Grid)
		}
	}
	for _, t := range s.Tools {
		if err := add("tool", t.Name); err != nil {
			return err
		}
	}
	return nil
}
