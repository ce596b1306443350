package main

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/shipgrapple/prefabs"
)

// runScript compiles a tengo scenario script and runs it against s. The
// script drives the simulation through the `engine` map; its globals are
// readable from the returned Compiled.
func runScript(s *sim, name string) (*tengo.Compiled, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}

	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	if err := script.Add("engine", buildScriptEngine(s)); err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("script %s: compile: %w", name, err)
	}
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("script %s: run: %w", name, err)
	}
	return compiled, nil
}

func buildScriptEngine(s *sim) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["fire"] = &tengo.UserFunction{Name: "fire", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		gun, ok1 := tengo.ToString(args[0])
		target, ok2 := tengo.ToString(args[1])
		x, ok3 := tengo.ToFloat64(args[2])
		y, ok4 := tengo.ToFloat64(args[3])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, tengo.ErrInvalidArgumentType{Name: "fire", Expected: "string, string, float, float"}
		}
		return errorOrTrue(s.fire(gun, target, x, y)), nil
	}}

	values["tick"] = &tengo.UserFunction{Name: "tick", Value: func(args ...tengo.Object) (tengo.Object, error) {
		n := 1
		if len(args) > 0 {
			v, ok := tengo.ToInt(args[0])
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "n", Expected: "int"}
			}
			n = v
		}
		s.step(n)
		return tengo.UndefinedValue, nil
	}}

	values["cut"] = &tengo.UserFunction{Name: "cut", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		tool, ok1 := tengo.ToString(args[0])
		gun, ok2 := tengo.ToString(args[1])
		if !ok1 || !ok2 {
			return nil, tengo.ErrInvalidArgumentType{Name: "cut", Expected: "string, string"}
		}
		_, err := s.cut(tool, gun)
		return errorOrTrue(err), nil
	}}

	values["set_parent"] = &tengo.UserFunction{Name: "set_parent", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, ok1 := tengo.ToString(args[0])
		parent, ok2 := tengo.ToString(args[1])
		if !ok1 || !ok2 {
			return nil, tengo.ErrInvalidArgumentType{Name: "set_parent", Expected: "string, string"}
		}
		return errorOrTrue(s.setParent(name, parent)), nil
	}}

	values["destroy"] = &tengo.UserFunction{Name: "destroy", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, ok := tengo.ToString(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "name", Expected: "string"}
		}
		return errorOrTrue(s.destroy(name)), nil
	}}

	values["state"] = &tengo.UserFunction{Name: "state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, ok := tengo.ToString(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "name", Expected: "string"}
		}
		st := s.gunState(name)
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"alive":      boolObject(st.Alive),
			"attached":   boolObject(st.Attached),
			"target":     &tengo.String{Value: st.Target},
			"max_length": &tengo.Float{Value: st.MaxLength},
			"min_length": &tengo.Float{Value: st.MinLength},
			"length":     &tengo.Float{Value: st.Length},
			"cutting":    boolObject(st.Cutting),
		}}, nil
	}}

	values["frame"] = &tengo.UserFunction{Name: "frame", Value: func(args ...tengo.Object) (tengo.Object, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return &tengo.Int{Value: s.frame}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

// errorOrTrue turns a Go error into a tengo error value the script can test
// with is_error.
func errorOrTrue(err error) tengo.Object {
	if err != nil {
		return &tengo.Error{Value: &tengo.String{Value: err.Error()}}
	}
	return tengo.TrueValue
}
