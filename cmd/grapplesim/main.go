// Command grapplesim runs a grapple tether scenario headless: it builds the
// grids, guns and tools a scenario YAML declares, then drives them from a
// tengo script.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milk9111/shipgrapple/prefabs"
)

type config struct {
	scenario    string
	script      string
	ticks       int
	dt          float64
	watch       bool
	metricsAddr string
	linger      time.Duration
}

func main() {
	var cfg config
	flag.StringVar(&cfg.scenario, "scenario", "scenarios/duel.yaml", "scenario YAML (path, or name under prefabs/)")
	flag.StringVar(&cfg.script, "script", "duel.tengo", "tengo script under prefabs/scripts/")
	flag.IntVar(&cfg.ticks, "ticks", 0, "extra ticks to run after the script")
	flag.Float64Var(&cfg.dt, "dt", 0, "tick length in seconds (overrides the scenario)")
	flag.BoolVar(&cfg.watch, "watch", false, "reload gun tuning and rerun scripts edited under prefabs/")
	flag.StringVar(&cfg.metricsAddr, "metrics", "", "serve /metrics, /state and /changes on this address")
	flag.DurationVar(&cfg.linger, "linger", 0, "keep serving after the run finishes")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config) error {
	spec, err := prefabs.LoadScenario(cfg.scenario)
	if err != nil {
		return err
	}
	if cfg.dt > 0 {
		spec.Dt = cfg.dt
	}
	s, err := newSim(spec)
	if err != nil {
		return err
	}

	if cfg.metricsAddr != "" {
		hub := newChangeHub()
		s.onChanges = hub.publish
		go serveDebug(ctx, cfg.metricsAddr, newDebugRouter(s, hub))
	}

	if cfg.script != "" {
		if _, err := runScript(s, cfg.script); err != nil {
			return err
		}
	}
	if cfg.ticks > 0 {
		s.step(cfg.ticks)
	}
	log.Printf("grapplesim: %s finished at frame %d", spec.Name, s.frame)

	if cfg.watch {
		return watch(ctx, s, cfg)
	}
	if cfg.linger > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(cfg.linger):
		}
	}
	return nil
}
