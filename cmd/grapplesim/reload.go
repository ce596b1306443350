package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/milk9111/shipgrapple/prefabs"
)

const idleTickInterval = 100 * time.Millisecond

// watch keeps the simulation ticking and applies edits to prefabs on disk
// between ticks until ctx is done.
func watch(ctx context.Context, s *sim, cfg config) error {
	w, err := prefabs.NewWatcher(prefabs.Dir, filepath.Join(prefabs.Dir, "scripts"))
	if err != nil {
		return err
	}
	defer w.Close()

	ticker := time.NewTicker(idleTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors:
			log.Printf("grapplesim: watch: %v", err)
		case <-ticker.C:
			for _, c := range w.Poll() {
				applyChange(s, cfg, c)
			}
			s.step(1)
		}
	}
}

func applyChange(s *sim, cfg config, c prefabs.Change) {
	name := c.Name()
	switch c.Kind {
	case prefabs.ChangeSpec:
		n, err := s.reloadGunTuning(name)
		if err != nil {
			log.Printf("grapplesim: reload %s: %v", name, err)
			return
		}
		if n > 0 {
			log.Printf("grapplesim: reloaded %s on %d gun(s)", name, n)
		}
	case prefabs.ChangeScript:
		if filepath.Base(name) != filepath.Base(cfg.script) {
			return
		}
		if _, err := runScript(s, cfg.script); err != nil {
			log.Printf("grapplesim: rerun %s: %v", name, err)
		}
	}
}
