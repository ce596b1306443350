package ecs

type scheduledSystem struct {
	system        System
	authoritative bool
}

// Scheduler runs systems in registration order. Systems added with
// AddAuthoritative are skipped on predicted re-simulation passes.
type Scheduler struct {
	systems []scheduledSystem
}

func NewScheduler(systems ...System) *Scheduler {
	s := &Scheduler{}
	for _, system := range systems {
		s.Add(system)
	}
	return s
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, scheduledSystem{system: system})
}

func (s *Scheduler) AddAuthoritative(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, scheduledSystem{system: system, authoritative: true})
}

func (s *Scheduler) Update(w *World, tick Tick) {
	for _, entry := range s.systems {
		if entry.authoritative && !tick.FirstTimePredicted {
			continue
		}
		entry.system.Update(w)
		w.dispatch()
	}
}

func (s *Scheduler) Systems() []System {
	systems := make([]System, 0, len(s.systems))
	for _, entry := range s.systems {
		systems = append(systems, entry.system)
	}
	return systems
}
