// Package sched implements the cooperative, ticket-weighted kernel
// scheduler described in spec.md §4.2. Concurrency here is coarse-grained:
// a handful of driver helper tasks and the user-mode trampoline take turns
// by voluntarily calling Schedule; there is no preemption and no
// parallelism (spec.md §7 "single-threaded cooperative").
package sched

// Task is one schedulable kernel task (spec.md §3 "Task (kernel)").
type Task struct {
	ID       int
	Tickets  int
	Active   bool
	stackPtr uintptr
}

// Scheduler holds the task set and the deterministic RNG the ticket
// lottery draws from.
type Scheduler struct {
	tasks   []*Task
	running *Task
	rng     *lcg
}

// New builds a scheduler seeded deterministically, so that (per spec.md §8
// invariant 5) the same task set and seed always produce the same
// selection sequence.
func New(seed uint64) *Scheduler {
	return &Scheduler{rng: newLCG(seed)}
}

// Spawn creates a task whose stack is pre-initialized to jump into entry
// at kernel privilege the first time it is scheduled, and adds it to the
// active set.
func (s *Scheduler) Spawn(entry uintptr, tickets int, stackRegion []byte, codeSelector uint16) *Task {
	t := &Task{
		ID:       len(s.tasks),
		Tickets:  tickets,
		Active:   true,
		stackPtr: InitStack(stackRegion, entry, codeSelector),
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Terminate marks t inactive; it is no longer a lottery candidate and is
// never resumed.
func (s *Scheduler) Terminate(t *Task) {
	t.Active = false
	if s.running == t {
		s.running = nil
	}
}

// Schedule persists currentSP as the outgoing (currently running) task's
// saved stack pointer, runs one ticket-weighted lottery draw over the
// active task set, and returns the winner's saved stack pointer. The
// caller is expected to switch RSP to the returned value and fall through
// to the standard interrupt-frame epilogue (spec.md §4.2).
//
// If no task is active, Schedule returns currentSP unchanged (spec.md
// §4.2 "Failure").
func (s *Scheduler) Schedule(currentSP uintptr) uintptr {
	if s.running != nil {
		s.running.stackPtr = currentSP
	}

	winner := s.selectWinner()
	if winner == nil {
		return currentSP
	}
	s.running = winner
	return winner.stackPtr
}

// selectWinner draws a uniform integer in [0, total_tickets) and walks the
// active tasks in order, accumulating tickets, returning the first whose
// running sum exceeds the draw. Ties (impossible with positive ticket
// counts, but the walk order guarantees it regardless) resolve to the
// lowest index.
func (s *Scheduler) selectWinner() *Task {
	total := 0
	for _, t := range s.tasks {
		if t.Active {
			total += t.Tickets
		}
	}
	if total == 0 {
		return nil
	}

	draw := s.rng.next(uint64(total))
	sum := uint64(0)
	for _, t := range s.tasks {
		if !t.Active {
			continue
		}
		sum += uint64(t.Tickets)
		if sum > draw {
			return t
		}
	}
	// Unreachable given draw < total, but guards against a rounding
	// surprise by falling back to the last active task instead of
	// panicking mid-schedule.
	for i := len(s.tasks) - 1; i >= 0; i-- {
		if s.tasks[i].Active {
			return s.tasks[i]
		}
	}
	return nil
}
