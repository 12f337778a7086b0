package pipeline

import "sync"

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

func (s Status) IsTerminal() bool {
	return s == StatusError || s == StatusSuccess
}

// Snapshot is a copy of the run state at one moment.
type Snapshot struct {
	Status    Status
	Current   int
	Total     int
	Successes int
	Message   string
}

// runState is owned by one Pipeline. The loop writes it; display code may
// read it from another goroutine through snapshot.
type runState struct {
	mu    sync.Mutex
	state Snapshot
	// generation invalidates pending resets once a newer run starts
	generation int
}

func (s *runState) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// tryStart moves idle or terminal state to running. It fails while a run is
// in progress.
func (s *runState) tryStart() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status == StatusRunning {
		return 0, false
	}
	s.generation++
	s.state = Snapshot{Status: StatusRunning}
	return s.generation, true
}

func (s *runState) setTotal(total int) {
	s.mu.Lock()
	s.state.Total = total
	s.mu.Unlock()
}

func (s *runState) advance(current int, success bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Current = current
	if success {
		s.state.Successes++
	}
	return s.state
}

func (s *runState) finish(status Status, message string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = status
	s.state.Message = message
	return s.state
}

// reset returns a terminal state to idle unless a newer run has started.
func (s *runState) reset(generation int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == generation && s.state.Status.IsTerminal() {
		s.state = Snapshot{Status: StatusIdle}
	}
}
