package scanner

import (
	"sync"
	"time"
)

// Scan phases.
const (
	PhaseIdle      = "idle"
	PhaseIndexing  = "indexing"
	PhaseEnriching = "enriching"
)

// maxErrorLog caps the retained per-scan error messages.
const maxErrorLog = 100

// State is an immutable snapshot of scan progress, safe to hand to
// HTTP handlers.
type State struct {
	Running       bool       `json:"running"`
	Phase         string     `json:"phase"`
	ScanID        int64      `json:"scan_id,omitempty"`
	FilesScanned  int64      `json:"files_scanned"`
	FilesAdded    int64      `json:"files_added"`
	FilesUpdated  int64      `json:"files_updated"`
	FilesRemoved  int64      `json:"files_removed"`
	FilesEnriched int64      `json:"files_enriched"`
	Errors        int64      `json:"errors"`
	CurrentSource string     `json:"current_source,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	ErrorLog      []string   `json:"error_log,omitempty"`
}

// tracker is the mutable progress state behind a mutex.
type tracker struct {
	mu    sync.Mutex
	state State
}

func (t *tracker) snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state
	s.ErrorLog = append([]string(nil), t.state.ErrorLog...)
	return s
}

func (t *tracker) begin(scanID int64, startedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{
		Running:   true,
		Phase:     PhaseIndexing,
		ScanID:    scanID,
		StartedAt: &startedAt,
	}
}

func (t *tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Running = false
	t.state.Phase = PhaseIdle
	t.state.CurrentSource = ""
}

func (t *tracker) setPhase(phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = phase
}

func (t *tracker) setSource(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.CurrentSource = label
}

func (t *tracker) addScanned(n int64)  { t.add(func(s *State) { s.FilesScanned += n }) }
func (t *tracker) addAdded(n int64)    { t.add(func(s *State) { s.FilesAdded += n }) }
func (t *tracker) addUpdated(n int64)  { t.add(func(s *State) { s.FilesUpdated += n }) }
func (t *tracker) addRemoved(n int64)  { t.add(func(s *State) { s.FilesRemoved += n }) }
func (t *tracker) addEnriched(n int64) { t.add(func(s *State) { s.FilesEnriched += n }) }

func (t *tracker) add(fn func(*State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.state)
}

// addError counts an error and appends its message, keeping only the most
// recent entries.
func (t *tracker) addError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Errors++
	t.state.ErrorLog = append(t.state.ErrorLog, msg)
	if len(t.state.ErrorLog) > maxErrorLog {
		t.state.ErrorLog = t.state.ErrorLog[len(t.state.ErrorLog)-maxErrorLog:]
	}
}
