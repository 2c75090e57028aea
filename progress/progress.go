package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viant/phaser/internal/clock"
)

// Counters holds job counters.
type Counters struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Pending returns jobs neither started nor finished.
func (c Counters) Pending() int {
	return c.Total - c.Running - c.Completed - c.Failed
}

func (c *Counters) add(d Counters) {
	c.Total += d.Total
	c.Running += d.Running
	c.Completed += d.Completed
	c.Failed += d.Failed
}

// Delta is a signed counter change of one phase; Opened counts phase runs.
type Delta struct {
	Phase  string
	Jobs   Counters
	Opened int
}

// Snapshot is a point in time copy of a tracker.
type Snapshot struct {
	BatchID   string              `json:"batchId"`
	StartedAt time.Time           `json:"startedAt"`
	Jobs      Counters            `json:"jobs"`
	PhaseRuns int                 `json:"phaseRuns"`
	Phases    map[string]Counters `json:"phases,omitempty"`
}

// PhaseNames returns the phases with counters, sorted.
func (s Snapshot) PhaseNames() []string {
	ret := make([]string, 0, len(s.Phases))
	for name := range s.Phases {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Progress aggregates job counters of a batch run overall and per phase. It
// is safe for concurrent use; a nil Progress ignores updates.
type Progress struct {
	mux      sync.Mutex
	state    Snapshot
	onChange func(Snapshot)
}

// New creates a tracker; onChange may be nil.
func New(batchID string, onChange func(Snapshot)) *Progress {
	return &Progress{
		state:    Snapshot{BatchID: batchID, StartedAt: clock.Now(), Phases: map[string]Counters{}},
		onChange: onChange,
	}
}

// Update applies d and calls the change callback outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.state.Jobs.add(d.Jobs)
	p.state.PhaseRuns += d.Opened
	if d.Phase != "" {
		counters := p.state.Phases[d.Phase]
		counters.add(d.Jobs)
		p.state.Phases[d.Phase] = counters
	}
	snapshot := p.snapshot()
	onChange := p.onChange
	p.mux.Unlock()
	if onChange != nil {
		onChange(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.snapshot()
}

// OnChange replaces the change callback; nil disables it.
func (p *Progress) OnChange(onChange func(Snapshot)) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.onChange = onChange
	p.mux.Unlock()
}

func (p *Progress) snapshot() Snapshot {
	ret := p.state
	ret.Phases = make(map[string]Counters, len(p.state.Phases))
	for name, counters := range p.state.Phases {
		ret.Phases[name] = counters
	}
	return ret
}

type trackerKey struct{}

// WithNewTracker creates a tracker and returns it with a derived context
// carrying it.
func WithNewTracker(ctx context.Context, batchID string, onChange func(Snapshot)) (context.Context, *Progress) {
	ret := New(batchID, onChange)
	return context.WithValue(ctx, trackerKey{}, ret), ret
}

// FromContext returns the tracker carried by ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	ret, ok := ctx.Value(trackerKey{}).(*Progress)
	return ret, ok
}

// UpdateContext applies d to the tracker carried by ctx, if any.
func UpdateContext(ctx context.Context, d Delta) {
	if tracker, ok := FromContext(ctx); ok {
		tracker.Update(d)
	}
}
