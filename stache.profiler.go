package stache

import (
	"sort"
	"sync"
	"time"
)

// Profiler receives start and end marks around rendering phases. The labels
// are ProfilerLabelMain, ProfilerLabelConditional, ProfilerLabelLoop and
// ProfilerLabelSingles. Implementations shared between engines used from
// several goroutines must be safe for concurrent use.
type Profiler interface {
	Start(label string)
	End(label string)
}

// NopProfiler discards all marks.
type NopProfiler struct{}

// Start implements Profiler.
func (NopProfiler) Start(string) {}

// End implements Profiler.
func (NopProfiler) End(string) {}

// PhaseStat is the accumulated timing of one label.
type PhaseStat struct {
	Label string
	Count int
	Total time.Duration
}

// PhaseTimer is a Profiler that accumulates call counts and wall time per
// label. Phases of the same label may nest (a conditional inside a
// conditional); each Start is paired with the most recent open Start.
type PhaseTimer struct {
	mu    sync.Mutex
	open  map[string][]time.Time
	stats map[string]*PhaseStat
	now   func() time.Time
}

// NewPhaseTimer creates an empty PhaseTimer.
func NewPhaseTimer() *PhaseTimer {
	return &PhaseTimer{
		open:  make(map[string][]time.Time),
		stats: make(map[string]*PhaseStat),
		now:   time.Now,
	}
}

// Start implements Profiler.
func (p *PhaseTimer) Start(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open[label] = append(p.open[label], p.now())
}

// End implements Profiler. An End without a matching Start is ignored.
func (p *PhaseTimer) End(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	starts := p.open[label]
	if len(starts) == 0 {
		return
	}
	started := starts[len(starts)-1]
	p.open[label] = starts[:len(starts)-1]

	stat, ok := p.stats[label]
	if !ok {
		stat = &PhaseStat{Label: label}
		p.stats[label] = stat
	}
	stat.Count++
	stat.Total += p.now().Sub(started)
}

// Snapshot returns the stats recorded so far, sorted by label.
func (p *PhaseTimer) Snapshot() []PhaseStat {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PhaseStat, 0, len(p.stats))
	for _, stat := range p.stats {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Reset discards all recorded stats and open phases.
func (p *PhaseTimer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = make(map[string][]time.Time)
	p.stats = make(map[string]*PhaseStat)
}
