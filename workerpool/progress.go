package workerpool

import (
	"sync"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/go-logging"
)

var log = logging.MustGetLogger("cdbg")

// ProgressTracker logs a message each time the completed fraction of
// some workload crosses a new integer percentage point. Safe for
// concurrent use by multiple worker goroutines; each only pays the lock
// cost when its own chunk is large enough to plausibly move the
// percentage (smaller chunks are dropped: neither counted nor logged).
type ProgressTracker struct {
	mu        sync.Mutex
	total     uint64
	done      uint64
	lastPct   int
	threshold uint64
	label     string
}

// NewProgressTracker sets up a tracker for total units of work, reporting
// under label. A chunk update smaller than threshold is ignored: it is
// not added to the running count and never triggers a log line, which
// bounds how often the lock is taken under heavy contention.
func NewProgressTracker(total uint64, threshold uint64, label string) *ProgressTracker {
	if threshold == 0 {
		threshold = 1
	}
	return &ProgressTracker{total: total, threshold: threshold, label: label, lastPct: -1}
}

// Track records that chunkSize more units of work completed, logging a
// new tick if the running percentage advanced.
func (p *ProgressTracker) Track(chunkSize uint64) {
	if chunkSize < p.threshold {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += chunkSize
	if p.total == 0 {
		return
	}
	pct := int((p.done * 100) / p.total)
	if pct > p.lastPct {
		p.lastPct = pct
		log.Infof("[%s]\t%d%% (%s/%s)", p.label, pct, humanize.Comma(int64(p.done)), humanize.Comma(int64(p.total)))
	}
}

// Done logs a final 100% tick unconditionally, used when the workload's
// true completion can't be inferred purely from Track chunk sizes (e.g.
// the last worker to finish doesn't know it was last).
func (p *ProgressTracker) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastPct < 100 {
		p.lastPct = 100
		log.Infof("[%s]\t100%% (%s/%s)", p.label, humanize.Comma(int64(p.total)), humanize.Comma(int64(p.total)))
	}
}
