package guardkit

import (
	"sync"
	"time"
)

// DecisionMetrics provides gate-evaluation and context-build
// statistics.
type DecisionMetrics struct {
	TotalDecisions   int64                  `json:"total_decisions"`
	Allowed          int64                  `json:"allowed"`
	Denied           int64                  `json:"denied"`
	DenialsByReason  map[DenialReason]int64 `json:"denials_by_reason"`
	ContextBuilds    int64                  `json:"context_builds"`
	AverageBuildTime time.Duration          `json:"average_build_time"`
	MaxBuildTime     time.Duration          `json:"max_build_time"`
	LastReset        time.Time              `json:"last_reset"`
}

// decisionRecorder holds the internal metric state.
type decisionRecorder struct {
	mu            sync.Mutex
	total         int64
	allowed       int64
	byReason      map[DenialReason]int64
	builds        int64
	buildDuration time.Duration
	maxBuild      time.Duration
	lastReset     time.Time
}

func newDecisionRecorder() *decisionRecorder {
	return &decisionRecorder{
		byReason:  make(map[DenialReason]int64),
		lastReset: time.Now(),
	}
}

func (r *decisionRecorder) recordDecision(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total++
	if d.Allowed {
		r.allowed++
		return
	}
	r.byReason[d.Reason]++
}

func (r *decisionRecorder) recordBuild(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builds++
	r.buildDuration += d
	if d > r.maxBuild {
		r.maxBuild = d
	}
}

func (r *decisionRecorder) snapshot() DecisionMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	byReason := make(map[DenialReason]int64, len(r.byReason))
	var denied int64
	for reason, n := range r.byReason {
		byReason[reason] = n
		denied += n
	}

	var avg time.Duration
	if r.builds > 0 {
		avg = r.buildDuration / time.Duration(r.builds)
	}

	return DecisionMetrics{
		TotalDecisions:   r.total,
		Allowed:          r.allowed,
		Denied:           denied,
		DenialsByReason:  byReason,
		ContextBuilds:    r.builds,
		AverageBuildTime: avg,
		MaxBuildTime:     r.maxBuild,
		LastReset:        r.lastReset,
	}
}

func (r *decisionRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = 0
	r.allowed = 0
	r.byReason = make(map[DenialReason]int64)
	r.builds = 0
	r.buildDuration = 0
	r.maxBuild = 0
	r.lastReset = time.Now()
}
