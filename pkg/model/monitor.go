package model

import (
	"sync"
	"time"
)

// SearchStats holds statistics about a search run
type SearchStats struct {
	Variables      int           // Number of variables in the model
	Nodes          uint64        // Tentative assignments performed
	Backtracks     uint64        // Assignments undone after a failed descent
	Checks         uint64        // Consistency checks performed
	MaxDepth       int           // Deepest assignment size reached
	SolutionsFound int           // Either 0 or 1 per run
	SearchTime     time.Duration // Wall-clock time spent in search
}

// SearchMonitor collects statistics while a search runs. It is safe for concurrent use, so the
// parallel engine's workers can share one. StartSearch clears the statistics, so after a run they
// describe that run only.
type SearchMonitor struct {
	mu        sync.Mutex
	stats     SearchStats
	startTime time.Time
}

func NewSearchMonitor() *SearchMonitor {
	return &SearchMonitor{}
}

// Stats returns a copy of the current statistics
func (monitor *SearchMonitor) Stats() SearchStats {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.stats
}

func (monitor *SearchMonitor) StartSearch(variables int) {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.stats = SearchStats{Variables: variables}
	monitor.startTime = time.Now()
}

func (monitor *SearchMonitor) FinishSearch() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	if !monitor.startTime.IsZero() {
		monitor.stats.SearchTime += time.Since(monitor.startTime)
		monitor.startTime = time.Time{}
	}
}

// RecordNode records a tentative assignment and returns the node count so far
func (monitor *SearchMonitor) RecordNode(depth int) uint64 {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.stats.Nodes++
	if depth > monitor.stats.MaxDepth {
		monitor.stats.MaxDepth = depth
	}
	return monitor.stats.Nodes
}

func (monitor *SearchMonitor) Nodes() uint64 {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.stats.Nodes
}

func (monitor *SearchMonitor) RecordBacktrack() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.stats.Backtracks++
}

func (monitor *SearchMonitor) RecordCheck() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.stats.Checks++
}

func (monitor *SearchMonitor) RecordSolution() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.stats.SolutionsFound++
}
