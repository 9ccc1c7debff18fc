package main

import (
	"sync"
	"time"
)

// FeedStats records the outcome of poller ticks so that a feed outage, which
// the poller otherwise absorbs, is visible on /api/health.
type FeedStats struct {
	mu                  sync.Mutex
	ticks               int64
	lastSuccess         time.Time
	lastError           string
	lastErrorAt         time.Time
	consecutiveFailures int
	lastRecords         int
	lastDropped         int
	lastRejected        int
}

type FeedStatsSnapshot struct {
	Ticks               int64     `json:"ticks"`
	LastSuccess         time.Time `json:"last_success"`
	LastError           string    `json:"last_error,omitempty"`
	LastErrorAt         time.Time `json:"last_error_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastRecords         int       `json:"last_records"`
	LastDropped         int       `json:"last_dropped"`
	LastRejected        int       `json:"last_rejected"`
}

func (s *FeedStats) tick() {
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
}

func (s *FeedStats) success(at time.Time, records, dropped, rejected int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSuccess = at
	s.consecutiveFailures = 0
	s.lastRecords = records
	s.lastDropped = dropped
	s.lastRejected = rejected
}

func (s *FeedStats) failure(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err.Error()
	s.lastErrorAt = at
	s.consecutiveFailures++
}

func (s *FeedStats) Snapshot() FeedStatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FeedStatsSnapshot{
		Ticks:               s.ticks,
		LastSuccess:         s.lastSuccess,
		LastError:           s.lastError,
		LastErrorAt:         s.lastErrorAt,
		ConsecutiveFailures: s.consecutiveFailures,
		LastRecords:         s.lastRecords,
		LastDropped:         s.lastDropped,
		LastRejected:        s.lastRejected,
	}
}
