package main

import (
	"sort"
	"sync"
)

// Store maps vehicle ids to their recent track. It is written by the poller and
// read by everything else through Snapshot and Latest.
type Store struct {
	maxHistory int

	mu       sync.RWMutex
	vehicles map[string]*Vehicle
}

// MergeStats counts what a single Merge did.
type MergeStats struct {
	Created int
	Moved   int
}

func NewStore(maxHistory int) *Store {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &Store{
		maxHistory: maxHistory,
		vehicles:   make(map[string]*Vehicle),
	}
}

// Merge folds a batch of validated records into the store. The whole batch is
// applied under one write lock so readers see either none or all of it.
func (s *Store) Merge(batch []RawRecord) MergeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st MergeStats
	for _, rec := range batch {
		v, ok := s.vehicles[rec.ID]
		if !ok {
			v = &Vehicle{ID: rec.ID}
			s.vehicles[rec.ID] = v
			st.Created++
		}
		v.Line = rec.LineName
		v.LastUpdate = rec.LastUpdate
		if s.push(v, rec.position()) && ok {
			st.Moved++
		}
	}
	return st
}

// push appends p unless it repeats the last entry, then trims from the oldest end.
func (s *Store) push(v *Vehicle, p Position) bool {
	if n := len(v.History); n > 0 && v.History[n-1] == p {
		return false
	}
	v.History = append(v.History, p)
	if extra := len(v.History) - s.maxHistory; extra > 0 {
		// copy down so the backing array does not grow without bound
		v.History = append(v.History[:0], v.History[extra:]...)
	}
	return true
}

// Clear drops every vehicle.
func (s *Store) Clear() {
	s.mu.Lock()
	s.vehicles = make(map[string]*Vehicle)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles)
}

// Snapshot returns a deep copy of the store.
func (s *Store) Snapshot() map[string]Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Vehicle, len(s.vehicles))
	for id, v := range s.vehicles {
		cp := *v
		cp.History = v.Positions()
		out[id] = cp
	}
	return out
}

// Latest returns the newest position of every vehicle.
func (s *Store) Latest() map[string]LatestPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]LatestPosition, len(s.vehicles))
	for id, v := range s.vehicles {
		out[id] = latestOf(*v)
	}
	return out
}

func latestOf(v Vehicle) LatestPosition {
	p := v.Position()
	return LatestPosition{ID: v.ID, Line: v.Line, Lat: p.Lat, Lon: p.Lon}
}

// sortedVehicles and sortedLatest give the HTTP and websocket output a stable order.
func sortedVehicles(m map[string]Vehicle) []Vehicle {
	out := make([]Vehicle, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedLatest(m map[string]LatestPosition) []LatestPosition {
	out := make([]LatestPosition, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
