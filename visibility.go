package main

import "sync/atomic"

// Visibility is the foreground/background flag of the consuming application.
// Writers are lifecycle hooks (the HTTP endpoint, the websocket hub); the poller
// samples it once per tick.
type Visibility struct {
	visible atomic.Bool
}

func NewVisibility(initial bool) *Visibility {
	v := &Visibility{}
	v.visible.Store(initial)
	return v
}

func (v *Visibility) Visible() bool { return v.visible.Load() }

// Set stores the flag and reports whether it changed.
func (v *Visibility) Set(visible bool) bool {
	return v.visible.Swap(visible) != visible
}
