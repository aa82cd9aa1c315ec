// ABOUTME: Refresh state machine states and the status report
// ABOUTME: Status is a point-in-time copy safe to serialize
package refresh

import "time"

// State is a refresh cycle stage
type State int

const (
	StateIdle State = iota
	StateCrawling
	StateChunking
	StateEmbedding
	StateIndexing
	StateSwapping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCrawling:
		return "crawling"
	case StateChunking:
		return "chunking"
	case StateEmbedding:
		return "embedding"
	case StateIndexing:
		return "indexing"
	case StateSwapping:
		return "swapping"
	}
	return "unknown"
}

// Status reports the coordinator and installed snapshot
type Status struct {
	State        string    `json:"state"`
	Ready        bool      `json:"ready"`
	Cycles       int       `json:"cycles"`
	Failures     int       `json:"failures"`
	LastSuccess  time.Time `json:"last_success"`
	LastError    string    `json:"last_error,omitempty"`
	LastDuration string    `json:"last_duration,omitempty"`
	Generation   string    `json:"generation,omitempty"`
	Chunks       int       `json:"chunks"`
	Dim          int       `json:"dim"`
	BuiltAt      time.Time `json:"built_at"`
}

// Status returns the current state and snapshot summary
func (c *Coordinator) Status() Status {
	c.statusMu.RLock()
	st := Status{
		State:       c.state.String(),
		Cycles:      c.cycles,
		Failures:    c.failures,
		LastSuccess: c.lastSuccess,
		LastError:   c.lastError,
	}
	if c.lastDuration > 0 {
		st.LastDuration = c.lastDuration.String()
	}
	c.statusMu.RUnlock()

	if snap, ok := c.holder.Current(); ok {
		st.Ready = true
		st.Generation = snap.Generation.String()
		st.Chunks = snap.Len()
		st.Dim = snap.Index.Dim()
		st.BuiltAt = snap.BuiltAt
	}
	return st
}
