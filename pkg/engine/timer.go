package engine

import "github.com/raftsim/core/pkg/raft"

// TimerBroker holds each node's clock offset and its next scheduled
// deadline. Grounded on the electionTimeout/lastHeartbeat bookkeeping in the
// upstream pkg/raft/state.go, pulled out into a standalone broker because
// timers here are environment state the engine owns, not state a node arms
// directly against a real clock.
type TimerBroker struct {
	offsets   map[raft.NodeID]int
	deadlines map[raft.NodeID]*int64
}

func NewTimerBroker(clusterSize int) *TimerBroker {
	t := &TimerBroker{
		offsets:   make(map[raft.NodeID]int),
		deadlines: make(map[raft.NodeID]*int64),
	}
	for i := 0; i < clusterSize; i++ {
		t.offsets[raft.NodeID(i)] = 0
	}
	return t
}

// SetTimeout arms node's deadline, baking in its current offset.
func (t *TimerBroker) SetTimeout(node raft.NodeID, now int64, ms int) {
	deadline := now + int64(t.offsets[node]) + int64(ms)
	t.deadlines[node] = &deadline
}

// ClearTimer disarms node's deadline.
func (t *TimerBroker) ClearTimer(node raft.NodeID) {
	t.deadlines[node] = nil
}

// ClockSkew adjusts node's offset by amount. Unbounded: a sufficiently large
// positive or negative skew is exactly what the clock-skew boundary property
// exercises.
func (t *TimerBroker) ClockSkew(node raft.NodeID, amount int) {
	t.offsets[node] += amount
}

// HealTimer resets every node's offset to zero; armed deadlines are left as
// they are, since they represent real pending work, not adversarial state.
func (t *TimerBroker) HealTimer() {
	for id := range t.offsets {
		t.offsets[id] = 0
	}
}

// Fires reports whether node's timer has passed as of now, given its offset.
// Firing does not disarm the timer — the node's own handler is responsible
// for re-arming via SetTimeout.
func (t *TimerBroker) Fires(node raft.NodeID, now int64) bool {
	deadline := t.deadlines[node]
	if deadline == nil {
		return false
	}
	return now+int64(t.offsets[node]) > *deadline
}
