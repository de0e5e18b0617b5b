package engine

import "github.com/raftsim/core/pkg/raft"

type edge struct {
	from, to raft.NodeID
}

// NetworkBroker models the connectivity graph between cluster members:
// which directed edges exist, how much extra delay each adds, and how many
// duplicate deliveries each produces. It is mutated only by event handlers
// dispatched from the engine, grounded on the partition/delay bookkeeping in
// pkg/simulation/network.go — rebuilt here from that file's probabilistic
// drop-rate model into a deterministic edge-set model.
type NetworkBroker struct {
	clusterSize int
	connections map[edge]bool
	delays      map[edge]int
	duplicates  map[edge]int
}

// NewNetworkBroker returns a fully connected network (minus self-loops) with
// zero delay and zero duplication on every edge — the healthy initial state.
func NewNetworkBroker(clusterSize int) *NetworkBroker {
	n := &NetworkBroker{
		clusterSize: clusterSize,
		connections: make(map[edge]bool),
		delays:      make(map[edge]int),
		duplicates:  make(map[edge]int),
	}
	n.HealNetwork()
	return n
}

// HealNetwork restores full connectivity and zeroes every per-edge counter.
func (n *NetworkBroker) HealNetwork() {
	n.connections = make(map[edge]bool)
	n.delays = make(map[edge]int)
	n.duplicates = make(map[edge]int)
	for f := 0; f < n.clusterSize; f++ {
		for t := 0; t < n.clusterSize; t++ {
			if f == t {
				continue
			}
			n.connections[edge{raft.NodeID(f), raft.NodeID(t)}] = true
		}
	}
}

// Connected reports whether a message sent on (from, to) would be delivered.
func (n *NetworkBroker) Connected(from, to raft.NodeID) bool {
	return n.connections[edge{from, to}]
}

// Delay returns the extra ms added to a send along (from, to).
func (n *NetworkBroker) Delay(from, to raft.NodeID) int {
	return n.delays[edge{from, to}]
}

// Duplicates returns the number of extra deliveries a send along (from, to)
// produces, on top of the one genuine delivery.
func (n *NetworkBroker) Duplicates(from, to raft.NodeID) int {
	return n.duplicates[edge{from, to}]
}

// SendDrop severs every edge from `from` to a node in affected.
func (n *NetworkBroker) SendDrop(from raft.NodeID, affected []raft.NodeID) {
	for _, t := range affected {
		n.connections[edge{from, t}] = false
	}
}

// StopSendDrop is SendDrop's backout: it restores the severed edges.
func (n *NetworkBroker) StopSendDrop(from raft.NodeID, affected []raft.NodeID) {
	for _, t := range affected {
		n.connections[edge{from, t}] = true
	}
}

// ReceiveDrop severs every edge into a node in affected, from every sender.
func (n *NetworkBroker) ReceiveDrop(affected []raft.NodeID) {
	for f := 0; f < n.clusterSize; f++ {
		for _, t := range affected {
			n.connections[edge{raft.NodeID(f), t}] = false
		}
	}
}

// StopReceiveDrop restores the edges ReceiveDrop severed.
func (n *NetworkBroker) StopReceiveDrop(affected []raft.NodeID) {
	for f := 0; f < n.clusterSize; f++ {
		for _, t := range affected {
			n.connections[edge{raft.NodeID(f), t}] = true
		}
	}
}

// TransmitDrop severs a single directed pair.
func (n *NetworkBroker) TransmitDrop(from, to raft.NodeID) {
	n.connections[edge{from, to}] = false
}

// StopTransmitDrop restores a single directed pair.
func (n *NetworkBroker) StopTransmitDrop(from, to raft.NodeID) {
	n.connections[edge{from, to}] = true
}

// SendDelay increments the delay counter by 1 on every edge out of `from`
// named in affected.
func (n *NetworkBroker) SendDelay(from raft.NodeID, affected []raft.NodeID) {
	for _, t := range affected {
		n.delays[edge{from, t}]++
	}
}

// StopSendDelay decrements the delay counter SendDelay incremented.
func (n *NetworkBroker) StopSendDelay(from raft.NodeID, affected []raft.NodeID) {
	for _, t := range affected {
		n.delays[edge{from, t}]--
	}
}

// SendDuplicate increments the duplicate counter by 1 on every outbound edge
// of `from`.
func (n *NetworkBroker) SendDuplicate(from raft.NodeID) {
	for t := 0; t < n.clusterSize; t++ {
		to := raft.NodeID(t)
		if to == from {
			continue
		}
		n.duplicates[edge{from, to}]++
	}
}

// StopSendDuplicate decrements the duplicate counter, never below zero.
func (n *NetworkBroker) StopSendDuplicate(from raft.NodeID) {
	for t := 0; t < n.clusterSize; t++ {
		to := raft.NodeID(t)
		if to == from {
			continue
		}
		e := edge{from, to}
		if n.duplicates[e] > 0 {
			n.duplicates[e]--
		}
	}
}
