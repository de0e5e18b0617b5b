package engine

import "github.com/raftsim/core/pkg/raft"

// PowerBroker owns the up/down node registries. Every node id is present in
// exactly one registry; a downed node's real record moves into `down` and is
// replaced in `up` by a raft.DownNode sentinel, so dispatch can address
// either registry uniformly without a nil check. Grounded on the
// active/removed membership bookkeeping in pkg/cluster/membership.go,
// repurposed here from cluster membership to a power-cycle registry,
// including the DownNode sentinel adapted from original_source/src/node.py.
type PowerBroker struct {
	up   map[raft.NodeID]raft.NodeHandle
	down map[raft.NodeID]raft.NodeHandle
}

func NewPowerBroker() *PowerBroker {
	return &PowerBroker{
		up:   make(map[raft.NodeID]raft.NodeHandle),
		down: make(map[raft.NodeID]raft.NodeHandle),
	}
}

// Register wires a node's real record into the up registry. Called once per
// node during engine construction, before Setup runs.
func (p *PowerBroker) Register(id raft.NodeID, handle raft.NodeHandle) {
	p.up[id] = handle
}

// Get returns the live handle for id — the real node if up, the DownNode
// sentinel if down. This is what the engine's dispatch path uses.
func (p *PowerBroker) Get(id raft.NodeID) raft.NodeHandle {
	return p.up[id]
}

// GetForTesting returns the node's real record regardless of power state,
// following the down-aware lookup in original_source/src/world_broker.py's
// get_node_for_testing: tests should be able to inspect a powered-down
// node's term and role without caring whether it is currently live.
func (p *PowerBroker) GetForTesting(id raft.NodeID) raft.NodeHandle {
	if real, down := p.down[id]; down {
		return real
	}
	return p.up[id]
}

// IsDown reports whether id is currently powered down.
func (p *PowerBroker) IsDown(id raft.NodeID) bool {
	_, down := p.down[id]
	return down
}

// PowerDown moves id's real record into the down registry and installs a
// sentinel in its place. A no-op if the node is already down: overlapping
// power-down windows on the same node are a legal adversarial sequence, not
// an illegal transition.
func (p *PowerBroker) PowerDown(id raft.NodeID) {
	if p.IsDown(id) {
		return
	}
	p.down[id] = p.up[id]
	p.up[id] = raft.NewDownNode(id)
}

// StopPowerDown is PowerDown's backout: it restores the real record. A
// no-op if the node is not currently down — a HealPower, or an overlapping
// window's own backout, can restore the node before this one fires.
func (p *PowerBroker) StopPowerDown(id raft.NodeID) {
	real, down := p.down[id]
	if !down {
		return
	}
	p.up[id] = real
	delete(p.down, id)
}

// HealPower restores every currently downed node.
func (p *PowerBroker) HealPower() {
	for id, real := range p.down {
		p.up[id] = real
		delete(p.down, id)
	}
}
