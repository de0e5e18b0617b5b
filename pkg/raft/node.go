package raft

import (
	"log"
	"math/rand"
)

// Node is a single cluster member's Raft-style election state machine. It
// runs synchronously: TimerTrip and Receive are called directly by the
// engine's dispatch path, never from a goroutine, and the node reacts by
// calling back into its EngineHandle (never by reaching into engine state).
type Node struct {
	id          NodeID
	config      NodeConfig
	rng         *rand.Rand
	engine      EngineHandle
	clusterSize int

	term              uint64
	votedFor          *NodeID
	votesReceived     map[NodeID]struct{}
	log               []LogEntry
	commitIndex       uint64
	lastApplied       uint64
	state             NodeState
	electionTimeoutMs int
}

// NewNode allocates a node record. Its RNG is seeded by node id so runs are
// reproducible; the engine must never draw from this RNG itself.
func NewNode(id NodeID, config NodeConfig, clusterSize int, engine EngineHandle) *Node {
	return &Node{
		id:            id,
		config:        config,
		rng:           rand.New(rand.NewSource(int64(id))),
		engine:        engine,
		clusterSize:   clusterSize,
		state:         Follower,
		votesReceived: make(map[NodeID]struct{}),
	}
}

func (n *Node) ID() NodeID { return n.id }

func (n *Node) State() NodeState { return n.state }

func (n *Node) Term() uint64 { return n.term }

func (n *Node) CommitIndex() uint64 { return n.commitIndex }

func (n *Node) LogLength() int { return len(n.log) }

// Setup arms the initial election timer. Called once by the engine after all
// brokers are wired.
func (n *Node) Setup() {
	n.electionTimeoutMs = n.calculateElectionTimeout()
	n.engine.SetTimeout(n.id, n.electionTimeoutMs)
}

func (n *Node) calculateElectionTimeout() int {
	lo, hi := n.config.ElectionTimeoutMinMs, n.config.ElectionTimeoutMaxMs
	if hi <= lo {
		return lo
	}
	return lo + n.rng.Intn(hi-lo)
}

// changeType transitions the node's role, re-arming timers as a side effect.
// Follower directly to Leader is forbidden and asserted against.
func (n *Node) changeType(to NodeState) {
	if n.state == Follower && to == Leader {
		panic(ErrIllegalTransition)
	}
	n.state = to
	switch to {
	case Follower, Candidate:
		n.electionTimeoutMs = n.calculateElectionTimeout()
		n.engine.SetTimeout(n.id, n.electionTimeoutMs)
	case Leader:
		n.engine.SetTimeout(n.id, n.config.HeartbeatTimeoutMs)
	}
}

// updateTerm implements the term-bump rule shared by every message path. The
// newCandidate bypass is required so that a node starting its own election
// does not immediately revert itself to Follower on the very term bump it
// just performed.
func (n *Node) updateTerm(term uint64, newCandidate bool) {
	if term <= n.term {
		return
	}
	n.term = term
	n.votedFor = nil
	n.votesReceived = make(map[NodeID]struct{})
	n.electionTimeoutMs = n.calculateElectionTimeout()
	if !newCandidate {
		n.changeType(Follower)
	}
}

// TimerTrip is invoked by the engine when this node's deadline has passed.
func (n *Node) TimerTrip() {
	if n.state != Leader {
		n.updateTerm(n.term+1, true)
		n.changeType(Candidate)
		n.votedFor = &n.id
		n.votesReceived = map[NodeID]struct{}{n.id: {}}

		lastTerm := uint64(0)
		if len(n.log) > 0 {
			lastTerm = n.log[len(n.log)-1].Term
		}
		for peer := NodeID(0); int(peer) < n.clusterSize; peer++ {
			if peer == n.id {
				continue
			}
			n.engine.SendTo(n.id, peer, RequestVote{
				Term:         n.term,
				CandidateID:  n.id,
				LastLogIndex: uint64(len(n.log)),
				LastLogTerm:  lastTerm,
			})
		}
		return
	}

	// Leader: rebroadcast an empty heartbeat and re-arm.
	var lastEntry *LogEntry
	if len(n.log) > 0 {
		e := n.log[len(n.log)-1]
		lastEntry = &e
	}
	for peer := NodeID(0); int(peer) < n.clusterSize; peer++ {
		if peer == n.id {
			continue
		}
		n.engine.SendTo(n.id, peer, AppendEntries{
			Term:        n.term,
			LeaderID:    n.id,
			LogLength:   uint64(len(n.log)),
			LastEntry:   lastEntry,
			CommitIndex: n.commitIndex,
		})
	}
	n.engine.SetTimeout(n.id, n.config.HeartbeatTimeoutMs)
}

// Receive dispatches an incoming message after applying the shared term
// update rule.
func (n *Node) Receive(sender NodeID, msg Message) error {
	if msg.term() > n.term {
		n.updateTerm(msg.term(), false)
	}

	switch m := msg.(type) {
	case AppendEntries:
		return n.onAppendEntries(sender, m)
	case RequestVote:
		return n.onRequestVote(sender, m)
	case AppendEntriesResponse:
		return nil
	case RequestVoteResponse:
		return n.onRequestVoteResponse(sender, m)
	default:
		return nil
	}
}

func (n *Node) onAppendEntries(sender NodeID, m AppendEntries) error {
	if m.Term < n.term {
		return nil
	}
	if n.state == Follower {
		n.engine.SetTimeout(n.id, n.electionTimeoutMs)
	} else {
		n.changeType(Follower)
	}
	return nil
}

func (n *Node) onRequestVote(sender NodeID, m RequestVote) error {
	granted := m.Term >= n.term && n.votedFor == nil
	if granted {
		v := sender
		n.votedFor = &v
	}
	n.engine.SendTo(n.id, sender, RequestVoteResponse{
		Term:        n.term,
		VoteGranted: granted,
		Voter:       n.id,
	})
	return nil
}

func (n *Node) onRequestVoteResponse(sender NodeID, m RequestVoteResponse) error {
	if n.state != Candidate || !m.VoteGranted {
		return nil
	}
	// Set semantics: a duplicate grant from the same sender does not grow
	// votesReceived, keeping the quorum count idempotent against resends.
	n.votesReceived[sender] = struct{}{}
	if len(n.votesReceived) > n.clusterSize/2 {
		n.changeType(Leader)
		log.Printf("node %d: elected leader for term %d", n.id, n.term)
	}
	return nil
}

// LoadedFile and SavedFile satisfy engine.FileAware. Election logic never
// touches the file broker; these exist only so Node can be registered with
// it without a type assertion failing.
func (n *Node) LoadedFile(name string, data []byte) {}

func (n *Node) SavedFile(name string) {}

// DownNode is the sentinel the power broker installs in place of a powered
// down node's real record. It silently discards every input; the real Node
// is preserved elsewhere and restored on power-up.
type DownNode struct {
	id NodeID
}

func NewDownNode(id NodeID) *DownNode { return &DownNode{id: id} }

func (d *DownNode) ID() NodeID { return d.id }

func (d *DownNode) Receive(sender NodeID, msg Message) error { return nil }

func (d *DownNode) TimerTrip() {}
