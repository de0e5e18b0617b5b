package raft

// Message is the tagged union of the four Raft RPC payloads a node can send
// or receive. Like the event taxonomy in the engine, dispatch happens on the
// concrete type via a type switch in Node.Receive rather than on a string tag.
type Message interface {
	term() uint64
}

// RequestVote is broadcast by a candidate starting an election.
type RequestVote struct {
	Term         uint64
	CandidateID  NodeID
	LastLogIndex uint64
	LastLogTerm  uint64
}

func (m RequestVote) term() uint64 { return m.Term }

// RequestVoteResponse is a follower's reply to a RequestVote.
type RequestVoteResponse struct {
	Term        uint64
	VoteGranted bool
	Voter       NodeID
}

func (m RequestVoteResponse) term() uint64 { return m.Term }

// AppendEntries is sent by a leader; in this core it is always empty
// (heartbeat-only, log replication is out of scope) but carries the log
// length and last entry for RPC-shape fidelity.
type AppendEntries struct {
	Term         uint64
	LeaderID     NodeID
	LogLength    uint64
	LastEntry    *LogEntry
	Entries      []LogEntry
	CommitIndex  uint64
}

func (m AppendEntries) term() uint64 { return m.Term }

// AppendEntriesResponse is a no-op on receipt in this core, but still a real
// message so duplicate/delayed delivery can be exercised against it.
type AppendEntriesResponse struct {
	Term    uint64
	Success bool
	From    NodeID
}

func (m AppendEntriesResponse) term() uint64 { return m.Term }
