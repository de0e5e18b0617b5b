package raft

import "testing"

type fakeEngine struct {
	timeouts map[NodeID]int
	cleared  map[NodeID]bool
	sent     []sentMessage
}

type sentMessage struct {
	from, to NodeID
	msg      Message
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{timeouts: make(map[NodeID]int), cleared: make(map[NodeID]bool)}
}

func (f *fakeEngine) SetTimeout(node NodeID, ms int) {
	f.timeouts[node] = ms
	f.cleared[node] = false
}

func (f *fakeEngine) ClearTimer(node NodeID) { f.cleared[node] = true }

func (f *fakeEngine) SendTo(from, to NodeID, msg Message) {
	if from == to {
		panic(ErrSelfMessage)
	}
	f.sent = append(f.sent, sentMessage{from, to, msg})
}

func TestNodeSetupArmsElectionTimer(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()

	ms, ok := eng.timeouts[0]
	if !ok {
		t.Fatal("Setup did not arm an election timer")
	}
	if ms < n.config.ElectionTimeoutMinMs || ms >= n.config.ElectionTimeoutMaxMs {
		t.Fatalf("election timeout %d ms outside configured window [%d,%d)", ms,
			n.config.ElectionTimeoutMinMs, n.config.ElectionTimeoutMaxMs)
	}
}

func TestTimerTripFromFollowerBecomesCandidateAndBroadcasts(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()

	n.TimerTrip()

	if n.state != Candidate {
		t.Fatalf("expected Candidate, got %v", n.state)
	}
	if n.term != 1 {
		t.Fatalf("expected term 1, got %d", n.term)
	}
	if _, voted := n.votesReceived[0]; !voted {
		t.Fatal("candidate did not self-vote")
	}
	if len(eng.sent) != 4 {
		t.Fatalf("expected 4 RequestVote broadcasts, got %d", len(eng.sent))
	}
	for _, s := range eng.sent {
		if _, ok := s.msg.(RequestVote); !ok {
			t.Fatalf("expected RequestVote, got %T", s.msg)
		}
	}
}

func TestFollowerToLeaderDirectlyIsIllegal(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic on Follower->Leader transition")
		}
	}()
	n.changeType(Leader)
}

func TestCandidateBecomesLeaderOnQuorum(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()
	n.TimerTrip() // -> Candidate, term 1, self-voted

	for _, voter := range []NodeID{1, 2} {
		if err := n.Receive(voter, RequestVoteResponse{Term: 1, VoteGranted: true, Voter: voter}); err != nil {
			t.Fatalf("Receive: %v", err)
		}
	}

	if n.state != Leader {
		t.Fatalf("expected Leader after quorum (3 of 5), got %v", n.state)
	}
}

func TestDuplicateVoteGrantsDoNotGrowVotesReceived(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()
	n.TimerTrip()

	n.Receive(1, RequestVoteResponse{Term: 1, VoteGranted: true, Voter: 1})
	n.Receive(1, RequestVoteResponse{Term: 1, VoteGranted: true, Voter: 1})

	if len(n.votesReceived) != 2 {
		t.Fatalf("expected 2 unique voters (self + 1), got %d", len(n.votesReceived))
	}
	if n.state == Leader {
		t.Fatal("duplicate grant from a single voter must not reach quorum on its own")
	}
}

func TestRequestVoteGrantedOnceThenRefused(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()

	n.Receive(1, RequestVote{Term: 1, CandidateID: 1, LastLogIndex: 0, LastLogTerm: 0})
	n.Receive(2, RequestVote{Term: 1, CandidateID: 2, LastLogIndex: 0, LastLogTerm: 0})

	if len(eng.sent) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(eng.sent))
	}
	first := eng.sent[0].msg.(RequestVoteResponse)
	second := eng.sent[1].msg.(RequestVoteResponse)
	if !first.VoteGranted {
		t.Fatal("first vote request in a fresh term should be granted")
	}
	if second.VoteGranted {
		t.Fatal("second vote request in the same term should be refused: already voted")
	}
}

func TestHigherTermAppendEntriesDemotesCandidateToFollower(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()
	n.TimerTrip() // term 1, Candidate

	n.Receive(1, AppendEntries{Term: 2, LeaderID: 1})

	if n.state != Follower {
		t.Fatalf("expected Follower after higher-term AppendEntries, got %v", n.state)
	}
	if n.term != 2 {
		t.Fatalf("expected term 2, got %d", n.term)
	}
}

func TestNewCandidateBypassDoesNotDemoteSelfPromotion(t *testing.T) {
	eng := newFakeEngine()
	n := NewNode(0, DefaultNodeConfig(), 5, eng)
	n.Setup()

	n.TimerTrip()

	if n.state != Candidate {
		t.Fatalf("self-promotion on timer trip must land on Candidate, not Follower, got %v", n.state)
	}
}

func TestDownNodeIgnoresEverything(t *testing.T) {
	d := NewDownNode(3)
	if d.ID() != 3 {
		t.Fatalf("expected id 3, got %d", d.ID())
	}
	if err := d.Receive(0, RequestVote{Term: 5}); err != nil {
		t.Fatalf("DownNode.Receive must be a silent no-op, got %v", err)
	}
	d.TimerTrip() // must not panic
}
