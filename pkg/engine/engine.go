package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/raftsim/core/pkg/raft"
)

// EngineConfig holds the adversarial-exploration budget and cluster sizing
// the engine is constructed with. Grounded on the NodeConfig/DefaultConfig
// pair in the upstream pkg/raft/types.go this package's raft.NodeConfig
// descends from.
type EngineConfig struct {
	CatastrophyLevel int
	MsPerStep        int64
	MaxMsPerEvent    int64
	MessageSendDelay int64
	ClusterSize      int
}

// DefaultEngineConfig returns the default adversarial budget: a benign run
// over a 5-node cluster.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CatastrophyLevel: 0,
		MsPerStep:        700,
		MaxMsPerEvent:    400,
		MessageSendDelay: 6,
		ClusterSize:      5,
	}
}

// StepBounds describes the constraints the next adversarial batch must
// respect; it is handed to the external property generator's steps()
// contract, which the core never calls into directly.
type StepBounds struct {
	Now           int64
	MsPerStep     int64
	MaxMsPerEvent int64
	MaxEvents     int
}

// EventRecord is one dispatched event, stamped with the tick it fired on.
// The ordered list of these is the reproducer attached to an invariant
// violation.
type EventRecord struct {
	Time  int64
	Event Event
}

// Engine is the virtual-time world: it owns the four brokers, the node
// records (through the power broker), the event queue, and the invariant
// checker. It implements raft.EngineHandle so nodes can call back into it
// through a narrow borrow rather than owning it, breaking the node↔engine
// ownership cycle a naive design would create. Grounded on
// pkg/testing/simulator.go's Simulator/DeterministicTransport, restructured
// from real-wall-clock goroutine polling into a single-threaded tick loop.
type Engine struct {
	Config     EngineConfig
	NodeConfig raft.NodeConfig

	CurrentTime int64
	RunID       string
	Seed        int64

	Network   *NetworkBroker
	Power     *PowerBroker
	Timer     *TimerBroker
	File      *FileBroker
	Invariant *InvariantChecker

	queue *EventQueue
	nodes []*raft.Node

	EventLog []EventRecord
}

// NewEngine constructs a cluster of the given size, wires its brokers, and
// arms every node's initial election timer. seed does not drive node
// behavior (each node's RNG is seeded by its own id) — it only stamps the
// run for reproducibility bookkeeping, mirroring the upstream
// NewSimulator(size, seed) signature.
func NewEngine(config EngineConfig, nodeConfig raft.NodeConfig, seed int64) *Engine {
	e := &Engine{
		Config:     config,
		NodeConfig: nodeConfig,
		Seed:       seed,
		RunID:      uuid.New().String(),
		Network:    NewNetworkBroker(config.ClusterSize),
		Power:      NewPowerBroker(),
		Timer:      NewTimerBroker(config.ClusterSize),
		File:       NewFileBroker(config.ClusterSize),
		Invariant:  NewInvariantChecker(),
		queue:      newEventQueue(),
	}
	for i := 0; i < config.ClusterSize; i++ {
		id := raft.NodeID(i)
		node := raft.NewNode(id, nodeConfig, config.ClusterSize, e)
		e.nodes = append(e.nodes, node)
		e.Power.Register(id, node)
	}
	for _, n := range e.nodes {
		n.Setup()
	}
	return e
}

// SetTimeout implements raft.EngineHandle.
func (e *Engine) SetTimeout(node raft.NodeID, ms int) {
	e.Timer.SetTimeout(node, e.CurrentTime, ms)
}

// ClearTimer implements raft.EngineHandle.
func (e *Engine) ClearTimer(node raft.NodeID) {
	e.Timer.ClearTimer(node)
}

// validateNode panics raft.ErrUnknownNode if id names a node outside
// [0, cluster size) — a debug-time assertion, since every id the node state
// machine or the property generator produces is bounded by ClusterSize.
func (e *Engine) validateNode(id raft.NodeID) {
	if int(id) < 0 || int(id) >= e.Config.ClusterSize {
		panic(raft.ErrUnknownNode)
	}
}

// SendTo implements raft.EngineHandle. A node may never message itself; one
// DeliverMessage is enqueued per (1 + duplicate count) on the edge.
func (e *Engine) SendTo(from, to raft.NodeID, msg raft.Message) {
	e.validateNode(from)
	e.validateNode(to)
	if from == to {
		panic(raft.ErrSelfMessage)
	}
	eventTime := e.CurrentTime + e.Config.MessageSendDelay + int64(e.Network.Delay(from, to))
	copies := 1 + e.Network.Duplicates(from, to)
	for i := 0; i < copies; i++ {
		e.queue.Push(eventTime, DeliverMessage{From: from, To: to, Payload: msg})
	}
}

// Nodes returns the engine's real node records, regardless of power state —
// a convenience for tests that want to scan the whole cluster.
func (e *Engine) Nodes() []*raft.Node { return e.nodes }

// ReadFile looks up name in node's file table and delivers it through the
// FileAware callback. Exposed directly on Engine, not just through the File
// broker, so read_file is a first-class operation on the engine's public
// contract. A node must be up and known to read its own files.
func (e *Engine) ReadFile(node raft.NodeID, name string, cb FileAware) error {
	e.validateNode(node)
	if e.Power.IsDown(node) {
		return raft.ErrNodeDown
	}
	e.File.ReadFile(node, name, cb)
	return nil
}

// WriteFile stores data under name in node's file table and delivers the
// SavedFile callback, the write_file counterpart to ReadFile. A node must be
// up and known to write its own files.
func (e *Engine) WriteFile(node raft.NodeID, name string, data []byte, cb FileAware) error {
	e.validateNode(node)
	if e.Power.IsDown(node) {
		return raft.ErrNodeDown
	}
	e.File.WriteFile(node, name, data, cb)
	return nil
}

// GetNode returns the down-aware handle for id, following
// original_source/src/world_broker.py's get_node_for_testing: it resolves to
// the real record whether the node is currently up or powered down.
func (e *Engine) GetNode(id raft.NodeID) raft.NodeHandle {
	return e.Power.GetForTesting(id)
}

// StepBounds reports the constraints the next adversarial batch passed to
// ExecuteStep must respect.
func (e *Engine) StepBounds() StepBounds {
	return StepBounds{
		Now:           e.CurrentTime,
		MsPerStep:     e.Config.MsPerStep,
		MaxMsPerEvent: e.Config.MaxMsPerEvent,
		MaxEvents:     e.Config.CatastrophyLevel,
	}
}

// Injected is one adversarial event submitted to ExecuteStep, paired with
// the absolute tick it should fire on.
type Injected struct {
	StartTime int64
	Event     Event
}

// ExecuteStep enqueues a batch of adversarial events (and, for reversible
// ones, their backouts) and runs every tick from CurrentTime through
// CurrentTime+Config.MsPerStep inclusive, so CurrentTime ends MsPerStep+1
// past where it started. It returns an error wrapping
// raft.ErrInvariantViolation or raft.ErrIllegalTransition if either is
// observed during the step; the error's message carries the run id, the
// tick and the number of logged events, and the dispatched events
// themselves stay available in EventLog.
func (e *Engine) ExecuteStep(batch []Injected) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.reproducerError(r)
		}
	}()

	for _, inj := range batch {
		e.queue.Push(inj.StartTime, inj.Event)
		if we, ok := inj.Event.(WindowEvent); ok {
			e.queue.Push(inj.StartTime+we.Length(), we.Backout())
		}
	}

	target := e.CurrentTime + e.Config.MsPerStep
	for e.CurrentTime <= target {
		if tickErr := e.tick(); tickErr != nil {
			return tickErr
		}
	}
	return nil
}

func (e *Engine) tick() error {
	for {
		t, ok := e.queue.PeekTime()
		if !ok || t != e.CurrentTime {
			break
		}
		e.dispatch(e.queue.Pop())
	}

	for i := 0; i < e.Config.ClusterSize; i++ {
		id := raft.NodeID(i)
		if e.Timer.Fires(id, e.CurrentTime) {
			e.Power.Get(id).TimerTrip()
		}
	}

	e.CurrentTime++
	e.Invariant.RecordTick(e.nodes, e.Power)
	if err := e.Invariant.Check(); err != nil {
		return e.reproducerError(err)
	}
	return nil
}

// dispatch applies ev to its broker, first issuing the PowerDown→timer-clear
// cross-broker coupling, then recording it in the event log.
func (e *Engine) dispatch(ev Event) {
	if pd, ok := ev.(PowerDown); ok {
		e.Timer.ClearTimer(pd.Node)
	}
	ev.Apply(e)
	e.EventLog = append(e.EventLog, EventRecord{Time: e.CurrentTime, Event: ev})
}

// AssertBenignProgress is the zero-catastrophe-run teardown check: past half
// the step budget, some leader must have been elected.
func (e *Engine) AssertBenignProgress() error {
	if err := e.Invariant.AssertBenignProgress(e.CurrentTime, e.Config.MsPerStep); err != nil {
		return e.reproducerError(err)
	}
	return nil
}

// reproducerError wraps a failure cause (a panic value or a plain error)
// with the run id, current tick, and event-log length needed to reproduce
// it, preserving the original error chain where there is one.
func (e *Engine) reproducerError(cause interface{}) error {
	if err, ok := cause.(error); ok {
		return fmt.Errorf("run %s at tick %d: %w (%d events logged)", e.RunID, e.CurrentTime, err, len(e.EventLog))
	}
	return fmt.Errorf("run %s at tick %d: %v (%d events logged)", e.RunID, e.CurrentTime, cause, len(e.EventLog))
}
