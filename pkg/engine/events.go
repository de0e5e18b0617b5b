package engine

import "github.com/raftsim/core/pkg/raft"

// Event is a tagged-variant taxonomy: each variant knows how to apply itself
// to the engine, replacing the runtime type tests original_source/src/events.py
// used. Grounded on that file's Event/
// NetworkEvent/PowerEvent/TimerEvent class hierarchy, reshaped into Go
// interface variants with a single Apply method.
type Event interface {
	Apply(e *Engine)
}

// WindowEvent is a reversible Event: it has a duration, after which its
// Backout undoes it. The engine schedules Backout itself when a WindowEvent
// is injected; callers never construct the Stop* variant directly.
type WindowEvent interface {
	Event
	Length() int64
	Backout() Event
}

// SendDrop severs from's outbound edges to every node in Affected.
type SendDrop struct {
	From     raft.NodeID
	Affected []raft.NodeID
	Window   int64
}

func (ev SendDrop) Apply(e *Engine)  { e.Network.SendDrop(ev.From, ev.Affected) }
func (ev SendDrop) Length() int64    { return ev.Window }
func (ev SendDrop) Backout() Event   { return StopSendDrop{From: ev.From, Affected: ev.Affected} }

// StopSendDrop is SendDrop's backout.
type StopSendDrop struct {
	From     raft.NodeID
	Affected []raft.NodeID
}

func (ev StopSendDrop) Apply(e *Engine) { e.Network.StopSendDrop(ev.From, ev.Affected) }

// ReceiveDrop severs every sender's edge into each node in Affected.
type ReceiveDrop struct {
	Affected []raft.NodeID
	Window   int64
}

func (ev ReceiveDrop) Apply(e *Engine) { e.Network.ReceiveDrop(ev.Affected) }
func (ev ReceiveDrop) Length() int64   { return ev.Window }
func (ev ReceiveDrop) Backout() Event  { return StopReceiveDrop{Affected: ev.Affected} }

// StopReceiveDrop is ReceiveDrop's backout.
type StopReceiveDrop struct {
	Affected []raft.NodeID
}

func (ev StopReceiveDrop) Apply(e *Engine) { e.Network.StopReceiveDrop(ev.Affected) }

// TransmitDrop severs a single directed pair.
type TransmitDrop struct {
	From, To raft.NodeID
	Window   int64
}

func (ev TransmitDrop) Apply(e *Engine) { e.Network.TransmitDrop(ev.From, ev.To) }
func (ev TransmitDrop) Length() int64   { return ev.Window }
func (ev TransmitDrop) Backout() Event  { return StopTransmitDrop{From: ev.From, To: ev.To} }

// StopTransmitDrop is TransmitDrop's backout.
type StopTransmitDrop struct {
	From, To raft.NodeID
}

func (ev StopTransmitDrop) Apply(e *Engine) { e.Network.StopTransmitDrop(ev.From, ev.To) }

// SendDelay adds 1ms of delay to from's outbound edges to every node in
// Affected.
type SendDelay struct {
	From     raft.NodeID
	Affected []raft.NodeID
	Window   int64
}

func (ev SendDelay) Apply(e *Engine) { e.Network.SendDelay(ev.From, ev.Affected) }
func (ev SendDelay) Length() int64   { return ev.Window }
func (ev SendDelay) Backout() Event  { return StopSendDelay{From: ev.From, Affected: ev.Affected} }

// StopSendDelay is SendDelay's backout.
type StopSendDelay struct {
	From     raft.NodeID
	Affected []raft.NodeID
}

func (ev StopSendDelay) Apply(e *Engine) { e.Network.StopSendDelay(ev.From, ev.Affected) }

// SendDuplicate makes every send from From produce one extra delivery.
type SendDuplicate struct {
	From   raft.NodeID
	Window int64
}

func (ev SendDuplicate) Apply(e *Engine) { e.Network.SendDuplicate(ev.From) }
func (ev SendDuplicate) Length() int64   { return ev.Window }
func (ev SendDuplicate) Backout() Event  { return StopSendDuplicate{From: ev.From} }

// StopSendDuplicate is SendDuplicate's backout.
type StopSendDuplicate struct {
	From raft.NodeID
}

func (ev StopSendDuplicate) Apply(e *Engine) { e.Network.StopSendDuplicate(ev.From) }

// HealNetwork restores the network broker to its healthy initial state.
type HealNetwork struct{}

func (ev HealNetwork) Apply(e *Engine) { e.Network.HealNetwork() }

// DeliverMessage is the non-reversible terminal network event: one attempted
// delivery of a single message, dropped silently if the edge is severed.
type DeliverMessage struct {
	From, To raft.NodeID
	Payload  raft.Message
}

func (ev DeliverMessage) Apply(e *Engine) {
	if !e.Network.Connected(ev.From, ev.To) {
		return
	}
	e.Power.Get(ev.To).Receive(ev.From, ev.Payload)
}

// PowerDown takes a node offline. The engine's dispatcher clears the node's
// timer before handing off to the power broker — the one deliberate
// cross-broker coupling in the dispatch path.
type PowerDown struct {
	Node   raft.NodeID
	Window int64
}

func (ev PowerDown) Apply(e *Engine) { e.Power.PowerDown(ev.Node) }
func (ev PowerDown) Length() int64   { return ev.Window }
func (ev PowerDown) Backout() Event  { return StopPowerDown{Node: ev.Node} }

// StopPowerDown is PowerDown's backout.
type StopPowerDown struct {
	Node raft.NodeID
}

func (ev StopPowerDown) Apply(e *Engine) { e.Power.StopPowerDown(ev.Node) }

// HealPower restores every currently downed node.
type HealPower struct{}

func (ev HealPower) Apply(e *Engine) { e.Power.HealPower() }

// ClockSkew is instantaneous: it adjusts a node's clock offset and is never
// reversed by a paired event (HealTimer is the only way back).
type ClockSkew struct {
	Node   raft.NodeID
	Amount int
}

func (ev ClockSkew) Apply(e *Engine) { e.Timer.ClockSkew(ev.Node, ev.Amount) }

// HealTimer resets every node's clock offset to zero.
type HealTimer struct{}

func (ev HealTimer) Apply(e *Engine) { e.Timer.HealTimer() }
