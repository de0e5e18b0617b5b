package raft

import "errors"

var (
	// ErrInvariantViolation is returned when the invariant checker observes
	// more than one leader in the same term, or a benign run fails to elect
	// any leader past its halfway mark.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrIllegalTransition marks a debug-time assertion failure: a node
	// changing directly from Follower to Leader. Powering down an
	// already-down node and delivering across a severed edge are silent
	// no-ops, not illegal transitions.
	ErrIllegalTransition = errors.New("illegal state transition")

	// ErrUnknownNode is the panic value raised when an engine operation
	// names a node id outside [0, cluster size).
	ErrUnknownNode = errors.New("unknown node id")

	// ErrSelfMessage is the panic value SendTo raises when from == to.
	ErrSelfMessage = errors.New("node cannot send a message to itself")

	// ErrNodeDown is returned by operations attempted against a powered-down
	// node's real record rather than its sentinel.
	ErrNodeDown = errors.New("node is powered down")
)
