package engine

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/raftsim/core/pkg/raft"
)

// InvariantChecker accumulates, tick by tick, which node has been observed
// as Leader in which term, and asserts at most one ever holds a given term.
// Grounded on pkg/testing/invariant_checker.go's accumulate-then-check
// shape; the log-matching/monotonic-commit/term-consistency checks there are
// dropped (log replication is out of scope) and replaced by a single
// leader-per-term uniqueness check. Multiple violations found in one pass are
// folded into a single error via go-multierror rather than returned as a
// bare slice, grounded on moby-moby/daemon's use of the same library to
// aggregate independent subsystem errors.
type InvariantChecker struct {
	leadersHistory map[uint64]map[raft.NodeID]struct{}
}

func NewInvariantChecker() *InvariantChecker {
	return &InvariantChecker{leadersHistory: make(map[uint64]map[raft.NodeID]struct{})}
}

// RecordTick scans the real node records and records every Leader's
// (term, id) pair. Powered-down nodes are skipped, even though their
// preserved records may still hold the Leader role.
func (c *InvariantChecker) RecordTick(nodes []*raft.Node, power *PowerBroker) {
	for _, n := range nodes {
		if power.IsDown(n.ID()) {
			continue
		}
		if n.State() != raft.Leader {
			continue
		}
		term := n.Term()
		if c.leadersHistory[term] == nil {
			c.leadersHistory[term] = make(map[raft.NodeID]struct{})
		}
		c.leadersHistory[term][n.ID()] = struct{}{}
	}
}

// Check asserts the leader-per-term uniqueness invariant over everything
// recorded so far.
func (c *InvariantChecker) Check() error {
	var result *multierror.Error
	for term, leaders := range c.leadersHistory {
		if len(leaders) > 1 {
			result = multierror.Append(result, fmt.Errorf("%w: term %d has %d leaders: %v",
				raft.ErrInvariantViolation, term, len(leaders), leaders))
		}
	}
	return result.ErrorOrNil()
}

// AssertBenignProgress is the teardown check of a zero-catastrophe run:
// past half the step budget, some leader must have been elected. Grounded
// on original_source/src/world_broker.py's teardown().
func (c *InvariantChecker) AssertBenignProgress(currentTime, msPerStep int64) error {
	if currentTime <= msPerStep/2 {
		return nil
	}
	if len(c.leadersHistory) == 0 {
		return fmt.Errorf("%w: no leader elected by tick %d of a benign run", raft.ErrInvariantViolation, currentTime)
	}
	return nil
}

// LeadersHistory returns the raw per-term leader-id sets, for tests that
// want to assert on the shape directly rather than just pass/fail.
func (c *InvariantChecker) LeadersHistory() map[uint64]map[raft.NodeID]struct{} {
	return c.leadersHistory
}
