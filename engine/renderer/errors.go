package renderer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPassNotBound is returned by AddPass for a pass without a target or program.
	ErrPassNotBound = errors.New("pass is not bound")
	// ErrDuplicatePass is returned by AddPass when the name is already in the graph.
	ErrDuplicatePass = errors.New("duplicate pass name")
	// ErrTargetInUse is returned by AddPass when another pass already renders into the same target.
	ErrTargetInUse = errors.New("render target already has a pass")
	// ErrInvalidSlot is returned by Present for an attachment slot the target does not have.
	ErrInvalidSlot = errors.New("invalid attachment slot")
	// ErrNothingPresented is returned by Snapshot before any Present.
	ErrNothingPresented = errors.New("nothing presented")
	// ErrReadbackUnsupported is returned by backends that cannot copy textures back to the CPU.
	ErrReadbackUnsupported = errors.New("texture readback unsupported by backend")
)

// OrderingEdge is one producer to consumer edge that breaks the ordering rule.
type OrderingEdge struct {
	Producer    string
	Consumer    string
	ProducerKey int
	ConsumerKey int
	// Input names the texture input carrying the edge, or "after" for a declared dependency.
	Input string
}

// OrderingViolation reports passes that would read a texture before it is written in the frame:
// edges whose producer order key is not strictly less than the consumer's, or a dependency cycle.
type OrderingViolation struct {
	Edges []OrderingEdge
	// Cycle lists passes left over by the topological sort, when AssignOrderKeys fails.
	Cycle []string
}

func (e *OrderingViolation) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("ordering violation: dependency cycle among passes %s", strings.Join(e.Cycle, ", "))
	}
	parts := make([]string, len(e.Edges))
	for i, edge := range e.Edges {
		parts[i] = fmt.Sprintf("%s(%d) -> %s(%d) via %s",
			edge.Producer, edge.ProducerKey, edge.Consumer, edge.ConsumerKey, edge.Input)
	}
	return "ordering violation: " + strings.Join(parts, "; ")
}
