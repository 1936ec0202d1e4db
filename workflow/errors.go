package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntryPoint indicates Compile was called before SetEntryPoint.
	ErrNoEntryPoint = errors.New("workflow: no entry point")

	// ErrNodeNotFound indicates an edge or entry point references an unknown node.
	ErrNodeNotFound = errors.New("workflow: node not found")

	// ErrDuplicateNode indicates a node name was registered twice.
	ErrDuplicateNode = errors.New("workflow: duplicate node")

	// ErrDuplicateEdge indicates a node was given more than one outgoing edge spec.
	ErrDuplicateEdge = errors.New("workflow: duplicate edge")

	// ErrMissingEdge indicates a node has no outgoing edge spec.
	ErrMissingEdge = errors.New("workflow: node has no outgoing edge")

	// ErrInvalidNode indicates a reserved or empty node name, or a nil function.
	ErrInvalidNode = errors.New("workflow: invalid node")

	// ErrNoRouteMatched indicates a router returned an outcome with no target.
	ErrNoRouteMatched = errors.New("workflow: no route matched")

	// ErrCycle indicates a run reached a node it had already executed.
	ErrCycle = errors.New("workflow: cycle detected")
)

// StepError wraps an error returned by a node.
type StepError struct {
	Node string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: node %q failed: %v", e.Node, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
