package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// End is the terminal pseudo-node.
const End = "__end__"

// NodeFunc runs one node. It receives the state by value and returns the
// updated state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc maps a state to an outcome name. Routers must not modify state.
type RouterFunc[S any] func(state S) string

// Edge is the outgoing edge spec of a node: a DirectEdge or a ConditionalEdge.
type Edge interface {
	// Targets lists the nodes this edge can lead to.
	Targets() []string
	isEdge()
}

// DirectEdge always continues to To.
type DirectEdge struct {
	To string
}

func (e DirectEdge) Targets() []string { return []string{e.To} }
func (DirectEdge) isEdge()             {}

// ConditionalEdge continues to Routes[Router(state)].
type ConditionalEdge[S any] struct {
	Router RouterFunc[S]
	Routes map[string]string
}

// Targets returns the route targets ordered by outcome name.
func (e ConditionalEdge[S]) Targets() []string {
	targets := make([]string, 0, len(e.Routes))
	for _, outcome := range e.Outcomes() {
		targets = append(targets, e.Routes[outcome])
	}
	return targets
}

// Outcomes returns the outcome names in sorted order.
func (e ConditionalEdge[S]) Outcomes() []string {
	return slices.Sorted(maps.Keys(e.Routes))
}

func (ConditionalEdge[S]) isEdge() {}

// Graph describes nodes and edges before compilation.
type Graph[S any] struct {
	name  string
	nodes map[string]NodeFunc[S]
	order []string
	edges map[string]Edge
	entry string
	errs  []error
}

// NewGraph creates an empty graph.
func NewGraph[S any](name string) *Graph[S] {
	return &Graph[S]{
		name:  name,
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string]Edge),
	}
}

// Name returns the graph name.
func (g *Graph[S]) Name() string { return g.name }

// AddNode registers a node.
func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) *Graph[S] {
	switch {
	case name == "" || name == End:
		g.errs = append(g.errs, fmt.Errorf("%w: name %q is reserved", ErrInvalidNode, name))
	case fn == nil:
		g.errs = append(g.errs, fmt.Errorf("%w: %q has nil function", ErrInvalidNode, name))
	case g.nodes[name] != nil:
		g.errs = append(g.errs, fmt.Errorf("%w: %q", ErrDuplicateNode, name))
	default:
		g.nodes[name] = fn
		g.order = append(g.order, name)
	}
	return g
}

// AddEdge adds an unconditional edge from one node to another (or End).
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	return g.setEdge(from, DirectEdge{To: to})
}

// AddConditionalEdges routes from a node by outcome. The routes map takes
// each outcome name returned by router to a target node (or End).
func (g *Graph[S]) AddConditionalEdges(from string, router RouterFunc[S], routes map[string]string) *Graph[S] {
	if router == nil || len(routes) == 0 {
		g.errs = append(g.errs, fmt.Errorf("workflow: conditional edge from %q needs a router and routes", from))
		return g
	}
	return g.setEdge(from, ConditionalEdge[S]{Router: router, Routes: maps.Clone(routes)})
}

func (g *Graph[S]) setEdge(from string, e Edge) *Graph[S] {
	if _, exists := g.edges[from]; exists {
		g.errs = append(g.errs, fmt.Errorf("%w: %q", ErrDuplicateEdge, from))
		return g
	}
	g.edges[from] = e
	return g
}

// SetEntryPoint selects the first node of every run.
func (g *Graph[S]) SetEntryPoint(name string) *Graph[S] {
	g.entry = name
	return g
}

// Nodes returns node names in registration order.
func (g *Graph[S]) Nodes() []string {
	return slices.Clone(g.order)
}

// Edges returns a copy of the edge table keyed by source node.
func (g *Graph[S]) Edges() map[string]Edge {
	return maps.Clone(g.edges)
}

// Validate reports every structural problem in the graph.
func (g *Graph[S]) Validate() error {
	errs := slices.Clone(g.errs)

	if g.entry == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if g.nodes[g.entry] == nil {
		errs = append(errs, fmt.Errorf("%w: entry point %q", ErrNodeNotFound, g.entry))
	}

	for _, from := range slices.Sorted(maps.Keys(g.edges)) {
		if g.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("%w: edge source %q", ErrNodeNotFound, from))
		}
		for _, to := range g.edges[from].Targets() {
			if to != End && g.nodes[to] == nil {
				errs = append(errs, fmt.Errorf("%w: edge %q -> %q", ErrNodeNotFound, from, to))
			}
		}
	}

	for _, name := range g.order {
		if _, ok := g.edges[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrMissingEdge, name))
		}
	}

	return errors.Join(errs...)
}

// Compile validates the graph and returns an immutable engine.
func (g *Graph[S]) Compile(opts ...Option) (*Engine[S], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	options := ApplyOptions(opts...)

	return &Engine[S]{
		name:      g.name,
		nodes:     maps.Clone(g.nodes),
		order:     slices.Clone(g.order),
		edges:     maps.Clone(g.edges),
		entry:     g.entry,
		logger:    options.Logger.With("graph", g.name),
		observers: slices.Clone(options.observers),
	}, nil
}
