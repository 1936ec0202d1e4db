// Package pipeline assembles the manuscript analysis graph.
//
// A run classifies the text, then follows one of three paths: novel text
// is summarized before genre detection, scenario and plot text go straight
// to genre detection, and unclassifiable text stops immediately. After
// evaluation the score gate either stops the run or continues to style,
// character and character-card analysis.
//
// Every analysis node is wrapped with error isolation: a failing
// collaborator adds an entry to AnalysisState.Errors and leaves its field
// nil. Callers tell intentional early stops (nil fields, no errors) apart
// from failures (entries in Errors).
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spetersoncode/novelreview/workflow"
)

// GraphName names the manuscript graph in logs and events.
const GraphName = "manuscript"

// Pipeline runs the manuscript graph. It is safe for concurrent use.
type Pipeline struct {
	graph  *workflow.Graph[AnalysisState]
	engine *workflow.Engine[AnalysisState]
	stages map[string]workflow.NodeFunc[AnalysisState]
	logger *slog.Logger
}

// BuildGraph assembles the manuscript graph over analyzer.
func BuildGraph(analyzer Analyzer, opts ...Option) *workflow.Graph[AnalysisState] {
	options := ApplyOptions(opts...)
	stages := stageFuncs(analyzer, options)

	g := workflow.NewGraph[AnalysisState](GraphName)
	for _, name := range Stages {
		g.AddNode(name, stages[name])
	}
	return g.SetEntryPoint(NodeTextType).
		AddConditionalEdges(NodeTextType, RouteByTextType, map[string]string{
			RouteNovel:    NodeSummary,
			RoutePlanning: NodeGenre,
			RouteUnknown:  workflow.End,
		}).
		AddEdge(NodeSummary, NodeGenre).
		// Both outcomes continue to evaluation; low confidence is a hook for
		// a future re-analysis node.
		AddConditionalEdges(NodeGenre, GenreConfidenceRouter(options.GenreConfidenceThreshold), map[string]string{
			RouteContinue:      NodeEvaluation,
			RouteLowConfidence: NodeEvaluation,
		}).
		AddEdge(NodeEvaluation, NodeScoreGate).
		AddConditionalEdges(NodeScoreGate, RouteByScore, map[string]string{
			RouteDeep: NodeStyle,
			RouteStop: workflow.End,
		}).
		AddEdge(NodeStyle, NodeCharacters).
		AddEdge(NodeCharacters, NodeCharacterCards).
		AddEdge(NodeCharacterCards, workflow.End)
}

// New compiles the manuscript graph.
func New(analyzer Analyzer, opts ...Option) (*Pipeline, error) {
	if analyzer == nil {
		return nil, errors.New("pipeline: nil analyzer")
	}
	options := ApplyOptions(opts...)
	if err := options.validate(); err != nil {
		return nil, err
	}

	graph := BuildGraph(analyzer, opts...)
	engineOpts := []workflow.Option{workflow.WithLogger(options.Logger)}
	for _, obs := range options.Observers {
		engineOpts = append(engineOpts, workflow.WithObserver(obs))
	}
	engine, err := graph.Compile(engineOpts...)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		graph:  graph,
		engine: engine,
		stages: stageFuncs(analyzer, options),
		logger: options.Logger,
	}, nil
}

// Run analyzes text and returns the final state. Collaborator failures are
// recorded in the state; a non-nil error indicates a defect in the graph
// itself and is returned with the partial state.
func (p *Pipeline) Run(ctx context.Context, text string) (AnalysisState, error) {
	return p.engine.Run(ctx, NewState(text))
}

// Edges returns the graph's edge table.
func (p *Pipeline) Edges() map[string]workflow.Edge { return p.graph.Edges() }

// Nodes returns the graph's node names in registration order.
func (p *Pipeline) Nodes() []string { return p.graph.Nodes() }

// Mermaid renders the graph as a Mermaid flowchart.
func (p *Pipeline) Mermaid() string { return p.engine.Mermaid() }

// Run analyzes text with a default pipeline.
func Run(ctx context.Context, analyzer Analyzer, text string) (AnalysisState, error) {
	p, err := New(analyzer)
	if err != nil {
		return NewState(text), err
	}
	return p.Run(ctx, text)
}
