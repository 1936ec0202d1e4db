package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spetersoncode/novelreview/workflow"
)

// Stages lists the analysis stages in graph order.
var Stages = []string{
	NodeTextType,
	NodeSummary,
	NodeGenre,
	NodeEvaluation,
	NodeScoreGate,
	NodeStyle,
	NodeCharacters,
	NodeCharacterCards,
}

// stageFuncs returns the node function for every stage, isolated under its
// graph name.
func stageFuncs(analyzer Analyzer, options *Options) map[string]workflow.NodeFunc[AnalysisState] {
	n := nodes{analyzer: analyzer}
	return map[string]workflow.NodeFunc[AnalysisState]{
		NodeTextType:       isolated(NodeTextType, n.textType),
		NodeSummary:        isolated(NodeSummary, n.summary),
		NodeGenre:          isolated(NodeGenre, n.genre),
		NodeEvaluation:     isolated(NodeEvaluation, n.evaluation),
		NodeScoreGate:      Gate{Threshold: options.ScoreThreshold}.Node(),
		NodeStyle:          isolated(NodeStyle, n.style),
		NodeCharacters:     isolated(NodeCharacters, n.characters),
		NodeCharacterCards: isolated(NodeCharacterCards, n.characterCards),
	}
}

// ParseStages splits a comma-separated stage list and checks every name.
func ParseStages(list string) ([]string, error) {
	var stages []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !slices.Contains(Stages, name) {
			return nil, fmt.Errorf("pipeline: unknown stage %q (want one of %s)", name, strings.Join(Stages, ", "))
		}
		stages = append(stages, name)
	}
	if len(stages) == 0 {
		return nil, errors.New("pipeline: no stages selected")
	}
	return stages, nil
}

// RunStages runs the named stages against state without following the
// graph's routes. Stages run in graph order regardless of the order given.
//
// Prerequisites run first when their result is missing: evaluation runs
// genre detection when state has no genre, and the score gate runs
// evaluation when state has no evaluation. Running summary discards every
// result derived from the old summary, and running evaluation discards the
// old gate decision.
//
// Collaborator failures are recorded in the returned state as in Run.
func (p *Pipeline) RunStages(ctx context.Context, state AnalysisState, stages ...string) (AnalysisState, error) {
	if len(stages) == 0 {
		return state, errors.New("pipeline: no stages selected")
	}
	selected := make(map[string]bool, len(stages))
	for _, name := range stages {
		if _, ok := p.stages[name]; !ok {
			return state, fmt.Errorf("pipeline: unknown stage %q", name)
		}
		selected[name] = true
	}

	ctx = workflow.ContextWithLogger(ctx, p.logger.With("graph", GraphName, "mode", "stages"))
	r := &stageRun{stages: p.stages, ran: make(map[string]bool, len(Stages)), state: state.Clone()}
	for _, name := range Stages {
		if !selected[name] {
			continue
		}
		if err := r.run(ctx, name); err != nil {
			return r.state, err
		}
	}
	return r.state, nil
}

type stageRun struct {
	stages map[string]workflow.NodeFunc[AnalysisState]
	ran    map[string]bool
	state  AnalysisState
}

func (r *stageRun) run(ctx context.Context, name string) error {
	if r.ran[name] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	switch name {
	case NodeEvaluation:
		if r.state.Genre == nil {
			if err := r.run(ctx, NodeGenre); err != nil {
				return err
			}
		}
	case NodeScoreGate:
		if r.state.Evaluation == nil {
			if err := r.run(ctx, NodeEvaluation); err != nil {
				return err
			}
		}
	}

	r.state = r.state.reset(name)
	workflow.LoggerFrom(ctx).DebugContext(ctx, "stage started", "node", name)
	next, err := r.stages[name](ctx, r.state)
	if err != nil {
		return &workflow.StepError{Node: name, Err: err}
	}
	r.state = next
	r.ran[name] = true
	return nil
}

// reset returns s without the results that running stage makes stale.
func (s AnalysisState) reset(stage string) AnalysisState {
	switch stage {
	case NodeSummary:
		s.Genre = nil
		s.Evaluation = nil
		s.ScoreGate = nil
		s.Style = nil
		s.Characters = nil
		s.CharacterCards = nil
	case NodeEvaluation:
		s.ScoreGate = nil
	}
	return s
}
