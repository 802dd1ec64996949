// Package harness provides a conformance testing framework for model
// evaluation. A scenario pins a model definition, a data frame and a state
// sequence; running it produces an evaluation snapshot that is compared
// against a golden file.
//
// Scenarios are deterministic by construction: states are given explicitly
// rather than sampled, and IID deviates are either absent or pinned with a
// fixed seed. A scenario whose golden output depends on process-wide
// randomness is a scenario bug.
package harness

import (
	"fmt"
	"io"
	"log/slog"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/lgmkit/lgmkit/internal/compiler"
	"github.com/lgmkit/lgmkit/internal/dataset"
	"github.com/lgmkit/lgmkit/internal/engine"
	"github.com/lgmkit/lgmkit/internal/model"
	"github.com/lgmkit/lgmkit/internal/state"
)

// Result holds the outcome of running a scenario.
type Result struct {
	Effects   []engine.Effects
	Predictor engine.Output
	Warnings  []string
}

// Run executes a scenario and returns the evaluation result.
//
// Execution flow:
//  1. Compile the model from the scenario's CUE files
//  2. Build the data frame (inline columns or data file)
//  3. Resolve the state sequence (explicit states or zero fallback)
//  4. Evaluate effects, and the predictor expression when given
func Run(scenario *Scenario) (*Result, error) {
	m, err := compileModel(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("compiling model: %w", err)
	}

	frame, err := loadFrame(scenario)
	if err != nil {
		return nil, fmt.Errorf("loading data: %w", err)
	}

	states := scenarioStates(scenario, m)

	ev, err := engine.New(m, frame,
		engine.WithInclude(scenario.Include),
		engine.WithExclude(scenario.Exclude),
		engine.WithSeed(scenario.Seed),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)
	if err != nil {
		return nil, err
	}

	out, err := ev.EvaluateModel(engine.StateSequence(states), scenario.Predictor, scenario.Format)
	if err != nil {
		return nil, err
	}

	result := &Result{Effects: out.Effects, Predictor: out.Predictor}
	for _, w := range ev.Warnings() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", w.Label, w.Message))
	}
	return result, nil
}

func compileModel(files []string) (*model.Model, error) {
	instances := load.Instances(files, &load.Config{})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, inst.Err
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, err
	}
	return compiler.CompileModel(value)
}

// loadFrame builds the data frame from the inline columns or the data file.
func loadFrame(scenario *Scenario) (*dataset.Frame, error) {
	if scenario.DataFile != "" {
		return dataset.LoadYAML(scenario.DataFile)
	}
	// Round-trip the inline node through YAML so column order is kept.
	// The scenario holds the columns bare; ParseYAML wants them under a
	// top-level columns mapping.
	raw, err := yaml.Marshal(map[string]*yaml.Node{"columns": &scenario.Data})
	if err != nil {
		return nil, err
	}
	return dataset.ParseYAML(raw)
}

func scenarioStates(scenario *Scenario, m *model.Model) []state.State {
	if len(scenario.States) == 0 {
		return []state.State{state.ZeroState(m)}
	}
	states := make([]state.State, len(scenario.States))
	for i, st := range scenario.States {
		states[i] = state.State(st)
	}
	return states
}
