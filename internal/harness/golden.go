package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/lgmkit/lgmkit/internal/engine"
	"github.com/lgmkit/lgmkit/internal/expr"
)

// Snapshot captures the evaluation result for a scenario execution.
// JSON serialization is deterministic: struct fields keep declaration
// order and encoding/json sorts map keys.
type Snapshot struct {
	ScenarioName string             `json:"scenario_name"`
	Effects      []engine.Effects   `json:"effects,omitempty"`
	Predictor    *PredictorSnapshot `json:"predictor,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// PredictorSnapshot is the serializable form of a predictor output.
type PredictorSnapshot struct {
	Format  string        `json:"format"`
	NRows   int           `json:"nrows,omitempty"`
	Columns [][]float64   `json:"columns,omitempty"`
	Items   []interface{} `json:"items,omitempty"`
}

// RunWithGolden executes a scenario and compares the snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Effects:      result.Effects,
		Warnings:     result.Warnings,
	}
	if result.Predictor != nil {
		ps, err := snapshotPredictor(result.Predictor)
		if err != nil {
			return err
		}
		snapshot.Predictor = ps
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

// snapshotPredictor flattens the sealed output variants for serialization.
func snapshotPredictor(out engine.Output) (*PredictorSnapshot, error) {
	switch o := out.(type) {
	case *engine.Matrix:
		return &PredictorSnapshot{Format: "matrix", NRows: o.NRows, Columns: o.Columns}, nil
	case *engine.List:
		items := make([]interface{}, len(o.Items))
		for i, v := range o.Items {
			item, err := snapshotValue(v)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return &PredictorSnapshot{Format: "list", Items: items}, nil
	default:
		return nil, fmt.Errorf("unexpected predictor output %T", out)
	}
}

func snapshotValue(v expr.Value) (interface{}, error) {
	switch val := v.(type) {
	case expr.Scalar:
		return float64(val), nil
	case expr.Vector:
		return []float64(val), nil
	case expr.Str:
		return string(val), nil
	case expr.Strings:
		return []string(val), nil
	case expr.FrameVal:
		cols := make(map[string]interface{}, len(val.Frame.Names()))
		for _, name := range val.Frame.Names() {
			cols[name] = val.Frame.Column(name)
		}
		return cols, nil
	default:
		return nil, fmt.Errorf("cannot serialize value %T", v)
	}
}
