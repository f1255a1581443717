package evaluation

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/fsutil"
	"github.com/banshee-data/vio-eval/internal/monitoring"
)

// RunDescriptor is a run folder together with the settings it was run with,
// as written to {folder}/setup/setup.yaml.
type RunDescriptor struct {
	Folder   string
	Setup    map[string]any
	Finished bool
}

// Dataset maps the setup's "dataset" entry to a Dataset.
func (rd RunDescriptor) Dataset() (dataset.Dataset, error) {
	v, ok := rd.Setup["dataset"]
	if !ok {
		return 0, fmt.Errorf("%w: setup has no dataset", dataset.ErrUnknownDataset)
	}
	return dataset.ParseName(fmt.Sprint(v))
}

// NumIter returns the setup's "num_iter" entry.
func (rd RunDescriptor) NumIter() (int, error) {
	switch v := rd.Setup["num_iter"].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case nil:
		return 0, fmt.Errorf("setup has no num_iter")
	}
	return 0, fmt.Errorf("invalid num_iter %v", rd.Setup["num_iter"])
}

// Temporary reports whether the run was marked temporary.
func (rd RunDescriptor) Temporary() bool {
	t, ok := rd.Setup["temporary"].(bool)
	return ok && t
}

// FinishedOrTemporary keeps runs that completed or are marked temporary.
func FinishedOrTemporary(rd RunDescriptor) bool {
	return rd.Finished || rd.Temporary()
}

// LoadRunDescriptors reads the setup of every run folder directly below
// resultsFolder, in name order. Children without a readable setup.yaml are
// skipped with a warning.
func LoadRunDescriptors(fsys fsutil.FileSystem, resultsFolder string) ([]RunDescriptor, error) {
	children, err := fsys.ReadDir(resultsFolder)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resultsFolder, err)
	}

	var out []RunDescriptor
	for _, child := range children {
		folder := filepath.Join(resultsFolder, child)
		setupPath := filepath.Join(folder, "setup", "setup.yaml")
		if !fsys.Exists(setupPath) {
			monitoring.Warnf("skipping %s, because the setup file does not exist", folder)
			continue
		}
		data, err := fsys.ReadFile(setupPath)
		if err != nil {
			monitoring.Warnf("skipping %s: %v", folder, err)
			continue
		}
		var setup map[string]any
		if err := yaml.Unmarshal(data, &setup); err != nil {
			monitoring.Warnf("skipping %s: invalid setup: %v", folder, err)
			continue
		}
		if setup == nil {
			setup = map[string]any{}
		}
		out = append(out, RunDescriptor{
			Folder:   folder,
			Setup:    setup,
			Finished: fsys.Exists(filepath.Join(folder, "setup", "Finished.txt")),
		})
	}
	return out, nil
}

// RunEvaluation is the outcome of evaluating one run in EvaluateAll.
type RunEvaluation struct {
	Run              RunDescriptor
	Estimated        *Result
	GroundtruthScale *Result
	Err              error
}

// EvaluateAll evaluates every run with up to run_workers runs in flight.
// The output has one entry per descriptor, in input order; a failing run
// records its error and does not stop the others.
func (e *Evaluator) EvaluateAll(ctx context.Context, runs []RunDescriptor, alwaysReevaluate bool) ([]RunEvaluation, error) {
	out := make([]RunEvaluation, len(runs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.runWorkers, 1))
	for i, rd := range runs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			est, gt, err := e.EvaluateWithConfig(gctx, rd, alwaysReevaluate)
			out[i] = RunEvaluation{Run: rd, Estimated: est, GroundtruthScale: gt, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
