package evaluation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/vio-eval/internal/config"
	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/db"
	"github.com/banshee-data/vio-eval/internal/fsutil"
	"github.com/banshee-data/vio-eval/internal/monitoring"
	"github.com/banshee-data/vio-eval/internal/timeutil"
	"github.com/banshee-data/vio-eval/internal/trajectory"
)

// SequenceSource provides the groundtruth sequences of a dataset.
// *dataset.Catalog implements it.
type SequenceSource interface {
	Sequences(d dataset.Dataset) ([]dataset.Sequence, float64, error)
	// SequenceNames lists the sequences of d without loading them.
	SequenceNames(d dataset.Dataset) []string
}

// Recorder persists evaluation summaries. *db.DB implements it.
type Recorder interface {
	Record(ctx context.Context, s db.Summary) (string, error)
}

// EvaluatorConfig holds the collaborators of an Evaluator. Nil fields get
// defaults built from Config.
type EvaluatorConfig struct {
	FS      fsutil.FileSystem
	Catalog SequenceSource
	Adapter trajectory.Adapter
	// Store is optional; when set, every fresh evaluation is recorded.
	Store  Recorder
	Config *config.EvalConfig
	// Clock times evaluations for the log; defaults to the real clock.
	Clock timeutil.Clock
}

// Evaluator computes and memoizes run evaluations.
type Evaluator struct {
	catalog    SequenceSource
	cache      *Cache
	store      Recorder
	agg        *aggregator
	runWorkers int
	clock      timeutil.Clock
}

// NewEvaluator creates an Evaluator from cfg.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	ec := cfg.Config
	if ec == nil {
		ec = config.EmptyEvalConfig()
	}
	fsys := cfg.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = dataset.NewCatalog(fsys, ec.GetGroundtruthRoot())
	}
	adapter := cfg.Adapter
	if adapter == nil {
		adapter = trajectory.NewAligner(fsys)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	return &Evaluator{
		catalog: catalog,
		cache:   NewCache(fsys, ec.GetLegacyCachePolicy()),
		store:   cfg.Store,
		agg: &aggregator{
			fs:            fsys,
			adapter:       adapter,
			scaleFileName: ec.GetScaleFileName(),
			tolerance:     ec.GetAssociationTolerance(),
			workers:       ec.GetCellWorkers(),
		},
		runWorkers: ec.GetRunWorkers(),
		clock:      clock,
	}
}

// EvaluateRun returns the estimated-scale and groundtruth-scale results of a
// run. A cached evaluation is returned as-is unless alwaysReevaluate is set.
// A non-empty name labels the results (the groundtruth-scale one with the
// "gt_scale_" prefix).
func (e *Evaluator) EvaluateRun(ctx context.Context, runFolder string, d dataset.Dataset, numIter int, name string, alwaysReevaluate bool) (*Result, *Result, error) {
	if numIter < 1 {
		return nil, nil, fmt.Errorf("evaluate %s: num_iter must be at least 1, got %d", runFolder, numIter)
	}

	if !alwaysReevaluate {
		if est, gt, ok := e.cache.TryLoad(runFolder, d, numIter, e.catalog.SequenceNames(d)); ok {
			monitoring.Logf("Loaded pre-evaluated results from %s", CachePath(runFolder))
			nameResults(est, gt, name)
			return est, gt, nil
		}
	}

	monitoring.Logf("Evaluating %s (%s, %d iterations)", runFolder, d, numIter)
	start := e.clock.Now()
	seqs, threshold, err := e.catalog.Sequences(d)
	if err != nil {
		return nil, nil, err
	}

	est, gt, err := e.agg.aggregate(ctx, runFolder, d, seqs, threshold, numIter)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", runFolder, err)
	}
	monitoring.Logf("Evaluated %s in %s", runFolder, e.clock.Since(start).Round(time.Millisecond))

	if err := e.cache.Save(runFolder, est, gt); err != nil {
		monitoring.Warnf("could not save evaluation of %s: %v", runFolder, err)
	}

	nameResults(est, gt, name)
	if e.store != nil {
		e.record(ctx, est, gt)
	}
	return est, gt, nil
}

// EvaluateWithConfig evaluates the run described by rd. The dataset is
// taken from the run's setup; an unrecognised dataset aborts the call.
func (e *Evaluator) EvaluateWithConfig(ctx context.Context, rd RunDescriptor, alwaysReevaluate bool) (*Result, *Result, error) {
	d, err := rd.Dataset()
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", rd.Folder, err)
	}
	numIter, err := rd.NumIter()
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", rd.Folder, err)
	}
	return e.EvaluateRun(ctx, rd.Folder, d, numIter, "", alwaysReevaluate)
}

func (e *Evaluator) record(ctx context.Context, est, gt *Result) {
	for _, s := range []db.Summary{summaryOf(est, db.VariantEstimated), summaryOf(gt, db.VariantGroundtruthScale)} {
		if _, err := e.store.Record(ctx, s); err != nil {
			monitoring.Warnf("could not record %s evaluation of %s: %v", s.Variant, s.RunFolder, err)
		}
	}
}

func summaryOf(r *Result, variant string) db.Summary {
	s := db.Summary{
		RunFolder: r.RunFolder,
		Dataset:   r.Dataset.String(),
		Variant:   variant,
		Name:      r.Name,
		NumIter:   r.NumIter(),
		Sequences: make([]db.SequenceSummary, len(r.SequenceNames)),
	}
	for i, name := range r.SequenceNames {
		completed := 0
		for k := 0; k < r.NumIter(); k++ {
			if !math.IsInf(r.Errors.At(k, i), 0) {
				completed++
			}
		}
		s.Sequences[i] = db.SequenceSummary{
			Sequence:         name,
			MedianError:      r.MedianErrors[i],
			MedianScaleError: r.MedianScaleErrors[i],
			MedianIndex:      r.MedianIndex[i],
			CompletedRuns:    completed,
		}
	}
	return s
}
