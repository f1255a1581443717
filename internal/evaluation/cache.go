package evaluation

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/vio-eval/internal/config"
	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/fsutil"
	"github.com/banshee-data/vio-eval/internal/monitoring"
)

const (
	// CacheFileName is the snapshot file inside a run's setup folder.
	CacheFileName = "evaluation_results.txt"

	// CacheFormatVersion is written to every snapshot. Version 1 files carry
	// no format_version key and store the error grid under "scales".
	CacheFormatVersion = 2
)

type snapshotGrids struct {
	Errors         [][]float64 `yaml:"errors"`
	Scales         [][]float64 `yaml:"scales"`
	ScaleErrors    [][]float64 `yaml:"scale_errors"`
	PercentageDone [][]float64 `yaml:"percentage_done"`
}

type snapshot struct {
	FormatVersion  int            `yaml:"format_version,omitempty"`
	FolderNames    []string       `yaml:"folder_names"`
	Results        *snapshotGrids `yaml:"results"`
	ResultsGTScale *snapshotGrids `yaml:"results_gt_scale"`
}

// Cache memoizes the evaluation of a run in {run}/setup. It is never
// invalidated when the run's files change; callers force a recompute instead.
type Cache struct {
	fs           fsutil.FileSystem
	legacyPolicy string
}

// NewCache creates a Cache. legacyPolicy decides how version 1 snapshots are
// handled; see config.LegacyCacheRecompute and config.LegacyCacheAccept.
func NewCache(fsys fsutil.FileSystem, legacyPolicy string) *Cache {
	return &Cache{fs: fsys, legacyPolicy: legacyPolicy}
}

// CachePath returns the snapshot path of a run folder.
func CachePath(runFolder string) string {
	return filepath.Join(runFolder, "setup", CacheFileName)
}

// TryLoad returns the cached estimated-scale and groundtruth-scale results of
// runFolder. The snapshot must hold numIter iterations of exactly the
// sequences names. Any problem with the snapshot is a miss, never an error.
func (c *Cache) TryLoad(runFolder string, d dataset.Dataset, numIter int, names []string) (*Result, *Result, bool) {
	path := CachePath(runFolder)
	if !c.fs.Exists(path) {
		return nil, nil, false
	}
	data, err := c.fs.ReadFile(path)
	if err != nil {
		monitoring.Warnf("cannot read cached evaluation %s: %v", path, err)
		return nil, nil, false
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		monitoring.Warnf("ignoring corrupt cached evaluation %s: %v", path, err)
		return nil, nil, false
	}

	switch {
	case snap.FormatVersion == 0 && c.legacyPolicy == config.LegacyCacheAccept:
		monitoring.Warnf("loading legacy cached evaluation %s, its scales are unreliable", path)
	case snap.FormatVersion == 0:
		monitoring.Logf("legacy cached evaluation %s, re-evaluating", path)
		return nil, nil, false
	case snap.FormatVersion != CacheFormatVersion:
		monitoring.Warnf("unsupported cache format %d in %s", snap.FormatVersion, path)
		return nil, nil, false
	}

	if snap.FolderNames == nil || snap.Results == nil || snap.ResultsGTScale == nil {
		monitoring.Logf("cached evaluation %s is incomplete, re-evaluating", path)
		return nil, nil, false
	}
	if !slices.Equal(snap.FolderNames, names) {
		monitoring.Logf("cached evaluation %s covers other sequences, re-evaluating", path)
		return nil, nil, false
	}
	est, err := snap.Results.result(runFolder, d, snap.FolderNames)
	if err != nil {
		monitoring.Warnf("ignoring cached evaluation %s: results: %v", path, err)
		return nil, nil, false
	}
	gt, err := snap.ResultsGTScale.result(runFolder, d, snap.FolderNames)
	if err != nil {
		monitoring.Warnf("ignoring cached evaluation %s: results_gt_scale: %v", path, err)
		return nil, nil, false
	}
	if est.NumIter() != numIter {
		monitoring.Logf("cached evaluation %s has %d iterations, want %d, re-evaluating", path, est.NumIter(), numIter)
		return nil, nil, false
	}
	return est, gt, true
}

// Save overwrites the snapshot of runFolder with est and gt.
func (c *Cache) Save(runFolder string, est, gt *Result) error {
	snap := snapshot{
		FormatVersion:  CacheFormatVersion,
		FolderNames:    est.SequenceNames,
		Results:        gridsOf(est),
		ResultsGTScale: gridsOf(gt),
	}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshal evaluation results: %w", err)
	}

	path := CachePath(runFolder)
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create setup folder: %w", err)
	}
	if err := c.fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func gridsOf(r *Result) *snapshotGrids {
	return &snapshotGrids{
		Errors:         rowsOf(r.Errors),
		Scales:         rowsOf(r.Scales),
		ScaleErrors:    rowsOf(r.ScaleErrors),
		PercentageDone: rowsOf(r.PercentageDone),
	}
}

func rowsOf(m *mat.Dense) [][]float64 {
	rows, _ := m.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func (g *snapshotGrids) result(runFolder string, d dataset.Dataset, names []string) (*Result, error) {
	grids := make([]*mat.Dense, 4)
	for i, field := range []struct {
		key  string
		rows [][]float64
	}{
		{"errors", g.Errors},
		{"scales", g.Scales},
		{"scale_errors", g.ScaleErrors},
		{"percentage_done", g.PercentageDone},
	} {
		m, err := denseOf(field.rows, len(names))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.key, err)
		}
		grids[i] = m
	}
	return NewResult(runFolder, d, names, grids[0], grids[1], grids[2], grids[3])
}

// denseOf converts a row list into a matrix with cols columns. Ragged rows
// and NaN values are rejected.
func denseOf(rows [][]float64, cols int) (*mat.Dense, error) {
	if len(rows) == 0 || cols == 0 {
		return nil, fmt.Errorf("missing or empty grid")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		for _, v := range row {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("row %d contains NaN", i)
			}
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
