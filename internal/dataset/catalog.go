package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/vio-eval/internal/fsutil"
	"github.com/banshee-data/vio-eval/internal/trajectory"
)

// Sequence is one benchmark sequence with its groundtruth loaded.
type Sequence struct {
	// Name is the prefixed folder name used in result file names.
	Name            string
	StartFrame      int
	EndFrame        int
	TimesFile       string
	GroundtruthFile string
	Track           trajectory.Track
	Times           []float64
	// Duration is the time between the start and end frame.
	Duration float64
}

// CatalogLoadError reports a groundtruth or times file that could not be
// loaded. It is fatal to an evaluation: every sequence is needed up front.
type CatalogLoadError struct {
	Dataset  Dataset
	Sequence string
	Path     string
	Err      error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load %s groundtruth for %s (%s): %v", e.Dataset, e.Sequence, e.Path, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// Catalog loads groundtruth from Root/{folder}/gtFiles and
// Root/{folder}/timesFiles.
type Catalog struct {
	FS   fsutil.FileSystem
	Root string
}

// NewCatalog creates a Catalog reading groundtruth below root.
func NewCatalog(fsys fsutil.FileSystem, root string) *Catalog {
	return &Catalog{FS: fsys, Root: root}
}

// SequenceNames returns the prefixed sequence names of d in evaluation order.
func (c *Catalog) SequenceNames(d Dataset) []string {
	return d.Definition().SequenceNames()
}

// Sequences loads every sequence of d in evaluation order and returns them
// with the dataset's completion threshold.
func (c *Catalog) Sequences(d Dataset) ([]Sequence, float64, error) {
	def := d.Definition()
	base := filepath.Join(c.Root, def.Folder)

	names := c.SequenceNames(d)
	seqs := make([]Sequence, 0, len(def.Sequences))
	for i, spec := range def.Sequences {
		name := names[i]
		seq := Sequence{
			Name:            name,
			StartFrame:      spec.StartFrame,
			EndFrame:        spec.EndFrame,
			TimesFile:       filepath.Join(base, "timesFiles", name+".txt"),
			GroundtruthFile: filepath.Join(base, "gtFiles", name+".txt"),
		}
		loadErr := func(path string, err error) error {
			return &CatalogLoadError{Dataset: d, Sequence: name, Path: path, Err: err}
		}

		gtData, err := c.FS.ReadFile(seq.GroundtruthFile)
		if err != nil {
			return nil, 0, loadErr(seq.GroundtruthFile, err)
		}
		if seq.Track, err = trajectory.ReadTrack(bytes.NewReader(gtData)); err != nil {
			return nil, 0, loadErr(seq.GroundtruthFile, err)
		}

		timesData, err := c.FS.ReadFile(seq.TimesFile)
		if err != nil {
			return nil, 0, loadErr(seq.TimesFile, err)
		}
		if seq.Times, err = ReadTimes(bytes.NewReader(timesData)); err != nil {
			return nil, 0, loadErr(seq.TimesFile, err)
		}
		if seq.Duration, err = duration(seq.Times, spec.StartFrame, spec.EndFrame); err != nil {
			return nil, 0, loadErr(seq.TimesFile, err)
		}

		seqs = append(seqs, seq)
	}
	return seqs, def.CompletionThreshold, nil
}

// ReadTimes parses a times file: one "id timestamp [exposure]" line per
// frame, '#' lines skipped. It returns the timestamps in file order.
func ReadTimes(r io.Reader) ([]float64, error) {
	var times []float64
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected frame id and timestamp", lineNo)
		}
		ts, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid timestamp %q: %w", lineNo, fields[1], err)
		}
		times = append(times, ts)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read times: %w", err)
	}
	return times, nil
}

func duration(times []float64, start, end int) (float64, error) {
	if end == LastFrame {
		end = len(times) - 1
	}
	if start < 0 || start >= len(times) || end < 0 || end >= len(times) {
		return 0, fmt.Errorf("frames [%d, %d] outside %d times", start, end, len(times))
	}
	return times[end] - times[start], nil
}
