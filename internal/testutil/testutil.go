// Package testutil provides shared test utilities and fixtures.
//
// The fixtures build synthetic groundtruth stores and run folders on an
// fsutil.FileSystem so evaluation tests do not need the real benchmarks.
package testutil

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/fsutil"
	"github.com/banshee-data/vio-eval/internal/trajectory"
)

// FramePeriod is the spacing of synthetic frame timestamps in seconds.
const FramePeriod = 0.05

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// HelixTrack returns a non-planar groundtruth track with one sample per frame.
func HelixTrack(frames int) trajectory.Track {
	tr := make(trajectory.Track, frames)
	for i := range tr {
		a := float64(i) * 0.02
		tr[i] = trajectory.Sample{
			Time:     float64(i) * FramePeriod,
			Position: r3.Vec{X: 5 * math.Cos(a), Y: 5 * math.Sin(a), Z: 0.01 * float64(i)},
		}
	}
	return tr
}

// FormatTrack renders a track as pose-per-line text with identity orientation.
func FormatTrack(tr trajectory.Track) string {
	var b strings.Builder
	for _, s := range tr {
		fmt.Fprintf(&b, "%.6f %.9f %.9f %.9f 0 0 0 1\n", s.Time, s.Position.X, s.Position.Y, s.Position.Z)
	}
	return b.String()
}

// FormatTimes renders a times file with the given number of frames.
func FormatTimes(frames int) string {
	var b strings.Builder
	b.WriteString("# frame timestamp exposure\n")
	for i := 0; i < frames; i++ {
		fmt.Fprintf(&b, "%05d %.6f 1.0\n", i, float64(i)*FramePeriod)
	}
	return b.String()
}

// WriteGroundtruth writes gtFiles and timesFiles for every sequence of d
// below root.
func WriteGroundtruth(t *testing.T, fsys fsutil.FileSystem, root string, d dataset.Dataset, frames int) {
	t.Helper()
	def := d.Definition()
	track := FormatTrack(HelixTrack(frames))
	times := FormatTimes(frames)
	for _, name := range def.SequenceNames() {
		gtPath := filepath.Join(root, def.Folder, "gtFiles", name+".txt")
		timesPath := filepath.Join(root, def.Folder, "timesFiles", name+".txt")
		AssertNoError(t, fsys.MkdirAll(filepath.Dir(gtPath), 0o755))
		AssertNoError(t, fsys.MkdirAll(filepath.Dir(timesPath), 0o755))
		AssertNoError(t, fsys.WriteFile(gtPath, []byte(track), 0o644))
		AssertNoError(t, fsys.WriteFile(timesPath, []byte(times), 0o644))
	}
}

// EstimatePath is the result file of one (sequence, iteration) cell.
func EstimatePath(runFolder, sequence string, iter int) string {
	return filepath.Join(runFolder, "results", fmt.Sprintf("%s_%d.txt", sequence, iter))
}

// ScalePath is the scale log of one (sequence, iteration) cell.
func ScalePath(runFolder, sequence string, iter int) string {
	return filepath.Join(runFolder, fmt.Sprintf("%s_%d", sequence, iter), "scalesdso.txt")
}

// WriteEstimate writes the samples of gt whose time lies in [from, to] with
// positions divided by scaleDiv, mimicking an unscaled monocular estimate.
func WriteEstimate(t *testing.T, fsys fsutil.FileSystem, path string, gt trajectory.Track, from, to, scaleDiv float64) {
	t.Helper()
	var est trajectory.Track
	for _, s := range gt {
		if s.Time < from || s.Time > to {
			continue
		}
		est = append(est, trajectory.Sample{Time: s.Time, Position: r3.Scale(1/scaleDiv, s.Position)})
	}
	AssertNoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	AssertNoError(t, fsys.WriteFile(path, []byte(FormatTrack(est)), 0o644))
}

// WriteScaleLog writes a scale log whose last line carries scale.
func WriteScaleLog(t *testing.T, fsys fsutil.FileSystem, path string, scale float64) {
	t.Helper()
	body := fmt.Sprintf("0.000000 1.000000\n1.000000 %.9f\n", scale)
	AssertNoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	AssertNoError(t, fsys.WriteFile(path, []byte(body), 0o644))
}
