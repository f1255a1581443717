package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is one timestamped position of a trajectory.
type Sample struct {
	Time     float64
	Position r3.Vec
}

// Track is a trajectory ordered by timestamp.
type Track []Sample

// Times returns the sample timestamps in order.
func (t Track) Times() []float64 {
	out := make([]float64, len(t))
	for i, s := range t {
		out[i] = s.Time
	}
	return out
}

// ReadTrack parses a pose-per-line trajectory file. Fields may be separated
// by spaces, tabs or commas; the first field is the timestamp and the next
// three are the position. Remaining fields (orientation) are ignored.
// Blank lines and lines starting with '#' are skipped.
func ReadTrack(r io.Reader) (Track, error) {
	var track Track
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == ',' || r == '\t'
		})
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected timestamp and position, got %d fields", lineNo, len(fields))
		}

		var vals [4]float64
		for i := range vals {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q: %w", lineNo, fields[i], err)
			}
			vals[i] = v
		}
		track = append(track, Sample{
			Time:     vals[0],
			Position: r3.Vec{X: vals[1], Y: vals[2], Z: vals[3]},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read track: %w", err)
	}

	sort.SliceStable(track, func(i, j int) bool { return track[i].Time < track[j].Time })
	return track, nil
}
