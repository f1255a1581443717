package evaluation

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/vio-eval/internal/fsutil"
)

// ErrNoScale is wrapped by ParseError when the scale log has no usable line.
var ErrNoScale = errors.New("no scale entry")

// ParseError reports a scale log that could not be read. The cell it belongs
// to is skipped; the evaluation continues.
type ParseError struct {
	Path string
	// Line is 1-based; 0 when the file had no non-empty line.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse scale %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse scale %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadScale returns the latest scale estimate logged at path: the second
// whitespace-separated token of the last non-empty line.
func ReadScale(fsys fsutil.FileSystem, path string) (float64, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var last string
	lastNo, lineNo := 0, 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lineNo++
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last, lastNo = line, lineNo
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, &ParseError{Path: path, Err: err}
	}
	if lastNo == 0 {
		return 0, &ParseError{Path: path, Err: ErrNoScale}
	}

	fields := strings.Fields(last)
	if len(fields) < 2 {
		return 0, &ParseError{Path: path, Line: lastNo, Err: ErrNoScale}
	}
	scale, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, &ParseError{Path: path, Line: lastNo, Err: err}
	}
	return scale, nil
}

// ScaleError is the symmetric scale error in percent: a 2x overestimate and
// a 2x underestimate both give 100.
func ScaleError(estimated, gt float64) float64 {
	ratio := gt / estimated
	if ratio < 1 {
		ratio = 1 / ratio
	}
	return (ratio - 1) * 100
}
