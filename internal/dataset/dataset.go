// Package dataset describes the supported VIO benchmarks and loads their
// groundtruth.
package dataset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Dataset is a supported benchmark.
type Dataset int

const (
	Euroc Dataset = iota
	TumVI
	FourSeasons
)

// ErrUnknownDataset is returned when a dataset name matches no benchmark.
var ErrUnknownDataset = errors.New("unknown dataset")

// LastFrame as an end frame selects the final entry of the times file.
const LastFrame = -1

// SequenceSpec is the fixed data of one benchmark sequence.
type SequenceSpec struct {
	Name string
	// Start and end frame, as indices into the times file.
	StartFrame int
	EndFrame   int
	// Trajectory length in metres; zero when unknown.
	Length float64
}

// Definition is the fixed evaluation data of one benchmark.
type Definition struct {
	Name string
	// Folder below the groundtruth root.
	Folder string
	// Prefix of every sequence name, e.g. "mav_".
	Prefix    string
	Sequences []SequenceSpec
	// Minimum fraction of the sequence that must be associated.
	CompletionThreshold float64
	// Euroc requires every estimate pose to match groundtruth.
	AllowUnassociated bool
}

// String returns the canonical dataset name.
func (d Dataset) String() string {
	switch d {
	case Euroc:
		return "euroc"
	case TumVI:
		return "tumvi"
	case FourSeasons:
		return "four_seasons"
	}
	return fmt.Sprintf("Dataset(%d)", int(d))
}

// All returns every supported dataset.
func All() []Dataset {
	return []Dataset{Euroc, TumVI, FourSeasons}
}

// Definition returns the evaluation data of d. It panics for values outside
// the enumeration.
func (d Dataset) Definition() Definition {
	switch d {
	case Euroc:
		return eurocDefinition
	case TumVI:
		return tumviDefinition
	case FourSeasons:
		return fourSeasonsDefinition
	}
	panic(fmt.Sprintf("dataset: no definition for %v", d))
}

// SequenceNames returns the prefixed sequence names in evaluation order.
func (def Definition) SequenceNames() []string {
	out := make([]string, len(def.Sequences))
	for i, s := range def.Sequences {
		out[i] = def.Prefix + s.Name
	}
	return out
}

// ParseName maps a free-form dataset name (e.g. "4seasonsCR", "tumvi",
// "EuRoC") to a Dataset. Matching is a case-insensitive substring test in the
// order tumvi, four_seasons, euroc.
func ParseName(name string) (Dataset, error) {
	n := cases.Fold().String(name)
	switch {
	case strings.Contains(n, "tumvi"):
		return TumVI, nil
	case strings.Contains(n, "4seasons"), strings.Contains(n, "four_seasons"):
		return FourSeasons, nil
	case strings.Contains(n, "euroc"):
		return Euroc, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
}
