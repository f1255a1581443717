package dataset

import (
	"fmt"
	"strings"
)

// ShortNames abbreviates prefixed sequence names for table headers, e.g.
// "mav_MH_01_easy" -> "MH_01", "tumvi_dataset-room1_512_16" -> "room1".
func ShortNames(d Dataset, names []string) []string {
	prefix := d.Definition().Prefix
	out := make([]string, len(names))
	for i, n := range names {
		short := strings.TrimPrefix(n, prefix)
		switch d {
		case Euroc:
			if len(short) > 5 {
				short = short[:5]
			}
		case TumVI:
			short = strings.TrimSuffix(strings.TrimPrefix(short, "dataset-"), "_512_16")
		}
		out[i] = short
	}
	return out
}

// Normalizer returns, per sequence, the divisor that turns an absolute
// trajectory error into drift in percent of the trajectory length.
func Normalizer(d Dataset, names []string) ([]float64, error) {
	def := d.Definition()
	lengths := make(map[string]float64, len(def.Sequences))
	for _, s := range def.Sequences {
		if s.Length > 0 {
			lengths[def.Prefix+s.Name] = s.Length
		}
	}
	if len(lengths) == 0 {
		return nil, fmt.Errorf("dataset %s has no trajectory lengths for normalization", d)
	}

	out := make([]float64, len(names))
	for i, n := range names {
		l, ok := lengths[n]
		if !ok {
			return nil, fmt.Errorf("no trajectory length for sequence %q", n)
		}
		out[i] = l / 100.0
	}
	return out, nil
}
