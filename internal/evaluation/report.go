package evaluation

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/monitoring"
)

// SortedErrors returns, per result, all trajectory errors in ascending
// order: the data of a cumulative error plot. Results are truncated to the
// smallest iteration count so every curve counts the same runs.
func SortedErrors(results []*Result) [][]float64 {
	if len(results) == 0 {
		return nil
	}
	minIter, maxIter := results[0].NumIter(), results[0].NumIter()
	for _, r := range results[1:] {
		minIter = min(minIter, r.NumIter())
		maxIter = max(maxIter, r.NumIter())
	}
	if minIter != maxIter {
		monitoring.Warnf("not all evaluated results have the same number of iterations, only using the first %d runs for each result", minIter)
	}

	out := make([][]float64, len(results))
	for i, r := range results {
		_, cols := r.Errors.Dims()
		top := r.Errors.Slice(0, minIter, 0, cols)
		flat := make([]float64, 0, minIter*cols)
		for k := 0; k < minIter; k++ {
			flat = append(flat, mat.Row(nil, k, top)...)
		}
		sort.Float64s(flat)
		out[i] = flat
	}
	return out
}

// ResultsTable writes the median results as a table. EuRoC results get an
// rmse and a scale_err row each with the mean over sequences; the other
// datasets are transposed (one column per result) and report the mean drift.
func ResultsTable(w io.Writer, results []*Result) error {
	if len(results) == 0 {
		return errors.New("no results to tabulate")
	}
	d := results[0].Dataset
	for _, r := range results[1:] {
		if r.Dataset != d {
			return fmt.Errorf("cannot tabulate %s and %s results together", d, r.Dataset)
		}
	}

	euroc := d == dataset.Euroc
	meanHeader := "mean drift"
	if euroc {
		meanHeader = "mean"
	}
	header := append([]string{"result", ""}, dataset.ShortNames(d, results[0].SequenceNames)...)
	rows := [][]string{append(header, meanHeader)}

	for _, r := range results {
		name := displayName(r.Name)
		if euroc {
			errs := roundAll(r.MedianErrors, 3)
			rows = append(rows, tableRow(name, "rmse", errs, round(stat.Mean(errs, nil), 3)))

			scaleErrs := roundAll(r.MedianScaleErrors, 1)
			rows = append(rows, tableRow(name, "scale_err", scaleErrs, round(stat.Mean(scaleErrs, nil), 1)))
			continue
		}

		norm, err := r.Normalized()
		if err != nil {
			return fmt.Errorf("normalize %s: %w", name, err)
		}
		drift := round(stat.Mean(roundAll(norm.MedianErrors, 2), nil), 3)
		rows = append(rows, tableRow(name, "rmse", roundAll(r.MedianErrors, 2), drift))
	}
	if !euroc {
		rows = transpose(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
		if i == 0 {
			rule := make([]string, len(row))
			for j, cell := range row {
				rule[j] = strings.Repeat("-", max(len(cell), 1))
			}
			fmt.Fprintln(tw, strings.Join(rule, "\t"))
		}
	}
	return tw.Flush()
}

// displayName cuts a result name at its last ':'.
func displayName(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[:i]
	}
	return name
}

func tableRow(name, metric string, values []float64, mean float64) []string {
	row := make([]string, 0, len(values)+3)
	row = append(row, name, metric)
	for _, v := range values {
		row = append(row, formatValue(v))
	}
	return append(row, formatValue(mean))
}

func transpose(rows [][]string) [][]string {
	out := make([][]string, len(rows[0]))
	for j := range out {
		out[j] = make([]string, len(rows))
		for i := range rows {
			out[j][i] = rows[i][j]
		}
	}
	return out
}

func round(v float64, decimals int) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func roundAll(xs []float64, decimals int) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = round(v, decimals)
	}
	return out
}

func formatValue(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
